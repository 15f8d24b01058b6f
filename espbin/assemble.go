package espbin

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Assemble encodes an entry point and a list of code segments into a
// well-formed application image. It is the inverse of decoding: the
// result round-trips through New/Segments unchanged. Reserved header
// bytes are zero.
func Assemble(entry uint32, segments []CodeSegment) ([]byte, error) {
	if len(segments) > math.MaxUint8 {
		return nil, fmt.Errorf("too many segments: got %d, format limit is %d", len(segments), math.MaxUint8)
	}

	size := HeaderSize
	for i, seg := range segments {
		if int64(len(seg.Data)) > math.MaxUint32 {
			return nil, fmt.Errorf("segment %d payload too large: %d bytes", i, len(seg.Data))
		}
		size += SegmentHeaderSize + len(seg.Data)
	}

	buf := make([]byte, HeaderSize, size)
	binary.LittleEndian.PutUint32(buf[entryOffset:], entry)
	buf[segmentCountOffset] = byte(len(segments))

	for _, seg := range segments {
		var hdr [SegmentHeaderSize]byte
		binary.LittleEndian.PutUint32(hdr[0:], seg.Addr)
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(seg.Data)))
		buf = append(buf, hdr[:]...)
		buf = append(buf, seg.Data...)
	}

	return buf, nil
}
