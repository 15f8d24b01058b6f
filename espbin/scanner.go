package espbin

import (
	"encoding/binary"
)

// SegmentScanner iterates over the segment records of a binary
// application image. The zero value is not usable; obtain one from
// Image.Segments.
//
// The scanner holds a cursor into the image buffer and the number of
// records the header still owes. Offset arithmetic is done in 64 bits
// so a hostile length field cannot wrap the cursor back inside the
// buffer.
type SegmentScanner struct {
	buf       []byte
	cursor    int64
	remaining int
	index     int
	seg       CodeSegment
	err       error
}

// Scan advances to the next segment record. It returns false when all
// declared records have been produced or a structural error was found;
// after false, Err separates the two cases.
func (s *SegmentScanner) Scan() bool {
	if s.err != nil || s.remaining == 0 {
		return false
	}

	size := int64(len(s.buf))
	if size-s.cursor < SegmentHeaderSize {
		s.err = &TruncatedSegmentHeaderError{
			Index:     s.index,
			Offset:    s.cursor,
			Remaining: size - s.cursor,
		}
		return false
	}

	addr := binary.LittleEndian.Uint32(s.buf[s.cursor:])
	length := binary.LittleEndian.Uint32(s.buf[s.cursor+4:])

	start := s.cursor + SegmentHeaderSize
	end := start + int64(length)
	if end > size {
		s.err = &TruncatedPayloadError{
			Index:     s.index,
			Offset:    s.cursor,
			Length:    length,
			Remaining: size - start,
		}
		return false
	}

	s.seg = CodeSegment{Addr: addr, Data: s.buf[start:end:end]}
	s.cursor = end
	s.index++
	s.remaining--
	return true
}

// Segment returns the segment produced by the most recent successful
// Scan. Its Data aliases the image buffer.
func (s *SegmentScanner) Segment() CodeSegment {
	return s.seg
}

// Err returns the structural error that stopped the scan, or nil if the
// scan ended because every declared record was produced.
func (s *SegmentScanner) Err() error {
	return s.err
}

// Index returns the number of segments produced so far, which is also
// the file-order index of the next record.
func (s *SegmentScanner) Index() int {
	return s.index
}

// Offset returns the byte offset of the scan cursor from the start of
// the image buffer. After a complete scan it equals the total number of
// bytes the header and all segment records occupy.
func (s *SegmentScanner) Offset() int64 {
	return s.cursor
}
