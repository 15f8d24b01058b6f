package espbin

import (
	"encoding/binary"
)

// Constants for the application image binary layout.
const (
	// HeaderSize is the size of the fixed image header in bytes
	HeaderSize = 24

	// SegmentHeaderSize is the size of each segment record header in bytes
	SegmentHeaderSize = 8

	// entryOffset is the byte offset of the entry point field
	entryOffset = 0

	// segmentCountOffset is the byte offset of the segment count field
	segmentCountOffset = 4
)

// Image is a read-only view of an application image held in a byte
// buffer. It borrows the buffer and never copies or mutates it; the
// buffer must outlive the Image and every CodeSegment derived from it.
type Image struct {
	data []byte
}

// New wraps an in-memory application image.
// It fails if the buffer cannot hold the fixed header; segment records
// are not examined until they are iterated.
//
// Example:
//
//	img, err := espbin.New(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	entry, _ := img.Entry()
func New(data []byte) (*Image, error) {
	if len(data) < HeaderSize {
		return nil, &TruncatedHeaderError{Len: len(data)}
	}
	return &Image{data: data}, nil
}

// Entry returns the program entry point from the image header.
func (img *Image) Entry() (uint32, error) {
	if len(img.data) < HeaderSize {
		return 0, &TruncatedHeaderError{Len: len(img.data)}
	}
	return binary.LittleEndian.Uint32(img.data[entryOffset:]), nil
}

// SegmentCount returns the number of segment records the header declares.
// The count is trusted only as an upper bound: iteration checks every
// record against the real buffer length.
func (img *Image) SegmentCount() uint8 {
	if len(img.data) < HeaderSize {
		return 0
	}
	return img.data[segmentCountOffset]
}

// Size returns the length of the underlying buffer in bytes.
func (img *Image) Size() int {
	return len(img.data)
}

// Segments returns a fresh iterator over the image's code segments in
// file order. Every call starts a new, independent stream over the same
// buffer; streams never share cursor state, so concurrent iteration is
// safe as long as the buffer stays unmodified.
//
// The returned iterator is a *SegmentScanner.
func (img *Image) Segments() SegmentIterator {
	s := &SegmentScanner{buf: img.data, cursor: HeaderSize}
	if len(img.data) < HeaderSize {
		s.err = &TruncatedHeaderError{Len: len(img.data)}
		return s
	}
	s.remaining = int(img.data[segmentCountOffset])
	return s
}

// Validate drives a full segment scan and returns the first structural
// error, or nil if every declared record lies within the buffer. Use it
// when the whole image should be rejected up front instead of surfacing
// errors mid-iteration.
func (img *Image) Validate() error {
	segs := img.Segments()
	for segs.Scan() {
	}
	return segs.Err()
}
