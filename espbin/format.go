package espbin

// CodeSegment is a single block of bytes destined for a fixed load
// address. Data is a view into the originating image buffer; it is never
// a copy, so it must not be mutated and must not outlive that buffer.
type CodeSegment struct {
	// Addr is the destination load address
	Addr uint32

	// Data is the raw payload, borrowed from the image buffer
	Data []byte
}

// SegmentIterator walks the code segments of an image in file order.
// It follows the bufio.Scanner idiom: Scan advances to the next segment
// and reports whether one is available; Segment returns the current one;
// Err reports the first structural error encountered, if any.
//
// Iteration is forward-only and single-pass. Obtain a fresh iterator to
// walk the segments again.
type SegmentIterator interface {
	Scan() bool
	Segment() CodeSegment
	Err() error
}

// FirmwareImage is the capability set shared by every bootable image
// flavor: an entry point and a stream of code segments. The binary
// application image (Image) and the Intel HEX form (HexImage) both
// implement it; consumers such as RAM loaders should accept this
// interface rather than a concrete format.
type FirmwareImage interface {
	Entry() (uint32, error)
	Segments() SegmentIterator
}
