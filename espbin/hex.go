package espbin

import (
	"fmt"
	"io"
	"os"

	"github.com/marcinbor85/gohex"
)

// HexImage is a firmware image parsed from Intel HEX text. It exposes
// the same capability set as the binary format: the entry point comes
// from the HEX start address record, and each contiguous data region
// becomes one code segment at its base address.
type HexImage struct {
	mem *gohex.Memory
}

// LoadHex parses an Intel HEX file from disk.
func LoadHex(path string) (*HexImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open hex file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return ReadHex(f)
}

// ReadHex parses Intel HEX text from any io.Reader.
func ReadHex(r io.Reader) (*HexImage, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, fmt.Errorf("failed to parse hex: %w", err)
	}
	return &HexImage{mem: mem}, nil
}

// Entry returns the start address recorded in the HEX file, or
// ErrNoStartAddress if the file carried none.
func (h *HexImage) Entry() (uint32, error) {
	addr, ok := h.mem.GetStartAddress()
	if !ok {
		return 0, ErrNoStartAddress
	}
	return addr, nil
}

// SegmentCount returns the number of contiguous data regions in the
// HEX file.
func (h *HexImage) SegmentCount() int {
	return len(h.mem.GetDataSegments())
}

// Segments returns a fresh iterator over the HEX data regions in
// address order. Segment data aliases the parsed memory; like the
// binary decoder, nothing is copied.
func (h *HexImage) Segments() SegmentIterator {
	regions := h.mem.GetDataSegments()
	segs := make([]CodeSegment, len(regions))
	for i, region := range regions {
		segs[i] = CodeSegment{Addr: region.Address, Data: region.Data}
	}
	return &sliceIterator{segs: segs}
}

// sliceIterator adapts a fixed slice of segments to the SegmentIterator
// contract. It cannot fail; Err is always nil.
type sliceIterator struct {
	segs []CodeSegment
	pos  int
	seg  CodeSegment
}

func (s *sliceIterator) Scan() bool {
	if s.pos >= len(s.segs) {
		return false
	}
	s.seg = s.segs[s.pos]
	s.pos++
	return true
}

func (s *sliceIterator) Segment() CodeSegment {
	return s.seg
}

func (s *sliceIterator) Err() error {
	return nil
}
