package espbin

import (
	"debug/elf"
	"fmt"
	"io"
	"os"
)

// FromELF extracts the entry point and the loadable segments of an ELF
// executable, in program header order. Headers that are not PT_LOAD or
// carry no file-backed bytes are skipped. Segment data is copied out of
// the ELF, so the reader may be released afterwards.
//
// Combined with Assemble this converts a linked firmware ELF into a
// flashable application image.
func FromELF(r io.ReaderAt) (uint32, []CodeSegment, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to parse ELF: %w", err)
	}
	defer func() { _ = f.Close() }()

	var segments []CodeSegment
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD || prog.Filesz == 0 {
			continue
		}

		data := make([]byte, prog.Filesz)
		if _, err := io.ReadFull(prog.Open(), data); err != nil {
			return 0, nil, fmt.Errorf("failed to read ELF segment at 0x%08X: %w", uint32(prog.Paddr), err)
		}

		segments = append(segments, CodeSegment{Addr: uint32(prog.Paddr), Data: data})
	}

	return uint32(f.Entry), segments, nil
}

// LoadELF extracts entry point and loadable segments from an ELF file
// on disk.
func LoadELF(path string) (uint32, []CodeSegment, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to open ELF: %w", err)
	}
	defer func() { _ = f.Close() }()

	return FromELF(f)
}
