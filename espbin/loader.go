package espbin

import (
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Load reads an entire application image file into memory and decodes
// it.
//
// Example:
//
//	img, err := espbin.Load("app.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return New(data)
}

// Read consumes r to the end and decodes the bytes as an application
// image. Useful for testing and for non-file sources.
func Read(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return New(data)
}

// MappedImage is an Image backed by a read-only memory mapping of a
// file. Segments decoded from it alias the mapping, so the whole decode
// path is allocation-free; nothing derived from the image may be used
// after Close.
type MappedImage struct {
	*Image
	f  *os.File
	mm mmap.MMap
}

// Map memory-maps an image file read-only and decodes it in place.
// The caller must Close the returned image when done with it and with
// every segment derived from it.
//
// Example:
//
//	img, err := espbin.Map("app.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer img.Close()
func Map(path string) (*MappedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to map image: %w", err)
	}

	img, err := New(mm)
	if err != nil {
		_ = mm.Unmap()
		_ = f.Close()
		return nil, err
	}

	return &MappedImage{Image: img, f: f, mm: mm}, nil
}

// Close unmaps the file and releases the descriptor. The image and all
// of its segments become invalid.
func (m *MappedImage) Close() error {
	err := m.mm.Unmap()
	if cerr := m.f.Close(); err == nil {
		err = cerr
	}
	return err
}
