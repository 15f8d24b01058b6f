package espbin

import (
	"bytes"
	"testing"
)

func TestAssemble(t *testing.T) {
	segments := []CodeSegment{
		{Addr: 0x3FFB0000, Data: []byte{0x01, 0x02, 0x03, 0x04}},
		{Addr: 0x40080000, Data: []byte{0xAA, 0xBB}},
	}

	buf, err := Assemble(0x40080000, segments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSize := HeaderSize + (SegmentHeaderSize + 4) + (SegmentHeaderSize + 2)
	if len(buf) != wantSize {
		t.Fatalf("image size = %d, want %d", len(buf), wantSize)
	}

	img, err := New(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entry, err := img.Entry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != 0x40080000 {
		t.Errorf("Entry() = 0x%08X, want 0x40080000", entry)
	}
	if img.SegmentCount() != 2 {
		t.Errorf("SegmentCount() = %d, want 2", img.SegmentCount())
	}

	segs := img.Segments()
	for i := 0; segs.Scan(); i++ {
		got := segs.Segment()
		if got.Addr != segments[i].Addr {
			t.Errorf("segment[%d].Addr = 0x%08X, want 0x%08X", i, got.Addr, segments[i].Addr)
		}
		if !bytes.Equal(got.Data, segments[i].Data) {
			t.Errorf("segment[%d].Data = %v, want %v", i, got.Data, segments[i].Data)
		}
	}
	if err := segs.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAssembleNoSegments(t *testing.T) {
	buf, err := Assemble(0x1000, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buf) != HeaderSize {
		t.Errorf("image size = %d, want %d", len(buf), HeaderSize)
	}

	img, err := New(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := img.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAssembleTooManySegments(t *testing.T) {
	segments := make([]CodeSegment, 256)
	for i := range segments {
		segments[i] = CodeSegment{Addr: uint32(i), Data: []byte{0x00}}
	}

	_, err := Assemble(0, segments)
	if err == nil {
		t.Fatal("expected error for 256 segments, got nil")
	}
}
