package espbin

import (
	"errors"
	"fmt"
)

// ErrNoStartAddress is returned by HexImage.Entry when the Intel HEX
// source carried no start address record.
var ErrNoStartAddress = errors.New("hex image has no start address record")

// TruncatedHeaderError indicates the buffer is too short to hold the
// fixed image header.
type TruncatedHeaderError struct {
	Len int
}

func (e *TruncatedHeaderError) Error() string {
	return fmt.Sprintf("truncated image header: got %d bytes, need %d", e.Len, HeaderSize)
}

// TruncatedSegmentHeaderError indicates a segment record header was
// expected where fewer than SegmentHeaderSize bytes remain.
type TruncatedSegmentHeaderError struct {
	// Index is the file-order index of the offending record
	Index int

	// Offset is the byte offset where the record header should start
	Offset int64

	// Remaining is the number of bytes left in the buffer at Offset
	Remaining int64
}

func (e *TruncatedSegmentHeaderError) Error() string {
	return fmt.Sprintf("truncated header for segment %d at offset %d: got %d bytes, need %d",
		e.Index, e.Offset, e.Remaining, SegmentHeaderSize)
}

// TruncatedPayloadError indicates a segment's declared payload length
// extends past the end of the buffer.
type TruncatedPayloadError struct {
	// Index is the file-order index of the offending record
	Index int

	// Offset is the byte offset of the record header
	Offset int64

	// Length is the payload length the record header declared
	Length uint32

	// Remaining is the number of payload bytes actually available
	Remaining int64
}

func (e *TruncatedPayloadError) Error() string {
	return fmt.Sprintf("truncated payload for segment %d at offset %d: declared %d bytes, only %d available",
		e.Index, e.Offset, e.Length, e.Remaining)
}
