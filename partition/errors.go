package partition

import (
	"crypto/md5"
	"fmt"
)

// InvalidMagicError indicates a table row that starts with neither the
// entry magic, the checksum magic, nor erased flash.
type InvalidMagicError struct {
	// Index is the row number within the table
	Index int

	// Magic is the 16-bit value read from the row start
	Magic uint16
}

func (e *InvalidMagicError) Error() string {
	return fmt.Sprintf("partition table row %d: invalid magic 0x%04X", e.Index, e.Magic)
}

// TruncatedEntryError indicates a table that ends mid-row.
type TruncatedEntryError struct {
	// Index is the row number within the table
	Index int

	// Len is the number of bytes left for the row
	Len int
}

func (e *TruncatedEntryError) Error() string {
	return fmt.Sprintf("partition table row %d truncated: %d bytes left, each row is %d",
		e.Index, e.Len, EntrySize)
}

// ChecksumMismatchError indicates that the digest stored in the
// checksum row does not match the entries preceding it.
type ChecksumMismatchError struct {
	// Expected is the digest stored in the table
	Expected [md5.Size]byte

	// Actual is the digest computed over the entry rows
	Actual [md5.Size]byte
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("partition table checksum mismatch: table carries %x, entries hash to %x",
		e.Expected, e.Actual)
}
