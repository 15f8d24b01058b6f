package flasher

import (
	"crypto/md5"
	"errors"
	"fmt"
)

// ErrNotConnected is returned by operations that need a detected chip
// before Connect has succeeded.
var ErrNotConnected = errors.New("not connected: call Connect first")

// SyncError indicates that the chip never answered the synchronization
// sequence.
type SyncError struct {
	// Attempts is the number of sync attempts made
	Attempts int

	// Err is the error from the last attempt
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("failed to synchronize after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// UnsupportedChipError indicates that the magic register value matches
// no known chip family.
type UnsupportedChipError struct {
	// Magic is the value read from the magic register
	Magic uint32
}

func (e *UnsupportedChipError) Error() string {
	return fmt.Sprintf("unrecognized chip: magic register reads 0x%08X", e.Magic)
}

// DigestMismatchError indicates that the flash contents do not match
// the expected data.
type DigestMismatchError struct {
	// Offset is the start of the verified flash region
	Offset uint32

	// Size is the length of the verified flash region
	Size uint32

	// Expected is the digest of the data written
	Expected [md5.Size]byte

	// Actual is the digest reported by the chip
	Actual [md5.Size]byte
}

func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("flash digest mismatch for 0x%X..0x%X: expected %x, got %x",
		e.Offset, e.Offset+e.Size, e.Expected, e.Actual)
}
