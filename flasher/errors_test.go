package flasher

import (
	"crypto/md5"
	"errors"
	"strings"
	"testing"
)

func TestSyncError(t *testing.T) {
	cause := errors.New("connection closed waiting for SYNC response")
	err := &SyncError{
		Attempts: 5,
		Err:      cause,
	}

	errMsg := err.Error()

	if !strings.Contains(errMsg, "failed to synchronize") {
		t.Errorf("error message should contain 'failed to synchronize', got: %s", errMsg)
	}

	if !strings.Contains(errMsg, "5 attempts") {
		t.Errorf("error message should contain attempt count, got: %s", errMsg)
	}

	if !errors.Is(err, cause) {
		t.Error("SyncError should unwrap to its cause")
	}
}

func TestUnsupportedChipError(t *testing.T) {
	err := &UnsupportedChipError{
		Magic: 0x12345678,
	}

	errMsg := err.Error()

	if !strings.Contains(errMsg, "unrecognized chip") {
		t.Errorf("error message should contain 'unrecognized chip', got: %s", errMsg)
	}

	if !strings.Contains(errMsg, "0x12345678") {
		t.Errorf("error message should contain magic value, got: %s", errMsg)
	}
}

func TestDigestMismatchError(t *testing.T) {
	var expected, actual [md5.Size]byte
	for i := range expected {
		expected[i] = 0xAB
		actual[i] = 0xCD
	}

	err := &DigestMismatchError{
		Offset:   0x10000,
		Size:     0x4000,
		Expected: expected,
		Actual:   actual,
	}

	errMsg := err.Error()

	if !strings.Contains(errMsg, "digest mismatch") {
		t.Errorf("error message should contain 'digest mismatch', got: %s", errMsg)
	}

	if !strings.Contains(errMsg, "0x10000..0x14000") {
		t.Errorf("error message should contain the flash region, got: %s", errMsg)
	}

	if !strings.Contains(errMsg, "abababab") {
		t.Errorf("error message should contain expected digest, got: %s", errMsg)
	}

	if !strings.Contains(errMsg, "cdcdcdcd") {
		t.Errorf("error message should contain actual digest, got: %s", errMsg)
	}
}

func TestErrNotConnected(t *testing.T) {
	if !strings.Contains(ErrNotConnected.Error(), "call Connect first") {
		t.Errorf("error message should point at Connect, got: %s", ErrNotConnected.Error())
	}
}

func TestErrorTypes(t *testing.T) {
	// Test that all error types implement error interface
	var _ error = &SyncError{}
	var _ error = &UnsupportedChipError{}
	var _ error = &DigestMismatchError{}
}
