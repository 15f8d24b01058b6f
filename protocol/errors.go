package protocol

import (
	"errors"
	"fmt"
)

// ProtocolError represents a failure status returned by the serial
// bootloader in response to a command.
type ProtocolError struct {
	// Operation is the command that failed
	Operation string

	// Code is the error code from the status block
	Code byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s failed: %s (0x%02X)", e.Operation, statusName(e.Code), e.Code)
}

// IsProtocolError returns true if the error is a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// statusName returns a human-readable name for an error code.
func statusName(code byte) string {
	switch code {
	case ErrInvalidMessage:
		return "invalid message received"
	case ErrFailedToAct:
		return "failed to act on message"
	case ErrInvalidCRC:
		return "invalid checksum in message"
	case ErrFlashWrite:
		return "flash write error"
	case ErrFlashRead:
		return "flash read error"
	case ErrFlashReadLength:
		return "flash read length error"
	case ErrDeflate:
		return "deflate error"
	default:
		return fmt.Sprintf("unknown error code 0x%02X", code)
	}
}
