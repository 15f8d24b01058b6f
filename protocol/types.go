package protocol

// Response is a parsed command response from the serial bootloader.
type Response struct {
	// Op is the opcode of the command being answered
	Op byte

	// Value is the 32-bit value field; READ_REG returns the register
	// contents here, most other commands leave it zero
	Value uint32

	// Data is the response payload with the status block stripped
	Data []byte

	// Status is StatusSuccess or StatusFailure
	Status byte

	// ErrCode is the error code when Status is StatusFailure
	ErrCode byte
}

// Success reports whether the command completed without error.
func (r *Response) Success() bool {
	return r.Status == StatusSuccess
}

// Err returns a *ProtocolError describing the failure, or nil when the
// command succeeded.
func (r *Response) Err() error {
	if r.Success() {
		return nil
	}
	return &ProtocolError{Operation: OpName(r.Op), Code: r.ErrCode}
}
