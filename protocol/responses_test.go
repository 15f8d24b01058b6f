package protocol

import (
	"bytes"
	"crypto/md5"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"
)

// Helper function to build a valid response body for testing
func buildTestResponse(op byte, value uint32, data, status []byte) []byte {
	body := make([]byte, 0, ResponseHeaderSize+len(data)+len(status))

	body = append(body, DirectionResponse)
	body = append(body, op)
	body = binary.LittleEndian.AppendUint16(body, uint16(len(data)+len(status)))
	body = binary.LittleEndian.AppendUint32(body, value)
	body = append(body, data...)
	body = append(body, status...)

	return body
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name        string
		body        []byte
		statusLen   int
		wantOp      byte
		wantValue   uint32
		wantDataLen int
		wantStatus  byte
		wantErrCode byte
		wantErr     bool
		errMsg      string
	}{
		{
			name:       "success with basic status",
			body:       buildTestResponse(OpSync, 0, nil, []byte{StatusSuccess, 0x00}),
			statusLen:  StatusSizeBasic,
			wantOp:     OpSync,
			wantStatus: StatusSuccess,
		},
		{
			name:       "success with extended status",
			body:       buildTestResponse(OpFlashBegin, 0, nil, []byte{StatusSuccess, 0x00, 0x00, 0x00}),
			statusLen:  StatusSizeExtended,
			wantOp:     OpFlashBegin,
			wantStatus: StatusSuccess,
		},
		{
			name:      "register value",
			body:      buildTestResponse(OpReadReg, 0x00F01D83, nil, []byte{StatusSuccess, 0x00, 0x00, 0x00}),
			statusLen: StatusSizeExtended,
			wantOp:    OpReadReg,
			wantValue: 0x00F01D83,
		},
		{
			name:        "data payload",
			body:        buildTestResponse(OpSpiFlashMD5, 0, make([]byte, md5.Size), []byte{StatusSuccess, 0x00, 0x00, 0x00}),
			statusLen:   StatusSizeExtended,
			wantOp:      OpSpiFlashMD5,
			wantDataLen: md5.Size,
		},
		{
			name:        "failure status",
			body:        buildTestResponse(OpFlashData, 0, nil, []byte{StatusFailure, ErrInvalidCRC, 0x00, 0x00}),
			statusLen:   StatusSizeExtended,
			wantOp:      OpFlashData,
			wantStatus:  StatusFailure,
			wantErrCode: ErrInvalidCRC,
		},
		{
			name:      "response too short",
			body:      []byte{DirectionResponse, OpSync, 0x00},
			statusLen: StatusSizeBasic,
			wantErr:   true,
			errMsg:    "response too short",
		},
		{
			name:      "invalid direction",
			body:      buildTestResponse(OpSync, 0, nil, []byte{StatusSuccess, 0x00})[1:],
			statusLen: StatusSizeBasic,
			wantErr:   true,
			errMsg:    "invalid direction",
		},
		{
			name: "length mismatch",
			body: func() []byte {
				b := buildTestResponse(OpSync, 0, []byte{0x01, 0x02}, []byte{StatusSuccess, 0x00})
				binary.LittleEndian.PutUint16(b[2:4], 0x0F)
				return b
			}(),
			statusLen: StatusSizeBasic,
			wantErr:   true,
			errMsg:    "length mismatch",
		},
		{
			name:      "invalid status length",
			body:      buildTestResponse(OpSync, 0, nil, []byte{StatusSuccess, 0x00}),
			statusLen: 3,
			wantErr:   true,
			errMsg:    "invalid status length",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseResponse(tt.body, tt.statusLen)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !bytes.Contains([]byte(err.Error()), []byte(tt.errMsg)) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if resp.Op != tt.wantOp {
				t.Errorf("Op = 0x%02X, want 0x%02X", resp.Op, tt.wantOp)
			}

			if resp.Value != tt.wantValue {
				t.Errorf("Value = 0x%08X, want 0x%08X", resp.Value, tt.wantValue)
			}

			if len(resp.Data) != tt.wantDataLen {
				t.Errorf("data length = %d, want %d", len(resp.Data), tt.wantDataLen)
			}

			if resp.Status != tt.wantStatus {
				t.Errorf("Status = 0x%02X, want 0x%02X", resp.Status, tt.wantStatus)
			}

			if resp.ErrCode != tt.wantErrCode {
				t.Errorf("ErrCode = 0x%02X, want 0x%02X", resp.ErrCode, tt.wantErrCode)
			}
		})
	}
}

func TestResponseErr(t *testing.T) {
	ok, err := ParseResponse(buildTestResponse(OpSync, 0, nil, []byte{StatusSuccess, 0x00, 0x00, 0x00}), StatusSizeExtended)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ok.Err(); err != nil {
		t.Errorf("Err() on success = %v, want nil", err)
	}

	failed, err := ParseResponse(buildTestResponse(OpFlashBegin, 0, nil, []byte{StatusFailure, ErrFlashWrite, 0x00, 0x00}), StatusSizeExtended)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	perr := failed.Err()
	if perr == nil {
		t.Fatal("Err() on failure = nil, want *ProtocolError")
	}

	var pe *ProtocolError
	if !errors.As(perr, &pe) {
		t.Fatalf("Err() = %T, want *ProtocolError", perr)
	}
	if pe.Operation != "FLASH_BEGIN" {
		t.Errorf("Operation = %q, want %q", pe.Operation, "FLASH_BEGIN")
	}
	if pe.Code != ErrFlashWrite {
		t.Errorf("Code = 0x%02X, want 0x%02X", pe.Code, ErrFlashWrite)
	}

	want := "FLASH_BEGIN failed: flash write error (0x08)"
	if perr.Error() != want {
		t.Errorf("Error() = %q, want %q", perr.Error(), want)
	}
}

func TestIsProtocolError(t *testing.T) {
	pe := &ProtocolError{Operation: "SYNC", Code: ErrInvalidMessage}

	if !IsProtocolError(pe) {
		t.Error("IsProtocolError() = false for *ProtocolError")
	}
	if !IsProtocolError(fmt.Errorf("command failed: %w", pe)) {
		t.Error("IsProtocolError() = false for wrapped *ProtocolError")
	}
	if IsProtocolError(errors.New("some other error")) {
		t.Error("IsProtocolError() = true for unrelated error")
	}
}

func TestParseFlashMD5Response(t *testing.T) {
	digest := md5.Sum([]byte("firmware"))

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
		errMsg  string
	}{
		{
			name: "raw digest",
			data: digest[:],
		},
		{
			name: "hex encoded digest",
			data: []byte(fmt.Sprintf("%x", digest)),
		},
		{
			name: "uppercase hex digest",
			data: []byte(fmt.Sprintf("%X", digest)),
		},
		{
			name:    "wrong length",
			data:    make([]byte, 20),
			wantErr: true,
			errMsg:  "invalid MD5 response length",
		},
		{
			name:    "invalid hex",
			data:    bytes.Repeat([]byte{'z'}, 2*md5.Size),
			wantErr: true,
			errMsg:  "invalid hex digest",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFlashMD5Response(tt.data)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !bytes.Contains([]byte(err.Error()), []byte(tt.errMsg)) {
					t.Errorf("error = %v, want substring %q", err, tt.errMsg)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != digest {
				t.Errorf("digest = %x, want %x", got, digest)
			}
		})
	}
}

func TestOpName(t *testing.T) {
	if got := OpName(OpFlashDeflBegin); got != "FLASH_DEFL_BEGIN" {
		t.Errorf("OpName(OpFlashDeflBegin) = %q, want %q", got, "FLASH_DEFL_BEGIN")
	}
	if got := OpName(0x42); got != "command 0x42" {
		t.Errorf("OpName(0x42) = %q, want %q", got, "command 0x42")
	}
}

func BenchmarkParseResponse(b *testing.B) {
	body := buildTestResponse(OpReadReg, 0x00F01D83, nil, []byte{StatusSuccess, 0x00, 0x00, 0x00})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ParseResponse(body, StatusSizeExtended)
	}
}
