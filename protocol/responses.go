package protocol

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// ParseResponse extracts a Response from an unescaped frame body.
// Validates the direction byte and the declared length.
//
// Response body structure:
//
//	[DIR(1)][OP(1)][LEN(2, LE)][VALUE(4, LE)][DATA...][STATUS...]
//
// statusLen selects how many trailing status bytes the loader appends:
// StatusSizeBasic for the ESP8266 ROM, StatusSizeExtended for the
// ESP32-family ROMs.
func ParseResponse(body []byte, statusLen int) (*Response, error) {
	if statusLen != StatusSizeBasic && statusLen != StatusSizeExtended {
		return nil, fmt.Errorf("invalid status length %d: must be %d or %d", statusLen, StatusSizeBasic, StatusSizeExtended)
	}

	if len(body) < ResponseHeaderSize+statusLen {
		return nil, fmt.Errorf("response too short: got %d bytes, minimum is %d", len(body), ResponseHeaderSize+statusLen)
	}

	if body[0] != DirectionResponse {
		return nil, fmt.Errorf("invalid direction byte: got 0x%02X, expected 0x%02X", body[0], DirectionResponse)
	}

	dataLen := binary.LittleEndian.Uint16(body[2:4])
	if int(dataLen) != len(body)-ResponseHeaderSize {
		return nil, fmt.Errorf("response length mismatch: header declares %d bytes, frame carries %d", dataLen, len(body)-ResponseHeaderSize)
	}

	payload := body[ResponseHeaderSize:]
	status := payload[len(payload)-statusLen:]

	return &Response{
		Op:      body[1],
		Value:   binary.LittleEndian.Uint32(body[4:8]),
		Data:    payload[:len(payload)-statusLen],
		Status:  status[0],
		ErrCode: status[1],
	}, nil
}

// ParseFlashMD5Response extracts the digest from a SPI_FLASH_MD5
// response payload. The ROM loaders answer with 32 hex characters
// while the flasher stub answers with the 16 raw digest bytes; both
// forms are accepted.
func ParseFlashMD5Response(data []byte) ([md5.Size]byte, error) {
	var digest [md5.Size]byte

	switch len(data) {
	case md5.Size:
		copy(digest[:], data)
	case 2 * md5.Size:
		if _, err := hex.Decode(digest[:], data); err != nil {
			return digest, fmt.Errorf("invalid hex digest: %w", err)
		}
	default:
		return digest, fmt.Errorf("invalid MD5 response length: got %d bytes, expected %d or %d", len(data), md5.Size, 2*md5.Size)
	}

	return digest, nil
}
