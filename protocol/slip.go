package protocol

import (
	"bytes"
	"fmt"
)

// EncodeFrame wraps a packet body in a SLIP frame.
// The body is escaped (0xC0 becomes 0xDB 0xDC, 0xDB becomes 0xDB 0xDD)
// and enclosed in FrameDelimiter bytes.
func EncodeFrame(body []byte) []byte {
	frame := make([]byte, 0, len(body)+2)
	frame = append(frame, FrameDelimiter)
	for _, b := range body {
		switch b {
		case FrameDelimiter:
			frame = append(frame, Escape, EscDelimiter)
		case Escape:
			frame = append(frame, Escape, EscEscape)
		default:
			frame = append(frame, b)
		}
	}
	frame = append(frame, FrameDelimiter)
	return frame
}

// ScanFrames is a bufio.SplitFunc that extracts SLIP frames from a byte
// stream. Bytes outside frame delimiters (line noise, boot ROM log
// output) are discarded, and empty frames are skipped. Each token is
// the unescaped frame body, valid only until the next call to Scan.
//
//	scanner := bufio.NewScanner(port)
//	scanner.Buffer(make([]byte, protocol.MaxFrameSize), protocol.MaxFrameSize)
//	scanner.Split(protocol.ScanFrames)
//	for scanner.Scan() {
//	    body := scanner.Bytes()
//	    // ...
//	}
func ScanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := bytes.IndexByte(data, FrameDelimiter)
	if start < 0 {
		// No frame in sight, drop the noise.
		return len(data), nil, nil
	}
	end := bytes.IndexByte(data[start+1:], FrameDelimiter)
	if end < 0 {
		if atEOF {
			// Stream ended mid-frame.
			return len(data), nil, nil
		}
		// Drop the leading noise and wait for the closing delimiter.
		return start, nil, nil
	}

	advance = start + 1 + end + 1
	body := data[start+1 : start+1+end]
	if len(body) == 0 {
		// Adjacent delimiters between frames, keep scanning.
		return advance, nil, nil
	}

	token, err = unescape(body)
	if err != nil {
		return 0, nil, err
	}
	return advance, token, nil
}

// unescape resolves SLIP escape sequences in a frame body.
// Returns the input unchanged when no escapes are present.
func unescape(body []byte) ([]byte, error) {
	if bytes.IndexByte(body, Escape) < 0 {
		return body, nil
	}

	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		b := body[i]
		if b != Escape {
			out = append(out, b)
			continue
		}
		i++
		if i == len(body) {
			return nil, fmt.Errorf("truncated escape sequence at end of frame")
		}
		switch body[i] {
		case EscDelimiter:
			out = append(out, FrameDelimiter)
		case EscEscape:
			out = append(out, Escape)
		default:
			return nil, fmt.Errorf("invalid escape sequence 0x%02X 0x%02X", Escape, body[i])
		}
	}
	return out, nil
}
