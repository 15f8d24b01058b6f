// Package protocol implements the Espressif serial bootloader wire protocol.
//
// This package provides functions to build command bodies, frame them with
// SLIP, and parse response frames, following the serial protocol spoken by
// the ROM loaders of the ESP8266 and the ESP32 family.
//
// # Protocol Overview
//
// Every packet is a SLIP frame (RFC 1055) wrapping a packet body:
//
//	Command:  [DIR=0x00][OP][LEN(2, LE)][CHECKSUM(4, LE)][DATA...]
//	Response: [DIR=0x01][OP][LEN(2, LE)][VALUE(4, LE)][DATA...][STATUS...]
//
// Where:
//   - DIR distinguishes commands (0x00) from responses (0x01)
//   - LEN is the 16-bit length of the DATA field
//   - CHECKSUM is the XOR checksum for data commands, zero otherwise
//   - VALUE carries the result of READ_REG, zero for most commands
//   - STATUS is a 2- or 4-byte trailer depending on the chip generation
//
// # SLIP Framing
//
// Frames start and end with 0xC0. Inside a frame, 0xC0 is escaped as
// 0xDB 0xDC and 0xDB as 0xDB 0xDD. Use EncodeFrame to wrap a command
// body and ScanFrames (a bufio.SplitFunc) to pull frames off a stream:
//
//	scanner := bufio.NewScanner(port)
//	scanner.Split(protocol.ScanFrames)
//
// # Command Builders
//
// Use the Build* functions to create command bodies:
//
//	body, err := protocol.BuildSyncCmd()
//	body, err := protocol.BuildFlashBeginCmd(size, blocks, blockSize, offset, false)
//	port.Write(protocol.EncodeFrame(body))
//
// # Response Parsing
//
// Use ParseResponse to validate an unescaped frame body and extract the
// opcode, value, payload and status:
//
//	resp, err := protocol.ParseResponse(scanner.Bytes(), protocol.StatusSizeExtended)
//	if err != nil {
//	    return err
//	}
//	if err := resp.Err(); err != nil {
//	    return err // *ProtocolError with the loader's error code
//	}
//
// The status trailer length differs between chip generations: the
// ESP8266 ROM appends 2 bytes, the ESP32-family ROMs append 4.
//
// # Error Handling
//
// Malformed frames produce plain errors from ParseResponse. Failures
// reported by the chip itself surface as *ProtocolError values carrying
// the operation name and the loader's error code:
//
//	err.Error() // "FLASH_BEGIN failed: flash write error (0x08)"
//
// # Reference
//
// For complete protocol details, see the esptool serial protocol
// documentation: https://docs.espressif.com/projects/esptool/en/latest/esp32/advanced-topics/serial-protocol.html
package protocol
