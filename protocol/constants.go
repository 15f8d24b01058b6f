package protocol

import "fmt"

// SLIP framing constants (RFC 1055).
const (
	// FrameDelimiter marks the start and end of every SLIP frame
	FrameDelimiter = 0xC0

	// Escape introduces a two-byte escape sequence inside a frame
	Escape = 0xDB

	// EscDelimiter follows Escape to encode a literal 0xC0 byte
	EscDelimiter = 0xDC

	// EscEscape follows Escape to encode a literal 0xDB byte
	EscEscape = 0xDD

	// MaxFrameSize is the buffer size needed for the largest expected
	// frame: a fully escaped flash read block plus framing overhead
	MaxFrameSize = 0x8000
)

// Direction bytes. The first byte of every packet body identifies
// whether it travels to or from the chip.
const (
	// DirectionCommand marks a host-to-chip command packet
	DirectionCommand = 0x00

	// DirectionResponse marks a chip-to-host response packet
	DirectionResponse = 0x01
)

// Command opcodes understood by the ROM serial bootloader.
const (
	// OpFlashBegin starts a flash write session
	OpFlashBegin = 0x02

	// OpFlashData sends one block of flash data
	OpFlashData = 0x03

	// OpFlashEnd finishes a flash write session
	OpFlashEnd = 0x04

	// OpMemBegin starts a RAM load session
	OpMemBegin = 0x05

	// OpMemEnd finishes a RAM load session and optionally jumps to an entry point
	OpMemEnd = 0x06

	// OpMemData sends one block of RAM data
	OpMemData = 0x07

	// OpSync synchronizes frame boundaries and performs baud rate detection
	OpSync = 0x08

	// OpWriteReg writes a 32-bit chip register
	OpWriteReg = 0x09

	// OpReadReg reads a 32-bit chip register
	OpReadReg = 0x0A

	// OpSpiSetParams configures the attached SPI flash geometry
	OpSpiSetParams = 0x0B

	// OpSpiAttach attaches the SPI flash chip to the configured pins
	OpSpiAttach = 0x0D

	// OpChangeBaudrate switches the serial link to a new baud rate
	OpChangeBaudrate = 0x0F

	// OpFlashDeflBegin starts a compressed flash write session
	OpFlashDeflBegin = 0x10

	// OpFlashDeflData sends one block of zlib-compressed flash data
	OpFlashDeflData = 0x11

	// OpFlashDeflEnd finishes a compressed flash write session
	OpFlashDeflEnd = 0x12

	// OpSpiFlashMD5 computes the MD5 digest of a flash region
	OpSpiFlashMD5 = 0x13

	// OpEraseFlash erases the entire flash chip
	OpEraseFlash = 0xD0

	// OpEraseRegion erases a region of flash
	OpEraseRegion = 0xD1

	// OpReadFlash streams a region of flash back to the host
	OpReadFlash = 0xD2

	// OpRunUserCode exits the bootloader and runs the user application
	OpRunUserCode = 0xD3
)

// Status bytes. Every response carries a trailing status block whose
// first byte is one of these values.
const (
	// StatusSuccess indicates the command completed
	StatusSuccess = 0x00

	// StatusFailure indicates the command failed; the next status byte
	// carries the error code
	StatusFailure = 0x01
)

// Error codes reported in the second status byte of a failed response.
const (
	// ErrInvalidMessage indicates the received message was malformed
	ErrInvalidMessage = 0x05

	// ErrFailedToAct indicates the loader could not act on the message
	ErrFailedToAct = 0x06

	// ErrInvalidCRC indicates the payload checksum did not match
	ErrInvalidCRC = 0x07

	// ErrFlashWrite indicates a flash write operation failed
	ErrFlashWrite = 0x08

	// ErrFlashRead indicates a flash read operation failed
	ErrFlashRead = 0x09

	// ErrFlashReadLength indicates a flash read length was invalid
	ErrFlashReadLength = 0x0A

	// ErrDeflate indicates decompression of a compressed block failed
	ErrDeflate = 0x0B
)

// Packet layout constants.
const (
	// CommandHeaderSize is the fixed prefix of a command body:
	// DIR(1) + OP(1) + LEN(2) + CHECKSUM(4)
	CommandHeaderSize = 8

	// ResponseHeaderSize is the fixed prefix of a response body:
	// DIR(1) + OP(1) + LEN(2) + VALUE(4)
	ResponseHeaderSize = 8

	// DataHeaderSize is the prefix data commands place before the
	// block payload: LEN(4) + SEQ(4) + two reserved words
	DataHeaderSize = 16

	// MaxCommandData is the largest payload the 16-bit length field
	// of a command header can describe
	MaxCommandData = 0xFFFF

	// StatusSizeBasic is the status block length used by the ESP8266
	// ROM loader
	StatusSizeBasic = 2

	// StatusSizeExtended is the status block length used by the
	// ESP32-family ROM loaders
	StatusSizeExtended = 4
)

// Transfer block sizes and SPI flash geometry reported via OpSpiSetParams.
const (
	// FlashBlockSize is the write block size for flash sessions
	FlashBlockSize = 0x400

	// RAMBlockSize is the write block size for RAM load sessions
	RAMBlockSize = 0x1800

	// FlashSectorSize is the smallest erasable flash unit
	FlashSectorSize = 0x1000

	// Flash64KBlockSize is the large erase block size of the flash chip
	Flash64KBlockSize = 0x10000

	// FlashPageSize is the SPI flash program page size
	FlashPageSize = 0x100

	// FlashStatusMask selects the status register bits the loader polls
	FlashStatusMask = 0xFFFF
)

// OpName returns the canonical name of a command opcode, as used in
// log output and error messages.
func OpName(op byte) string {
	switch op {
	case OpFlashBegin:
		return "FLASH_BEGIN"
	case OpFlashData:
		return "FLASH_DATA"
	case OpFlashEnd:
		return "FLASH_END"
	case OpMemBegin:
		return "MEM_BEGIN"
	case OpMemEnd:
		return "MEM_END"
	case OpMemData:
		return "MEM_DATA"
	case OpSync:
		return "SYNC"
	case OpWriteReg:
		return "WRITE_REG"
	case OpReadReg:
		return "READ_REG"
	case OpSpiSetParams:
		return "SPI_SET_PARAMS"
	case OpSpiAttach:
		return "SPI_ATTACH"
	case OpChangeBaudrate:
		return "CHANGE_BAUDRATE"
	case OpFlashDeflBegin:
		return "FLASH_DEFL_BEGIN"
	case OpFlashDeflData:
		return "FLASH_DEFL_DATA"
	case OpFlashDeflEnd:
		return "FLASH_DEFL_END"
	case OpSpiFlashMD5:
		return "SPI_FLASH_MD5"
	case OpEraseFlash:
		return "ERASE_FLASH"
	case OpEraseRegion:
		return "ERASE_REGION"
	case OpReadFlash:
		return "READ_FLASH"
	case OpRunUserCode:
		return "RUN_USER_CODE"
	default:
		return fmt.Sprintf("command 0x%02X", op)
	}
}
