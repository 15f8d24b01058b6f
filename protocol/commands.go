package protocol

import (
	"encoding/binary"
	"fmt"
)

// packCommand assembles a raw command body for an opcode.
//
// Body structure:
//
//	[DIR(1)][OP(1)][LEN(2, LE)][CHECKSUM(4, LE)][DATA...]
//
// The body is not SLIP-framed; wrap it with EncodeFrame before writing
// it to the serial port.
func packCommand(op byte, checksum uint32, data []byte) ([]byte, error) {
	if len(data) > MaxCommandData {
		return nil, fmt.Errorf("%s data length %d exceeds maximum %d", OpName(op), len(data), MaxCommandData)
	}

	body := make([]byte, 0, CommandHeaderSize+len(data))
	body = append(body, DirectionCommand, op)
	body = binary.LittleEndian.AppendUint16(body, uint16(len(data)))
	body = binary.LittleEndian.AppendUint32(body, checksum)
	body = append(body, data...)
	return body, nil
}

// packDataCommand assembles a data command body carrying one block.
//
// Data structure:
//
//	[BLOCK_LEN(4)][SEQ(4)][RESERVED(4)][RESERVED(4)][BLOCK...]
//
// The checksum field covers the block bytes only.
func packDataCommand(op byte, block []byte, seq uint32) ([]byte, error) {
	if len(block) == 0 {
		return nil, fmt.Errorf("%s block cannot be empty", OpName(op))
	}
	if len(block) > MaxCommandData-DataHeaderSize {
		return nil, fmt.Errorf("%s block length %d exceeds maximum %d", OpName(op), len(block), MaxCommandData-DataHeaderSize)
	}

	data := make([]byte, 0, DataHeaderSize+len(block))
	data = binary.LittleEndian.AppendUint32(data, uint32(len(block)))
	data = binary.LittleEndian.AppendUint32(data, seq)
	data = binary.LittleEndian.AppendUint32(data, 0)
	data = binary.LittleEndian.AppendUint32(data, 0)
	data = append(data, block...)

	return packCommand(op, uint32(Checksum(block)), data)
}

// appendWords appends 32-bit little-endian words to a data buffer.
func appendWords(data []byte, words ...uint32) []byte {
	for _, w := range words {
		data = binary.LittleEndian.AppendUint32(data, w)
	}
	return data
}

// BuildSyncCmd constructs a SYNC command body.
//
// The payload is the fixed 36-byte pattern the ROM loader uses for
// automatic baud rate detection: 0x07 0x07 0x12 0x20 followed by
// 32 bytes of 0x55.
func BuildSyncCmd() ([]byte, error) {
	data := make([]byte, 0, 36)
	data = append(data, 0x07, 0x07, 0x12, 0x20)
	for i := 0; i < 32; i++ {
		data = append(data, 0x55)
	}
	return packCommand(OpSync, 0, data)
}

// BuildFlashBeginCmd constructs a FLASH_BEGIN command body.
// Starts a flash write session covering size bytes at offset, split
// into blocks transfers of blockSize bytes each.
//
// Data words:
//
//	[ERASE_SIZE][BLOCKS][BLOCK_SIZE][OFFSET][ENCRYPT?]
//
// The trailing encryption word is only sent to loaders that expect it
// (ESP32-S2 and later ROMs).
func BuildFlashBeginCmd(size, blocks, blockSize, offset uint32, supportsEncryption bool) ([]byte, error) {
	data := appendWords(nil, size, blocks, blockSize, offset)
	if supportsEncryption {
		data = appendWords(data, 0)
	}
	return packCommand(OpFlashBegin, 0, data)
}

// BuildFlashDataCmd constructs a FLASH_DATA command body carrying one
// block of flash data. seq is the zero-based block sequence number.
func BuildFlashDataCmd(block []byte, seq uint32) ([]byte, error) {
	return packDataCommand(OpFlashData, block, seq)
}

// BuildFlashEndCmd constructs a FLASH_END command body.
// When reboot is true the chip resets and boots the flashed image,
// otherwise it stays in the bootloader.
func BuildFlashEndCmd(reboot bool) ([]byte, error) {
	stay := uint32(1)
	if reboot {
		stay = 0
	}
	return packCommand(OpFlashEnd, 0, appendWords(nil, stay))
}

// BuildFlashDeflBeginCmd constructs a FLASH_DEFL_BEGIN command body.
// Like FLASH_BEGIN but the session carries zlib-compressed blocks;
// size is the uncompressed length of the region.
func BuildFlashDeflBeginCmd(size, blocks, blockSize, offset uint32, supportsEncryption bool) ([]byte, error) {
	data := appendWords(nil, size, blocks, blockSize, offset)
	if supportsEncryption {
		data = appendWords(data, 0)
	}
	return packCommand(OpFlashDeflBegin, 0, data)
}

// BuildFlashDeflDataCmd constructs a FLASH_DEFL_DATA command body
// carrying one block of zlib-compressed flash data.
func BuildFlashDeflDataCmd(block []byte, seq uint32) ([]byte, error) {
	return packDataCommand(OpFlashDeflData, block, seq)
}

// BuildFlashDeflEndCmd constructs a FLASH_DEFL_END command body.
func BuildFlashDeflEndCmd(reboot bool) ([]byte, error) {
	stay := uint32(1)
	if reboot {
		stay = 0
	}
	return packCommand(OpFlashDeflEnd, 0, appendWords(nil, stay))
}

// BuildMemBeginCmd constructs a MEM_BEGIN command body.
// Starts a RAM load session writing size bytes to loadAddr.
//
// Data words:
//
//	[TOTAL_SIZE][BLOCKS][BLOCK_SIZE][LOAD_ADDR]
func BuildMemBeginCmd(size, blocks, blockSize, loadAddr uint32) ([]byte, error) {
	return packCommand(OpMemBegin, 0, appendWords(nil, size, blocks, blockSize, loadAddr))
}

// BuildMemDataCmd constructs a MEM_DATA command body carrying one
// block of RAM data.
func BuildMemDataCmd(block []byte, seq uint32) ([]byte, error) {
	return packDataCommand(OpMemData, block, seq)
}

// BuildMemEndCmd constructs a MEM_END command body.
// A non-zero entry makes the loader jump to that address; entry zero
// keeps it running in the bootloader.
//
// Data words:
//
//	[STAY_FLAG][ENTRY]
func BuildMemEndCmd(entry uint32) ([]byte, error) {
	stay := uint32(0)
	if entry == 0 {
		stay = 1
	}
	return packCommand(OpMemEnd, 0, appendWords(nil, stay, entry))
}

// BuildWriteRegCmd constructs a WRITE_REG command body.
// Writes (old & ^mask) | (value & mask) to the register at addr after
// waiting delayUs microseconds.
func BuildWriteRegCmd(addr, value, mask, delayUs uint32) ([]byte, error) {
	return packCommand(OpWriteReg, 0, appendWords(nil, addr, value, mask, delayUs))
}

// BuildReadRegCmd constructs a READ_REG command body.
// The register value comes back in the VALUE field of the response.
func BuildReadRegCmd(addr uint32) ([]byte, error) {
	return packCommand(OpReadReg, 0, appendWords(nil, addr))
}

// BuildSpiSetParamsCmd constructs a SPI_SET_PARAMS command body
// describing a flash chip of the given total size.
//
// Data words:
//
//	[ID][TOTAL_SIZE][BLOCK_SIZE][SECTOR_SIZE][PAGE_SIZE][STATUS_MASK]
func BuildSpiSetParamsCmd(size uint32) ([]byte, error) {
	return packCommand(OpSpiSetParams, 0, appendWords(nil,
		0, size, Flash64KBlockSize, FlashSectorSize, FlashPageSize, FlashStatusMask))
}

// BuildSpiAttachCmd constructs a SPI_ATTACH command body.
// pins selects the SPI pin configuration; zero means the chip default.
// The ROM loader expects a second, always-zero word after the pin
// configuration.
func BuildSpiAttachCmd(pins uint32) ([]byte, error) {
	return packCommand(OpSpiAttach, 0, appendWords(nil, pins, 0))
}

// BuildChangeBaudrateCmd constructs a CHANGE_BAUDRATE command body.
// oldRate must be zero when talking to the ROM loader.
func BuildChangeBaudrateCmd(newRate, oldRate uint32) ([]byte, error) {
	return packCommand(OpChangeBaudrate, 0, appendWords(nil, newRate, oldRate))
}

// BuildSpiFlashMD5Cmd constructs a SPI_FLASH_MD5 command body.
// The loader answers with the MD5 digest of size bytes of flash
// starting at offset.
//
// Data words:
//
//	[OFFSET][SIZE][RESERVED][RESERVED]
func BuildSpiFlashMD5Cmd(offset, size uint32) ([]byte, error) {
	return packCommand(OpSpiFlashMD5, 0, appendWords(nil, offset, size, 0, 0))
}

// BuildEraseFlashCmd constructs an ERASE_FLASH command body.
// Erases the entire flash chip; carries no data.
func BuildEraseFlashCmd() ([]byte, error) {
	return packCommand(OpEraseFlash, 0, nil)
}

// BuildEraseRegionCmd constructs an ERASE_REGION command body.
// Both offset and size must be multiples of FlashSectorSize.
func BuildEraseRegionCmd(offset, size uint32) ([]byte, error) {
	if offset%FlashSectorSize != 0 {
		return nil, fmt.Errorf("erase offset 0x%X is not a multiple of the sector size 0x%X", offset, FlashSectorSize)
	}
	if size%FlashSectorSize != 0 {
		return nil, fmt.Errorf("erase size 0x%X is not a multiple of the sector size 0x%X", size, FlashSectorSize)
	}
	return packCommand(OpEraseRegion, 0, appendWords(nil, offset, size))
}

// BuildReadFlashCmd constructs a READ_FLASH command body.
// The loader pushes size bytes starting at offset in blocks of
// blockSize, keeping at most maxInFlight blocks unacknowledged.
//
// Data words:
//
//	[OFFSET][SIZE][BLOCK_SIZE][MAX_IN_FLIGHT]
func BuildReadFlashCmd(offset, size, blockSize, maxInFlight uint32) ([]byte, error) {
	return packCommand(OpReadFlash, 0, appendWords(nil, offset, size, blockSize, maxInFlight))
}

// BuildRunUserCodeCmd constructs a RUN_USER_CODE command body.
// Exits the bootloader and boots the application; carries no data.
func BuildRunUserCodeCmd() ([]byte, error) {
	return packCommand(OpRunUserCode, 0, nil)
}
