package flasher

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/moffa90/go-espbin/protocol"
)

// WriteFlash writes data to flash at offset. The region is erased,
// transferred in FlashBlockSize blocks padded with 0xFF, and verified
// against its MD5 digest unless verification is disabled.
func (f *Flasher) WriteFlash(ctx context.Context, offset uint32, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("flash data cannot be empty")
	}
	chip := f.chip
	if chip == nil {
		return ErrNotConnected
	}

	start := time.Now()
	padded := padToBlock(data, protocol.FlashBlockSize)
	blocks := len(padded) / protocol.FlashBlockSize

	eraseSize := uint32(len(padded))
	if chip.EraseQuirk {
		eraseSize = eraseSizeForRegion(offset, uint32(len(padded)))
	}

	f.logDebug("starting flash write",
		"offset", fmt.Sprintf("0x%X", offset),
		"size", len(data),
		"blocks", blocks,
	)

	begin, err := protocol.BuildFlashBeginCmd(eraseSize, uint32(blocks), protocol.FlashBlockSize, offset, chip.SupportsEncryption)
	if err != nil {
		return err
	}
	if _, err := f.sendCommandWithResponse(ctx, begin); err != nil {
		return fmt.Errorf("start flash session: %w", err)
	}

	written := 0
	for seq := 0; seq < blocks; seq++ {
		block := padded[seq*protocol.FlashBlockSize : (seq+1)*protocol.FlashBlockSize]
		cmd, err := protocol.BuildFlashDataCmd(block, uint32(seq))
		if err != nil {
			return err
		}
		if _, err := f.sendCommandWithResponse(ctx, cmd); err != nil {
			return fmt.Errorf("write block %d of %d: %w", seq+1, blocks, err)
		}

		written += len(block)
		f.reportProgress(Progress{
			Phase:        PhaseWriting,
			CurrentBlock: seq + 1,
			TotalBlocks:  blocks,
			Percentage:   float64(seq+1) / float64(blocks) * 100,
			BytesWritten: written,
			ElapsedTime:  time.Since(start),
		})
	}

	end, err := protocol.BuildFlashEndCmd(false)
	if err != nil {
		return err
	}
	if _, err := f.sendCommandWithResponse(ctx, end); err != nil {
		return fmt.Errorf("finish flash session: %w", err)
	}

	if f.config.VerifyAfterFlash {
		f.reportProgress(Progress{
			Phase:       PhaseVerifying,
			TotalBlocks: blocks,
			Percentage:  100,
			ElapsedTime: time.Since(start),
		})
		if err := f.VerifyFlash(ctx, offset, data); err != nil {
			return err
		}
	}

	f.reportProgress(Progress{
		Phase:        PhaseComplete,
		CurrentBlock: blocks,
		TotalBlocks:  blocks,
		Percentage:   100,
		BytesWritten: written,
		ElapsedTime:  time.Since(start),
	})

	f.logInfo("flash write complete",
		"offset", fmt.Sprintf("0x%X", offset),
		"bytes", len(data),
		"elapsed", time.Since(start).String(),
	)

	return nil
}

// WriteFlashCompressed writes data to flash at offset using the
// compressed transfer commands. The payload crosses the wire as a zlib
// stream that the loader inflates; on slow links this cuts transfer
// time considerably.
func (f *Flasher) WriteFlashCompressed(ctx context.Context, offset uint32, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("flash data cannot be empty")
	}
	chip := f.chip
	if chip == nil {
		return ErrNotConnected
	}
	if !chip.SupportsCompression {
		return fmt.Errorf("%s loader does not support compressed flashing", chip.Name)
	}

	start := time.Now()

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return err
	}
	if _, err := zw.Write(data); err != nil {
		zw.Close()
		return fmt.Errorf("compress flash data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress flash data: %w", err)
	}

	compressed := buf.Bytes()
	blocks := (len(compressed) + protocol.FlashBlockSize - 1) / protocol.FlashBlockSize

	f.logDebug("starting compressed flash write",
		"offset", fmt.Sprintf("0x%X", offset),
		"size", len(data),
		"compressed", len(compressed),
		"blocks", blocks,
	)

	begin, err := protocol.BuildFlashDeflBeginCmd(uint32(len(data)), uint32(blocks), protocol.FlashBlockSize, offset, chip.SupportsEncryption)
	if err != nil {
		return err
	}
	if _, err := f.sendCommandWithResponse(ctx, begin); err != nil {
		return fmt.Errorf("start flash session: %w", err)
	}

	written := 0
	for seq := 0; seq < blocks; seq++ {
		lo := seq * protocol.FlashBlockSize
		hi := lo + protocol.FlashBlockSize
		if hi > len(compressed) {
			hi = len(compressed)
		}

		cmd, err := protocol.BuildFlashDeflDataCmd(compressed[lo:hi], uint32(seq))
		if err != nil {
			return err
		}
		if _, err := f.sendCommandWithResponse(ctx, cmd); err != nil {
			return fmt.Errorf("write block %d of %d: %w", seq+1, blocks, err)
		}

		written += hi - lo
		f.reportProgress(Progress{
			Phase:        PhaseWriting,
			CurrentBlock: seq + 1,
			TotalBlocks:  blocks,
			Percentage:   float64(seq+1) / float64(blocks) * 100,
			BytesWritten: written,
			ElapsedTime:  time.Since(start),
		})
	}

	end, err := protocol.BuildFlashDeflEndCmd(false)
	if err != nil {
		return err
	}
	if _, err := f.sendCommandWithResponse(ctx, end); err != nil {
		return fmt.Errorf("finish flash session: %w", err)
	}

	if f.config.VerifyAfterFlash {
		f.reportProgress(Progress{
			Phase:       PhaseVerifying,
			TotalBlocks: blocks,
			Percentage:  100,
			ElapsedTime: time.Since(start),
		})
		if err := f.VerifyFlash(ctx, offset, data); err != nil {
			return err
		}
	}

	f.logInfo("flash write complete",
		"offset", fmt.Sprintf("0x%X", offset),
		"bytes", len(data),
		"compressed", len(compressed),
		"elapsed", time.Since(start).String(),
	)

	return nil
}

// FlashDigest asks the loader for the MD5 digest of size bytes of
// flash starting at offset.
func (f *Flasher) FlashDigest(ctx context.Context, offset, size uint32) ([md5.Size]byte, error) {
	var digest [md5.Size]byte

	body, err := protocol.BuildSpiFlashMD5Cmd(offset, size)
	if err != nil {
		return digest, err
	}

	resp, err := f.sendCommandWithResponse(ctx, body)
	if err != nil {
		return digest, err
	}

	return protocol.ParseFlashMD5Response(resp.Data)
}

// VerifyFlash checks that the flash region at offset matches data,
// comparing MD5 digests. Padding bytes are not part of the check.
func (f *Flasher) VerifyFlash(ctx context.Context, offset uint32, data []byte) error {
	expected := md5.Sum(data)

	actual, err := f.FlashDigest(ctx, offset, uint32(len(data)))
	if err != nil {
		return fmt.Errorf("read flash digest: %w", err)
	}

	if actual != expected {
		f.logError("flash verification failed",
			"offset", fmt.Sprintf("0x%X", offset),
			"size", len(data),
		)
		return &DigestMismatchError{
			Offset:   offset,
			Size:     uint32(len(data)),
			Expected: expected,
			Actual:   actual,
		}
	}

	f.logDebug("flash digest verified", "offset", fmt.Sprintf("0x%X", offset), "size", len(data))
	return nil
}

// EraseFlash erases the entire flash chip. This can take tens of
// seconds on large chips; the device's read timeout must cover it.
func (f *Flasher) EraseFlash(ctx context.Context) error {
	body, err := protocol.BuildEraseFlashCmd()
	if err != nil {
		return err
	}

	if _, err := f.sendCommandWithResponse(ctx, body); err != nil {
		return err
	}

	f.logInfo("flash erased")
	return nil
}

// EraseRegion erases size bytes of flash starting at offset. Both must
// be multiples of the sector size.
func (f *Flasher) EraseRegion(ctx context.Context, offset, size uint32) error {
	body, err := protocol.BuildEraseRegionCmd(offset, size)
	if err != nil {
		return err
	}

	if _, err := f.sendCommandWithResponse(ctx, body); err != nil {
		return err
	}

	f.logInfo("flash region erased", "offset", fmt.Sprintf("0x%X", offset), "size", size)
	return nil
}

// ReadFlash streams size bytes of flash starting at offset into w.
// The loader pushes sector-sized frames which are acknowledged with a
// running byte count; the final frame carries an MD5 digest that is
// checked against the received data.
func (f *Flasher) ReadFlash(ctx context.Context, offset, size uint32, w io.Writer) error {
	if size == 0 {
		return fmt.Errorf("read size cannot be zero")
	}

	start := time.Now()

	body, err := protocol.BuildReadFlashCmd(offset, size, protocol.FlashSectorSize, f.config.MaxInFlight)
	if err != nil {
		return err
	}
	if _, err := f.sendCommandWithResponse(ctx, body); err != nil {
		return fmt.Errorf("start flash read: %w", err)
	}

	hash := md5.New()
	received := uint32(0)
	for received < size {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		block, err := f.readRawFrame()
		if err != nil {
			return fmt.Errorf("read flash data: %w", err)
		}
		if received+uint32(len(block)) > size {
			return fmt.Errorf("flash read overrun: loader pushed %d bytes, expected %d", received+uint32(len(block)), size)
		}

		if _, err := w.Write(block); err != nil {
			return fmt.Errorf("write flash contents: %w", err)
		}
		hash.Write(block)
		received += uint32(len(block))

		ack := binary.LittleEndian.AppendUint32(nil, received)
		if _, err := f.device.Write(protocol.EncodeFrame(ack)); err != nil {
			return fmt.Errorf("acknowledge flash data: %w", err)
		}

		f.reportProgress(Progress{
			Phase:        PhaseReading,
			Percentage:   float64(received) / float64(size) * 100,
			BytesWritten: int(received),
			ElapsedTime:  time.Since(start),
		})
	}

	frame, err := f.readRawFrame()
	if err != nil {
		return fmt.Errorf("read flash digest: %w", err)
	}
	if len(frame) != md5.Size {
		return fmt.Errorf("invalid digest frame: got %d bytes, expected %d", len(frame), md5.Size)
	}

	var expected, actual [md5.Size]byte
	copy(expected[:], frame)
	hash.Sum(actual[:0])
	if actual != expected {
		return &DigestMismatchError{
			Offset:   offset,
			Size:     size,
			Expected: expected,
			Actual:   actual,
		}
	}

	f.logInfo("flash read complete",
		"offset", fmt.Sprintf("0x%X", offset),
		"bytes", received,
		"elapsed", time.Since(start).String(),
	)

	return nil
}

// readRawFrame returns the next frame body without response parsing.
// Flash reads push raw data frames that carry no packet header.
func (f *Flasher) readRawFrame() ([]byte, error) {
	if !f.scanner.Scan() {
		if err := f.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.ErrUnexpectedEOF
	}
	return f.scanner.Bytes(), nil
}

// padToBlock pads data to a multiple of blockSize with 0xFF, the
// erased state of flash.
func padToBlock(data []byte, blockSize int) []byte {
	rem := len(data) % blockSize
	if rem == 0 {
		return data
	}

	padded := make([]byte, len(data), len(data)+blockSize-rem)
	copy(padded, data)
	for i := 0; i < blockSize-rem; i++ {
		padded = append(padded, 0xFF)
	}
	return padded
}

// eraseSizeForRegion works around the ESP8266 ROM sector accounting
// bug: the loader erases blocks counted from the start of flash, not
// the start of the region, so the naive size over-erases. This mirrors
// the correction every flashing tool applies.
func eraseSizeForRegion(offset, size uint32) uint32 {
	const sectorsPerBlock = protocol.Flash64KBlockSize / protocol.FlashSectorSize

	sectors := (size + protocol.FlashSectorSize - 1) / protocol.FlashSectorSize
	startSector := offset / protocol.FlashSectorSize

	headSectors := uint32(sectorsPerBlock) - startSector%sectorsPerBlock
	if sectors < headSectors {
		headSectors = sectors
	}

	if sectors < 2*headSectors {
		return (sectors + 1) / 2 * protocol.FlashSectorSize
	}
	return (sectors - headSectors) * protocol.FlashSectorSize
}
