package flasher

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-espbin/espbin"
	"github.com/moffa90/go-espbin/protocol"
)

// LoadToRAM writes every segment of an application image into chip RAM
// and jumps to its entry point. Segment payloads stream straight from
// the image without copying.
//
// An image with entry point zero is loaded but not started; the loader
// keeps running. That is how second-stage loader stubs expecting
// further commands are deployed.
func (f *Flasher) LoadToRAM(ctx context.Context, img espbin.FirmwareImage) error {
	entry, err := img.Entry()
	if err != nil {
		return fmt.Errorf("read entry point: %w", err)
	}

	// First pass sizes the transfer for progress reporting
	total := 0
	pre := img.Segments()
	for pre.Scan() {
		total += len(pre.Segment().Data)
	}
	if err := pre.Err(); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if total == 0 {
		return fmt.Errorf("image has no loadable segments")
	}

	start := time.Now()
	written := 0
	segments := 0

	it := img.Segments()
	for it.Scan() {
		seg := it.Segment()
		if len(seg.Data) == 0 {
			continue
		}

		blocks := (len(seg.Data) + protocol.RAMBlockSize - 1) / protocol.RAMBlockSize

		f.logDebug("loading RAM segment",
			"addr", fmt.Sprintf("0x%08X", seg.Addr),
			"size", len(seg.Data),
			"blocks", blocks,
		)

		begin, err := protocol.BuildMemBeginCmd(uint32(len(seg.Data)), uint32(blocks), protocol.RAMBlockSize, seg.Addr)
		if err != nil {
			return err
		}
		if _, err := f.sendCommandWithResponse(ctx, begin); err != nil {
			return fmt.Errorf("start RAM segment at 0x%08X: %w", seg.Addr, err)
		}

		for seq := 0; seq < blocks; seq++ {
			lo := seq * protocol.RAMBlockSize
			hi := lo + protocol.RAMBlockSize
			if hi > len(seg.Data) {
				hi = len(seg.Data)
			}

			cmd, err := protocol.BuildMemDataCmd(seg.Data[lo:hi], uint32(seq))
			if err != nil {
				return err
			}
			if _, err := f.sendCommandWithResponse(ctx, cmd); err != nil {
				return fmt.Errorf("write RAM block %d at 0x%08X: %w", seq, seg.Addr, err)
			}

			written += hi - lo
			f.reportProgress(Progress{
				Phase:        PhaseLoading,
				CurrentBlock: seq + 1,
				TotalBlocks:  blocks,
				Percentage:   float64(written) / float64(total) * 100,
				BytesWritten: written,
				ElapsedTime:  time.Since(start),
			})
		}

		segments++
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("decode image: %w", err)
	}

	end, err := protocol.BuildMemEndCmd(entry)
	if err != nil {
		return err
	}
	if entry != 0 {
		// The chip jumps as soon as the command lands; the response is
		// often lost mid-flight
		if err := f.sendCommand(ctx, end); err != nil {
			return err
		}
	} else {
		if _, err := f.sendCommandWithResponse(ctx, end); err != nil {
			return fmt.Errorf("finish RAM load: %w", err)
		}
	}

	f.reportProgress(Progress{
		Phase:        PhaseComplete,
		Percentage:   100,
		BytesWritten: written,
		ElapsedTime:  time.Since(start),
	})

	f.logInfo("RAM load complete",
		"entry", fmt.Sprintf("0x%08X", entry),
		"segments", segments,
		"bytes", written,
		"elapsed", time.Since(start).String(),
	)

	return nil
}
