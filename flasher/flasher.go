package flasher

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jpillora/backoff"
	"github.com/moffa90/go-espbin/protocol"
)

// maxFrameSkips bounds how many stray frames a response read discards
// before giving up. Boot noise and leftover sync replies land here.
const maxFrameSkips = 64

// Flasher drives the serial bootloader of an ESP-family chip.
// It synchronizes the link, detects the chip, and runs flash, RAM and
// register operations over it.
//
// Flasher is not safe for concurrent use; the serial link is a single
// conversation.
type Flasher struct {
	device  io.ReadWriter
	config  Config
	scanner *bufio.Scanner
	chip    *Chip
}

// New creates a new Flasher with the given device and options.
// The device must implement io.ReadWriter; read timeouts are the
// device's responsibility.
//
// Example:
//
//	port, _ := serial.Open("/dev/ttyUSB0", mode)
//	f := flasher.New(port,
//	    flasher.WithProgressCallback(progressFunc),
//	    flasher.WithLogger(myLogger),
//	)
func New(device io.ReadWriter, opts ...Option) *Flasher {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	f := &Flasher{
		device: device,
		config: cfg,
	}
	f.resetScanner()
	return f
}

// Chip returns the detected chip profile, or nil before Connect.
func (f *Flasher) Chip() *Chip {
	return f.chip
}

// Connect resets the chip into its bootloader, synchronizes the serial
// link and detects the chip family.
//
// When the device implements ResetController and ResetOnConnect is
// enabled, the DTR/RTS auto-reset sequence runs first. Synchronization
// is retried with exponential backoff; a chip that stays silent
// produces a *SyncError.
func (f *Flasher) Connect(ctx context.Context) (*Chip, error) {
	if rc, ok := f.device.(ResetController); ok && f.config.ResetOnConnect {
		f.logDebug("resetting into bootloader")
		if err := ResetToBootloader(rc); err != nil {
			return nil, fmt.Errorf("reset into bootloader: %w", err)
		}
	}

	f.reportProgress(Progress{Phase: PhaseConnecting})

	retry := &backoff.Backoff{
		Min:    f.config.SyncBackoffMin,
		Max:    f.config.SyncBackoffMax,
		Factor: 2,
	}

	var lastErr error
	for attempt := 1; attempt <= f.config.SyncRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("cancelled: %w", err)
		}

		if err := f.sync(ctx); err != nil {
			lastErr = err
			f.logDebug("sync attempt failed", "attempt", attempt, "error", err.Error())
			// The scanner may have consumed a broken stream; start over
			f.resetScanner()
			time.Sleep(retry.Duration())
			continue
		}

		chip, err := f.DetectChip(ctx)
		if err != nil {
			return nil, err
		}

		f.logInfo("connected", "chip", chip.Name)
		return chip, nil
	}

	return nil, &SyncError{Attempts: f.config.SyncRetries, Err: lastErr}
}

// DetectChip reads the magic register and matches it against the known
// chip profiles. The profile is remembered for later operations.
func (f *Flasher) DetectChip(ctx context.Context) (*Chip, error) {
	magic, err := f.ReadRegister(ctx, ChipMagicAddr)
	if err != nil {
		return nil, fmt.Errorf("read chip magic: %w", err)
	}

	chip := chipByMagic(magic)
	if chip == nil {
		return nil, &UnsupportedChipError{Magic: magic}
	}

	f.chip = chip
	f.logDebug("detected chip", "chip", chip.Name, "magic", fmt.Sprintf("0x%08X", magic))
	return chip, nil
}

// ReadRegister reads a 32-bit chip register.
func (f *Flasher) ReadRegister(ctx context.Context, addr uint32) (uint32, error) {
	body, err := protocol.BuildReadRegCmd(addr)
	if err != nil {
		return 0, err
	}

	resp, err := f.sendCommandWithResponse(ctx, body)
	if err != nil {
		return 0, err
	}

	return resp.Value, nil
}

// WriteRegister writes a 32-bit chip register.
func (f *Flasher) WriteRegister(ctx context.Context, addr, value uint32) error {
	body, err := protocol.BuildWriteRegCmd(addr, value, 0xFFFFFFFF, 0)
	if err != nil {
		return err
	}

	_, err = f.sendCommandWithResponse(ctx, body)
	return err
}

// ChangeBaud switches the serial link to a new rate, chip side first.
// When the device implements BaudSetter the host side follows; the
// receive buffer is discarded because the switch shreds in-flight bits.
func (f *Flasher) ChangeBaud(ctx context.Context, rate int) error {
	body, err := protocol.BuildChangeBaudrateCmd(uint32(rate), 0)
	if err != nil {
		return err
	}

	if _, err := f.sendCommandWithResponse(ctx, body); err != nil {
		return err
	}

	if bs, ok := f.device.(BaudSetter); ok {
		if err := bs.SetBaudrate(rate); err != nil {
			return fmt.Errorf("set host baud rate: %w", err)
		}
	}

	time.Sleep(50 * time.Millisecond)
	f.resetScanner()

	f.logInfo("baud rate changed", "rate", rate)
	return nil
}

// AttachFlash attaches the SPI flash chip and reports its size to the
// loader. Required once per session before flash operations on
// ESP32-family ROMs; size is the flash capacity in bytes.
func (f *Flasher) AttachFlash(ctx context.Context, size uint32) error {
	attach, err := protocol.BuildSpiAttachCmd(0)
	if err != nil {
		return err
	}
	if _, err := f.sendCommandWithResponse(ctx, attach); err != nil {
		return fmt.Errorf("attach flash: %w", err)
	}

	params, err := protocol.BuildSpiSetParamsCmd(size)
	if err != nil {
		return err
	}
	if _, err := f.sendCommandWithResponse(ctx, params); err != nil {
		return fmt.Errorf("set flash parameters: %w", err)
	}

	f.logDebug("flash attached", "size", size)
	return nil
}

// RunUserCode asks the loader to exit and boot the application.
// The loader jumps immediately and never answers.
func (f *Flasher) RunUserCode(ctx context.Context) error {
	body, err := protocol.BuildRunUserCodeCmd()
	if err != nil {
		return err
	}

	f.logInfo("booting user code")
	return f.sendCommand(ctx, body)
}

// sync sends the synchronization pattern and waits for the loader to
// acknowledge it. The ROM answers a successful sync several times;
// the extras are skipped by the next response read.
func (f *Flasher) sync(ctx context.Context) error {
	body, err := protocol.BuildSyncCmd()
	if err != nil {
		return err
	}

	_, err = f.sendCommandWithResponse(ctx, body)
	return err
}

// sendCommand writes a framed command and expects no response.
func (f *Flasher) sendCommand(ctx context.Context, body []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("cancelled: %w", err)
	}

	if _, err := f.device.Write(protocol.EncodeFrame(body)); err != nil {
		return fmt.Errorf("write command: %w", err)
	}

	if f.config.CommandDelay > 0 {
		time.Sleep(f.config.CommandDelay)
	}

	return nil
}

// sendCommandWithResponse writes a framed command and waits for the
// matching response. A failure status from the loader surfaces as a
// *protocol.ProtocolError.
func (f *Flasher) sendCommandWithResponse(ctx context.Context, body []byte) (*protocol.Response, error) {
	if err := f.sendCommand(ctx, body); err != nil {
		return nil, err
	}

	resp, err := f.readResponse(body[1])
	if err != nil {
		return nil, err
	}

	if err := resp.Err(); err != nil {
		return nil, err
	}

	return resp, nil
}

// readResponse scans frames until one parses as a response to op.
// Frames that fail to parse or answer a different opcode are dropped.
func (f *Flasher) readResponse(op byte) (*protocol.Response, error) {
	for i := 0; i < maxFrameSkips; i++ {
		if !f.scanner.Scan() {
			if err := f.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read %s response: %w", protocol.OpName(op), err)
			}
			return nil, fmt.Errorf("connection closed waiting for %s response", protocol.OpName(op))
		}

		body := f.scanner.Bytes()
		resp, err := protocol.ParseResponse(body, f.statusLen(len(body)))
		if err != nil {
			f.logDebug("discarding frame", "error", err.Error())
			continue
		}
		if resp.Op != op {
			f.logDebug("discarding out-of-order response", "op", protocol.OpName(resp.Op))
			continue
		}

		// The scanner reuses its buffer on the next Scan
		resp.Data = append([]byte(nil), resp.Data...)
		return resp, nil
	}

	return nil, fmt.Errorf("no %s response after %d frames", protocol.OpName(op), maxFrameSkips)
}

// statusLen returns the status trailer length for a response body.
// Before chip detection the length is inferred from the payload size:
// simple commands carry nothing but the status block.
func (f *Flasher) statusLen(bodyLen int) int {
	if f.chip != nil {
		return f.chip.StatusLen
	}

	payload := bodyLen - protocol.ResponseHeaderSize
	if payload == protocol.StatusSizeBasic || payload == protocol.StatusSizeExtended {
		return payload
	}
	return protocol.StatusSizeExtended
}

// resetScanner abandons the current frame stream and starts a new one.
func (f *Flasher) resetScanner() {
	f.scanner = bufio.NewScanner(f.device)
	f.scanner.Buffer(make([]byte, protocol.MaxFrameSize), protocol.MaxFrameSize)
	f.scanner.Split(protocol.ScanFrames)
}

// reportProgress calls the progress callback if configured.
func (f *Flasher) reportProgress(progress Progress) {
	if f.config.ProgressCallback != nil {
		f.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (f *Flasher) logDebug(msg string, keysAndValues ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (f *Flasher) logInfo(msg string, keysAndValues ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (f *Flasher) logError(msg string, keysAndValues ...interface{}) {
	if f.config.Logger != nil {
		f.config.Logger.Error(msg, keysAndValues...)
	}
}
