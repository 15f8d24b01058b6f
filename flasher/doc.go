// Package flasher provides a high-level API for talking to the serial
// bootloader of ESP-family chips.
//
// # Overview
//
// This package orchestrates the full flashing workflow:
//   - Resetting the chip into its serial bootloader
//   - Synchronizing the link and detecting the chip family
//   - Writing flash, plain or zlib-compressed, with digest verification
//   - Loading code into RAM and jumping to it
//   - Erasing and reading back flash regions
//
// # Basic Usage
//
// The simplest way to flash an image:
//
//	// User provides the serial link (io.ReadWriter)
//	port, err := serial.Open("/dev/ttyUSB0", &serial.Mode{BaudRate: 115200})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	f := flasher.New(port)
//
//	chip, err := f.Connect(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println("connected to", chip)
//
//	// ESP32-family ROMs need the flash attached once per session
//	if err := f.AttachFlash(ctx, 4*1024*1024); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := f.WriteFlash(ctx, 0x10000, appImage); err != nil {
//	    log.Fatal(err)
//	}
//
//	f.HardReset()
//
// # Progress Tracking
//
// Track transfers with a callback:
//
//	f := flasher.New(port,
//	    flasher.WithProgressCallback(func(p flasher.Progress) {
//	        fmt.Printf("[%s] %.1f%% - block %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentBlock, p.TotalBlocks)
//	    }),
//	)
//
// # Configuration Options
//
// Customize behavior with functional options:
//
//	f := flasher.New(port,
//	    flasher.WithProgressCallback(progressFunc),
//	    flasher.WithLogger(myLogger),
//	    flasher.WithSyncRetries(10),
//	    flasher.WithVerifyAfterFlash(true),
//	    flasher.WithResetOnConnect(false),
//	)
//
// # Context Support
//
// All operations take a context and stop between commands when it is
// cancelled. A read that is already blocking on the device is not
// interrupted; bound it with the device's own read timeout.
//
// # Error Handling
//
// The package provides structured error types:
//   - SyncError: the chip never answered the synchronization sequence
//   - UnsupportedChipError: unknown magic register value
//   - DigestMismatchError: flash contents differ from the data written
//   - protocol.ProtocolError: the loader returned a failure status
//
// # Hardware Independence
//
// This package does NOT open serial ports. Any io.ReadWriter works:
// a serial port, a network bridge, or an in-memory mock for testing.
// Two optional capabilities unlock extra features when the device
// implements them:
//   - ResetController (DTR/RTS lines): automatic reset into the
//     bootloader and HardReset
//   - BaudSetter: host-side rate switching for ChangeBaud
package flasher
