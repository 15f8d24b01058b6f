package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/moffa90/go-espbin/flasher"
)

// cmdMonitor echoes whatever the chip prints on its console UART. It
// opens the port at the configured baud rate directly; the chip runs
// its own firmware here, not the serial loader.
func cmdMonitor(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	df := addDeviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := resolveConnection(df)
	if err != nil {
		fmt.Fprintln(stderr, "monitor:", err)
		return 1
	}

	device, err := openDevice(cfg.Connection.Port, cfg.Connection.Baud)
	if err != nil {
		fmt.Fprintln(stderr, "monitor:", err)
		return 1
	}
	defer device.Close()

	// Restart the firmware first so the boot banner shows up.
	if !cfg.Connection.NoReset {
		if rc, ok := device.(flasher.ResetController); ok {
			if err := flasher.HardReset(rc); err != nil {
				fmt.Fprintln(stderr, "monitor: reset failed:", err)
				return 1
			}
		}
	}

	fmt.Fprintf(stderr, "Monitoring %s at %d baud. Ctrl-C to exit.\n",
		cfg.Connection.Port, cfg.Connection.Baud)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Closing the device unblocks a pending read when the context
	// fires; serial reads also wake up on their own timeout.
	go func() {
		<-ctx.Done()
		_ = device.Close()
	}()

	buf := make([]byte, 4096)
	for {
		n, err := device.Read(buf)
		if n > 0 {
			stdout.Write(buf[:n])
		}
		if err != nil {
			if ctx.Err() != nil {
				fmt.Fprintln(stderr)
				return 0
			}
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			fmt.Fprintln(stderr, "monitor: connection lost:", err)
			fmt.Fprintln(stderr, "replug the board and run monitor again")
			return 1
		}
	}
}

func cmdReset(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	fs.SetOutput(stderr)
	df := addDeviceFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := resolveConnection(df)
	if err != nil {
		fmt.Fprintln(stderr, "reset:", err)
		return 1
	}

	device, err := openDevice(cfg.Connection.Port, cfg.Connection.Baud)
	if err != nil {
		fmt.Fprintln(stderr, "reset:", err)
		return 1
	}
	defer device.Close()

	rc, ok := device.(flasher.ResetController)
	if !ok {
		fmt.Fprintln(stderr, "reset needs a local serial port with DTR/RTS control")
		return 1
	}
	if err := flasher.HardReset(rc); err != nil {
		fmt.Fprintln(stderr, "reset:", err)
		return 1
	}

	fmt.Fprintln(stdout, "Chip reset")
	return 0
}
