package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"go.bug.st/serial"
)

// defaultBaud is the rate every connection starts at. The ROM loader
// measures the SYNC frame to lock its UART, and 115200 is the rate it
// locks reliably at on every family.
const defaultBaud = 115200

// defaultReadTimeout bounds a single serial read so a silent chip turns
// into a retryable error instead of a hang.
const defaultReadTimeout = 3 * time.Second

// longReadTimeout replaces the default for commands the ROM answers
// slowly: a whole-chip erase or a digest over a large region can take
// well over a minute to acknowledge.
const longReadTimeout = 2 * time.Minute

// serialDevice adapts a serial port to the flasher's device contract:
// reads time out instead of blocking forever, and the modem lines and
// host-side baud rate are reachable through the flasher's optional
// interfaces.
type serialDevice struct {
	port serial.Port
}

func openSerial(path string, baud int) (*serialDevice, error) {
	port, err := serial.Open(path, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := port.SetReadTimeout(defaultReadTimeout); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", path, err)
	}
	return &serialDevice{port: port}, nil
}

// Read maps an expired read timeout to os.ErrDeadlineExceeded. The
// library reports a timeout as a zero-byte read with a nil error, which
// io.Reader consumers treat as no progress rather than a failure.
func (d *serialDevice) Read(p []byte) (int, error) {
	n, err := d.port.Read(p)
	if n == 0 && err == nil {
		return 0, os.ErrDeadlineExceeded
	}
	return n, err
}

func (d *serialDevice) Write(p []byte) (int, error) { return d.port.Write(p) }

func (d *serialDevice) Close() error { return d.port.Close() }

func (d *serialDevice) SetDTR(level bool) error { return d.port.SetDTR(level) }

func (d *serialDevice) SetRTS(level bool) error { return d.port.SetRTS(level) }

// SetBaudrate switches the host side of the link.
func (d *serialDevice) SetBaudrate(rate int) error {
	return d.port.SetMode(&serial.Mode{BaudRate: rate})
}

func (d *serialDevice) setReadTimeout(t time.Duration) error {
	return d.port.SetReadTimeout(t)
}

// openDevice opens the configured port. A plain path opens a serial
// port; the tcp:host:port form dials a remote serial bridge. A bridge
// carries no modem lines, so resets must happen on the far side and the
// chip must already be in download mode.
func openDevice(port string, baud int) (io.ReadWriteCloser, error) {
	if strings.HasPrefix(port, "tcp:") {
		addr := strings.TrimPrefix(port, "tcp:")
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return conn, nil
	}
	return openSerial(port, baud)
}
