package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/moffa90/go-espbin/flasher"
)

// defaultFlashSize is the flash capacity assumed when the config does
// not say otherwise. 4 MB is the smallest part shipped on common
// development boards; writes beyond the real capacity fail on-chip.
const defaultFlashSize = 0x400000

// deviceFlags are the flags every device command shares.
type deviceFlags struct {
	port    *string
	baud    *int
	cfgPath *string
	retries *int
	noReset *bool
	verbose *bool
}

func addDeviceFlags(fs *flag.FlagSet) *deviceFlags {
	return &deviceFlags{
		port:    fs.String("port", "", "serial device path or tcp:host:port"),
		baud:    fs.Int("baud", 0, "transfer baud rate (default from config, then 115200)"),
		cfgPath: fs.String("config", defaultConfigPath, "config file path"),
		retries: fs.Int("retries", 0, "synchronization attempts (default from config, then 7)"),
		noReset: fs.Bool("no-reset", false, "skip the DTR/RTS bootloader reset"),
		verbose: fs.Bool("verbose", false, "log protocol traffic"),
	}
}

// resolveConnection loads the config file and applies flag overrides on
// top of it.
func resolveConnection(df *deviceFlags) (Config, error) {
	cfg, _, err := loadConfig(*df.cfgPath)
	if err != nil {
		return Config{}, err
	}
	if *df.port != "" {
		cfg.Connection.Port = *df.port
	}
	if *df.baud > 0 {
		cfg.Connection.Baud = *df.baud
	}
	if *df.retries > 0 {
		cfg.Connection.Retries = *df.retries
	}
	if *df.noReset {
		cfg.Connection.NoReset = true
	}
	if cfg.Connection.Port == "" {
		return Config{}, fmt.Errorf("no port configured: pass --port or set connection.port in %s", *df.cfgPath)
	}
	return cfg, nil
}

// session is an open, synchronized link to a chip's serial loader.
type session struct {
	cfg    Config
	device io.ReadWriteCloser
	fl     *flasher.Flasher
	chip   *flasher.Chip
	log    *logrus.Logger
}

// openSession opens the configured device and brings the chip into its
// loader: reset, sync, chip detection, then the baud switch when a
// faster transfer rate is configured. Extra options are applied last so
// commands can override what the config chose.
func openSession(ctx context.Context, df *deviceFlags, stderr io.Writer, extra ...flasher.Option) (*session, error) {
	cfg, err := resolveConnection(df)
	if err != nil {
		return nil, err
	}

	log := newLogger(stderr, *df.verbose)

	device, err := openDevice(cfg.Connection.Port, defaultBaud)
	if err != nil {
		return nil, err
	}

	opts := []flasher.Option{
		flasher.WithLogger(&flasherLogger{log: log}),
		flasher.WithProgressCallback(newProgressPrinter(stderr)),
		flasher.WithSyncRetries(cfg.Connection.Retries),
		flasher.WithResetOnConnect(!cfg.Connection.NoReset),
		flasher.WithVerifyAfterFlash(cfg.Flash.Verify),
	}
	opts = append(opts, extra...)

	s := &session{cfg: cfg, device: device, log: log}
	s.fl = flasher.New(device, opts...)

	chip, err := s.fl.Connect(ctx)
	if err != nil {
		_ = device.Close()
		return nil, err
	}
	s.chip = chip
	log.WithField("chip", chip.Name).Info("connected")

	if want := cfg.Connection.Chip; want != "" && chipByName(want) != chip {
		_ = device.Close()
		return nil, fmt.Errorf("connected to %s but config expects %s", chip, want)
	}

	if cfg.Connection.Baud != defaultBaud {
		if _, ok := device.(flasher.BaudSetter); ok {
			if err := s.fl.ChangeBaud(ctx, cfg.Connection.Baud); err != nil {
				_ = device.Close()
				return nil, err
			}
		} else {
			log.Warn("port cannot switch baud rates; staying at 115200")
		}
	}

	return s, nil
}

// attachFlash brings the SPI flash online once per session. The
// ESP8266 ROM keeps its flash attached from boot and has no attach
// command.
func (s *session) attachFlash(ctx context.Context) error {
	if s.chip == flasher.ESP8266 {
		return nil
	}
	return s.fl.AttachFlash(ctx, s.cfg.Flash.Size)
}

func (s *session) Close() error {
	return s.device.Close()
}
