package flasher

import "time"

// Config holds the flasher configuration.
type Config struct {
	// ProgressCallback is called during transfers to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// CommandDelay is an extra pause after each command write, for
	// adapters that drop bytes when pushed back to back
	CommandDelay time.Duration

	// SyncRetries is the number of synchronization attempts on Connect
	SyncRetries int

	// SyncBackoffMin is the delay after the first failed sync attempt
	SyncBackoffMin time.Duration

	// SyncBackoffMax caps the delay between sync attempts
	SyncBackoffMax time.Duration

	// VerifyAfterFlash enables digest verification after each flash write
	VerifyAfterFlash bool

	// ResetOnConnect drives the auto-reset sequence on Connect when the
	// device exposes its modem lines
	ResetOnConnect bool

	// MaxInFlight is the number of unacknowledged blocks the loader may
	// push during a flash read
	MaxInFlight uint32
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		SyncRetries:      7,
		SyncBackoffMin:   100 * time.Millisecond,
		SyncBackoffMax:   2 * time.Second,
		VerifyAfterFlash: true,
		ResetOnConnect:   true,
		MaxInFlight:      64,
	}
}

// Option is a functional option for configuring the Flasher.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
//
// Example:
//
//	f := flasher.New(device,
//	    flasher.WithProgressCallback(func(p flasher.Progress) {
//	        fmt.Printf("%.1f%% complete\n", p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for flasher operations.
//
// Example:
//
//	f := flasher.New(device, flasher.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithCommandDelay adds a pause after each command write.
//
// Example:
//
//	f := flasher.New(device, flasher.WithCommandDelay(5*time.Millisecond))
func WithCommandDelay(delay time.Duration) Option {
	return func(c *Config) {
		if delay >= 0 {
			c.CommandDelay = delay
		}
	}
}

// WithSyncRetries sets the number of synchronization attempts on Connect.
//
// Example:
//
//	f := flasher.New(device, flasher.WithSyncRetries(10))
func WithSyncRetries(retries int) Option {
	return func(c *Config) {
		if retries > 0 {
			c.SyncRetries = retries
		}
	}
}

// WithSyncBackoff sets the delay bounds between sync attempts.
//
// Example:
//
//	f := flasher.New(device, flasher.WithSyncBackoff(50*time.Millisecond, time.Second))
func WithSyncBackoff(min, max time.Duration) Option {
	return func(c *Config) {
		if min > 0 && max >= min {
			c.SyncBackoffMin = min
			c.SyncBackoffMax = max
		}
	}
}

// WithVerifyAfterFlash enables or disables digest verification after
// each flash write. Default is true.
//
// Example:
//
//	f := flasher.New(device, flasher.WithVerifyAfterFlash(false))
func WithVerifyAfterFlash(verify bool) Option {
	return func(c *Config) {
		c.VerifyAfterFlash = verify
	}
}

// WithResetOnConnect enables or disables the auto-reset sequence on
// Connect. Default is true; disable it for boards without the reset
// circuit, and put the chip into download mode by hand.
//
// Example:
//
//	f := flasher.New(device, flasher.WithResetOnConnect(false))
func WithResetOnConnect(reset bool) Option {
	return func(c *Config) {
		c.ResetOnConnect = reset
	}
}

// WithMaxInFlight sets how many unacknowledged blocks the loader may
// push during a flash read. Default is 64.
//
// Example:
//
//	f := flasher.New(device, flasher.WithMaxInFlight(16))
func WithMaxInFlight(blocks uint32) Option {
	return func(c *Config) {
		if blocks > 0 {
			c.MaxInFlight = blocks
		}
	}
}
