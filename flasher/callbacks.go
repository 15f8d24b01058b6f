package flasher

import "time"

// Progress phases reported to ProgressCallback.
const (
	// PhaseConnecting covers reset and synchronization
	PhaseConnecting = "connecting"

	// PhaseWriting covers flash block transfers
	PhaseWriting = "writing"

	// PhaseLoading covers RAM block transfers
	PhaseLoading = "loading"

	// PhaseVerifying covers digest verification after a write
	PhaseVerifying = "verifying"

	// PhaseReading covers flash readback transfers
	PhaseReading = "reading"

	// PhaseComplete marks a finished operation
	PhaseComplete = "complete"
)

// Progress contains information about a running flash operation.
// Passed to ProgressCallback during transfers.
type Progress struct {
	// Phase is one of the Phase* constants
	Phase string

	// CurrentBlock is the number of blocks transferred so far
	CurrentBlock int

	// TotalBlocks is the total number of blocks in this operation
	TotalBlocks int

	// Percentage is the completion percentage (0.0 to 100.0)
	Percentage float64

	// BytesWritten is the total number of bytes transferred so far
	BytesWritten int

	// ElapsedTime is the time elapsed since the operation started
	ElapsedTime time.Duration
}

// ProgressCallback is called periodically during transfers to report
// progress. Implementations should return quickly to avoid stalling
// the serial link.
//
// Example:
//
//	f := flasher.New(device,
//	    flasher.WithProgressCallback(func(p flasher.Progress) {
//	        fmt.Printf("[%s] %.1f%% - block %d/%d\n",
//	            p.Phase, p.Percentage, p.CurrentBlock, p.TotalBlocks)
//	    }),
//	)
type ProgressCallback func(Progress)

// Logger is an optional logging interface that can be provided to the
// flasher. This allows integration with any logging framework.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	f := flasher.New(device, flasher.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
