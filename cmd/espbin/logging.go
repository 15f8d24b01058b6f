package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// newLogger builds the CLI logger. Diagnostics go to stderr so command
// output on stdout stays machine-readable.
func newLogger(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// flasherLogger adapts logrus to the flasher's logging interface.
type flasherLogger struct {
	log *logrus.Logger
}

func (l *flasherLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(logFields(keysAndValues)).Debug(msg)
}

func (l *flasherLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(logFields(keysAndValues)).Info(msg)
}

func (l *flasherLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.WithFields(logFields(keysAndValues)).Error(msg)
}

// logFields pairs up a key-value list. A trailing key without a value
// is dropped; non-string keys are stringified.
func logFields(keysAndValues []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
