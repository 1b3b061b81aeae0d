// Package logging bridges logrus into the small interface the rest of the
// server depends on, so components never import logrus directly.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ostep-projects/wsrv/pkg/diagnostics"
)

// Logger is the logging surface consumed throughout the server.
type Logger interface {
	logrus.FieldLogger
	// Writer returns an io.Writer that funnels lines through this logger at
	// Info level. Closing it ends the pipe.
	Writer() *io.PipeWriter
}

// New creates a root Logger writing to standard error through a
// SerializedWriter, so that diagnostic lines from different workers are
// never interleaved (spec.md §5) even though logrus itself only ever calls
// Write with one fully-formatted line at a time.
func New() Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(diagnostics.NewSerializedWriter(os.Stderr))
	return log
}

// Discard creates a Logger that drops all output, for use in tests.
func Discard() Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
