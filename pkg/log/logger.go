// Custom logging utility used internally all over the command centre.

package log

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Key under which the correlation id lives in a request's context.
const CorrelationKey = "correlation_id"

// Output of Logger based on what environment the service is being run on.
var output io.Writer

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if os.Getenv("ENV") == "DEV" {
		// Set output of Logger to prettified ConsoleOutput for local environment
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	} else {
		// ConsoleWriter prettifies log, inefficient in prod
		output = os.Stdout
	}
}

// Logger acts as a wrapper for zerolog with custom features.
type Logger interface {
	// WithCtx returns a sub-logger based of root logger with added context.
	WithCtx(context.Context) Logger
	// With returns a sub-logger carrying an extra string field.
	With(key, value string) Logger
	// Info level log starts a log message with INFO level.
	Info() *zerolog.Event
	// Debug level log starts a log message with DEBUG level.
	Debug() *zerolog.Event
	// Warn level log starts a log message with WARNING level.
	Warn() *zerolog.Event
	// Error level log starts a log message with ERROR level.
	Error() *zerolog.Event
	// Fatal level log starts a log message with FATAL level.
	Fatal() *zerolog.Event
}

type logger struct {
	zerolog.Logger
}

// Creates a new logger instance for other packages to use the internal zerolog.
func New(version string) Logger {
	return NewWithWriter(version, output)
}

// NewWithWriter is New with an explicit sink, tests use it to silence or capture output.
func NewWithWriter(version string, w io.Writer) Logger {
	return &logger{zerolog.New(w).With().Str("Version", version).Timestamp().Caller().Stack().Logger()}
}

// Nop returns a Logger which discards everything.
func Nop() Logger {
	return &logger{zerolog.Nop()}
}

// Returns a sub-logger by adding the correlation id found in ctx.
// Helps in debugging issues which span a chain of handlers.
func (l *logger) WithCtx(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	if correlationID, ok := ctx.Value(CorrelationKey).(string); ok && correlationID != "" {
		return &logger{l.Logger.With().Str("CorrelationID", correlationID).Logger()}
	}
	return l
}

func (l *logger) With(key, value string) Logger {
	return &logger{l.Logger.With().Str(key, value).Logger()}
}
