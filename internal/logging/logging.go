// Package logging wraps zerolog in a small structured logger shared across
// the CLI, the HTTP surface, and the detection pipeline's own once-per-rule
// warnings. Adapted from the teacher repo's internal/logging/logging.go;
// the teacher's second, logrus-based logger (logging/logger.go) is not
// carried forward — see DESIGN.md for why a repo should not ship two
// non-interoperating loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with the handful of leveled helpers the
// rest of the codebase calls.
type Logger struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// Level is a logging level name as accepted from configuration.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the console or JSON zerolog writer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// New builds a Logger writing to stdout in the given level and format.
func New(level Level, format Format) *Logger {
	return NewWithWriter(level, format, os.Stdout)
}

// NewWithWriter builds a Logger writing to an arbitrary io.Writer, such as
// the configured log file.
func NewWithWriter(level Level, format Format, w io.Writer) *Logger {
	zl := parseLevel(level)
	zerolog.SetGlobalLevel(zl)

	var out io.Writer = w
	if format != FormatJSON {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			FormatLevel: func(i interface{}) string {
				s, _ := i.(string)
				return strings.ToUpper(s)
			},
		}
	}

	return &Logger{
		logger: zerolog.New(out).With().Timestamp().Logger(),
		level:  zl,
	}
}

func parseLevel(level Level) zerolog.Level {
	switch level {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.event(l.logger.Debug(), msg, kv) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.event(l.logger.Info(), msg, kv) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.event(l.logger.Warn(), msg, kv) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.event(l.logger.Error(), msg, kv) }

// WithError returns a Logger whose events carry err as a structured field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger(), level: l.level}
}

// event attaches alternating key/value pairs (kv must have even length) to
// a zerolog event before emitting it, matching the ad-hoc fields map the
// teacher's Logger.Info(msg, fields) accepted, minus the map allocation.
func (l *Logger) event(e *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kv[i])
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}
