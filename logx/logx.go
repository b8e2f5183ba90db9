// Package logx provides the structured logger used across iotmcp, backed by
// zerolog.
package logx

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger defines the interface for logging. keyvals are alternating keys and
// values attached to the entry as fields.
type Logger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})

	// With returns a Logger that adds keyvals to every entry.
	With(keyvals ...interface{}) Logger
}

// Config selects the level, destination and time format of a Logger.
type Config struct {
	Level      string `mapstructure:"level" json:"level" yaml:"level"`
	Output     string `mapstructure:"output" json:"output" yaml:"output"` // stderr (default), stdout or discard
	TimeFormat string `mapstructure:"time_format" json:"time_format" yaml:"time_format"`
}

// DefaultConfig logs at info level to stderr. Stdout is left to the stdio
// transport.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	}
}

type zerologLogger struct {
	logger zerolog.Logger
}

// New creates a Logger from config.
func New(config Config) (Logger, error) {
	var output io.Writer
	switch strings.ToLower(config.Output) {
	case "", "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	case "discard":
		output = io.Discard
	default:
		return nil, fmt.Errorf("logx: unknown output %q", config.Output)
	}

	level := zerolog.InfoLevel
	if config.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(strings.ToLower(config.Level))
		if err != nil {
			return nil, fmt.Errorf("logx: %w", err)
		}
	}

	return newLogger(output, level, config.TimeFormat), nil
}

// NewWithWriter creates a Logger writing JSON entries at level and above to w.
func NewWithWriter(w io.Writer, level zerolog.Level) Logger {
	return newLogger(w, level, "")
}

// newLogger stamps entries with the time in timeFormat, RFC3339 when empty.
// The format belongs to this logger; zerolog.TimeFieldFormat is left alone.
func newLogger(w io.Writer, level zerolog.Level, timeFormat string) Logger {
	if timeFormat == "" {
		timeFormat = time.RFC3339
	}
	stamp := zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
		e.Str(zerolog.TimestampFieldName, time.Now().Format(timeFormat))
	})
	return &zerologLogger{
		logger: zerolog.New(w).Level(level).Hook(stamp),
	}
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zerologLogger{logger: zerolog.Nop()}
}

func (l *zerologLogger) Debug(msg string, keyvals ...interface{}) {
	write(l.logger.Debug(), msg, keyvals)
}

func (l *zerologLogger) Info(msg string, keyvals ...interface{}) {
	write(l.logger.Info(), msg, keyvals)
}

func (l *zerologLogger) Warn(msg string, keyvals ...interface{}) {
	write(l.logger.Warn(), msg, keyvals)
}

func (l *zerologLogger) Error(msg string, keyvals ...interface{}) {
	write(l.logger.Error(), msg, keyvals)
}

func (l *zerologLogger) With(keyvals ...interface{}) Logger {
	return &zerologLogger{logger: l.logger.With().Fields(normalize(keyvals)).Logger()}
}

func write(e *zerolog.Event, msg string, keyvals []interface{}) {
	if e == nil {
		return
	}
	if len(keyvals) > 0 {
		e = e.Fields(normalize(keyvals))
	}
	e.Msg(msg)
}

// normalize pads a dangling key and stringifies non-string keys so zerolog
// accepts the slice.
func normalize(keyvals []interface{}) []interface{} {
	out := make([]interface{}, 0, len(keyvals)+1)
	for i := 0; i < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			key = fmt.Sprint(keyvals[i])
		}
		var value interface{} = "(MISSING)"
		if i+1 < len(keyvals) {
			value = keyvals[i+1]
		}
		out = append(out, key, value)
	}
	return out
}
