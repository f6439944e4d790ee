// Package logging builds the zerolog logger shared by the runner and the
// deferred-command processor. The CLI builds it once and passes it down.
package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "REBOOTCMDS_LOG_LEVEL"
	EnvLogNoColor = "REBOOTCMDS_LOG_NOCOLOR"
	EnvLogFile    = "REBOOTCMDS_LOG_FILE"
)

// Options configures New.
type Options struct {
	Level   zerolog.Level // console level
	NoColor bool
	File    string    // optional JSON log file, written at debug level
	Console io.Writer // defaults to os.Stderr
}

// DefaultOptions logs info and above to stderr without a log file.
func DefaultOptions() Options {
	return Options{Level: zerolog.InfoLevel}
}

// New returns a logger writing human-readable lines to the console and,
// when File is set, JSON lines at debug level to that file. The returned
// closer releases the file and is never nil.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var writers []io.Writer
	if opts.Level != zerolog.Disabled {
		writers = append(writers, filtered(zerolog.ConsoleWriter{
			Out:        console,
			TimeFormat: time.RFC3339,
			NoColor:    opts.NoColor,
		}, opts.Level))
	}

	var closer io.Closer = nopCloser{}
	minLevel := opts.Level
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return zerolog.Nop(), closer, fmt.Errorf("opening log file: %w", err)
		}
		closer = f
		writers = append(writers, filtered(f, zerolog.DebugLevel))
		if minLevel > zerolog.DebugLevel {
			minLevel = zerolog.DebugLevel
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(minLevel).
		With().Timestamp().Str("app", "rebootcmds").Logger()
	return logger, closer, nil
}

// ApplyEnv overrides opts from the REBOOTCMDS_LOG_* environment variables.
// Unparseable values are ignored.
func ApplyEnv(opts *Options) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		opts.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		opts.File = v
	}
}

// levelNames is the only level vocabulary. Config validation reads it
// through LevelNames.
var levelNames = []struct {
	name  string
	level zerolog.Level
}{
	{"trace", zerolog.TraceLevel},
	{"diagnostics", zerolog.TraceLevel},
	{"debug", zerolog.DebugLevel},
	{"info", zerolog.InfoLevel},
	{"warn", zerolog.WarnLevel},
	{"warning", zerolog.WarnLevel},
	{"error", zerolog.ErrorLevel},
	{"disabled", zerolog.Disabled},
	{"disable", zerolog.Disabled},
	{"off", zerolog.Disabled},
	{"none", zerolog.Disabled},
}

// LevelNames returns every accepted level name in canonical lower case.
func LevelNames() []string {
	out := make([]string, len(levelNames))
	for i, ln := range levelNames {
		out[i] = ln.name
	}
	return out
}

// ParseLevel maps a level name to a zerolog level, ignoring case and
// surrounding space. The second result is false for empty or unknown names.
func ParseLevel(raw string) (zerolog.Level, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for _, ln := range levelNames {
		if ln.name == raw {
			return ln.level, true
		}
	}
	return zerolog.InfoLevel, false
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// filtered drops events below min before they reach w.
func filtered(w io.Writer, min zerolog.Level) *zerolog.FilteredLevelWriter {
	return &zerolog.FilteredLevelWriter{
		Writer: zerolog.LevelWriterAdapter{Writer: w},
		Level:  min,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
