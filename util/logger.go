// Package util provides low-level helpers shared by all other packages.
package util

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// Logger writes levelled messages to stderr with optional timestamps
// and level prefixes.  It is a thin front over a zerolog console
// writer so every package keeps the printf-style API.
type Logger struct {
	mu         sync.RWMutex
	level      LogLevel
	output     io.Writer
	timestamps bool // if true, prepend wall-clock timestamps
	zl         zerolog.Logger
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	l := &Logger{
		level:      LogLevel(verbosity),
		output:     os.Stderr,
		timestamps: verbosity >= 3, // auto-enable timestamps in debug mode
	}
	l.rebuild()
	return l
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) {
	l.mu.Lock()
	l.timestamps = on
	l.rebuild()
	l.mu.Unlock()
}

// SetOutput overrides the output writer (default: os.Stderr).
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	l.output = w
	l.rebuild()
	l.mu.Unlock()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	zl := l.get()
	zl.Info().Msgf(format, args...)
}

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	zl := l.get()
	zl.Warn().Msgf(format, args...)
}

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	zl := l.get()
	zl.Debug().Msgf(format, args...)
}

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	zl := l.get()
	zl.Trace().Msgf(format, args...)
}

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	zl := l.get()
	zl.Error().Msgf(format, args...)
}

func (l *Logger) get() zerolog.Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.zl
}

// rebuild recreates the zerolog pipeline.  Callers hold l.mu.
func (l *Logger) rebuild() {
	cw := zerolog.ConsoleWriter{
		Out:         l.output,
		NoColor:     !isTerminal(l.output),
		TimeFormat:  "15:04:05.000",
		FormatLevel: formatLevel,
	}
	if !l.timestamps {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	zl := zerolog.New(cw).Level(zerologLevel(l.level))
	if l.timestamps {
		zl = zl.With().Timestamp().Logger()
	}
	l.zl = zl
}

// zerologLevel maps -v verbosity onto zerolog levels.  Verbose
// rides on zerolog's debug level and Debug on trace.
func zerologLevel(lvl LogLevel) zerolog.Level {
	switch {
	case lvl <= LogQuiet:
		return zerolog.ErrorLevel
	case lvl == LogNormal:
		return zerolog.InfoLevel
	case lvl == LogVerbose:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}

func formatLevel(i interface{}) string {
	s, _ := i.(string)
	switch s {
	case zerolog.LevelErrorValue, zerolog.LevelFatalValue, zerolog.LevelPanicValue:
		return "[ERR]"
	case zerolog.LevelWarnValue:
		return "[WRN]"
	case zerolog.LevelInfoValue:
		return "[INF]"
	case zerolog.LevelDebugValue:
		return "[VRB]"
	case zerolog.LevelTraceValue:
		return "[DBG]"
	default:
		return "[" + strings.ToUpper(s) + "]"
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
