// Package logging configures the zerolog logger shared by all commands.
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/thediveo/enumflag/v2"
)

// Level is the minimum level that is written.
type Level enumflag.Flag

const (
	Info Level = iota
	Debug
	Warn
	Error
)

// LevelIds maps levels to their flag spellings.
var LevelIds = map[Level][]string{
	Debug: {"debug"},
	Info:  {"info"},
	Warn:  {"warn", "warning"},
	Error: {"error"},
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case Debug:
		return zerolog.DebugLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

// Format selects the log encoding.
type Format enumflag.Flag

const (
	Console Format = iota
	JSON
)

// FormatIds maps formats to their flag spellings.
var FormatIds = map[Format][]string{
	Console: {"console", "text"},
	JSON:    {"json"},
}

// LevelFlag returns a pflag.Value bound to l.
func LevelFlag(l *Level) *enumflag.EnumFlagValue[Level] {
	return enumflag.New(l, "level", LevelIds, enumflag.EnumCaseInsensitive)
}

// FormatFlag returns a pflag.Value bound to f.
func FormatFlag(f *Format) *enumflag.EnumFlagValue[Format] {
	return enumflag.New(f, "format", FormatIds, enumflag.EnumCaseInsensitive)
}

// New returns a logger writing to w.
func New(w io.Writer, level Level, format Format) zerolog.Logger {
	if format == Console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}
	}
	return zerolog.New(w).Level(level.zerolog()).With().Timestamp().Logger()
}
