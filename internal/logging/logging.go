// Package logging wraps log/slog with the flag-driven level selection
// spec.md's `-l` option requires: a set of OR-combined characters
// (e,i,a,q) rather than a single verbosity level.
package logging

import (
	"log/slog"
	"os"
)

// Flags is the parsed form of the `-l` argument. Each field is independent;
// "ai" enables both Info and access logging without enabling Error-only
// quiet mode.
type Flags struct {
	Error  bool
	Info   bool
	Access bool
	Quiet  bool
}

// ParseFlags decodes spec.md §6's `-l` character set. An empty string is the
// default: error logging only. Unknown characters are ignored rather than
// rejected, since `-l` is a best-effort diagnostics knob, not a protocol
// surface.
func ParseFlags(s string) Flags {
	if s == "" {
		return Flags{Error: true}
	}
	var f Flags
	for _, c := range s {
		switch c {
		case 'e':
			f.Error = true
		case 'i':
			f.Info = true
		case 'a':
			f.Access = true
		case 'q':
			f.Quiet = true
		}
	}
	return f
}

// New builds the process-wide *slog.Logger for the given flags, writing to
// stderr as a text handler (matching every other CLI in the retrieval pack).
// Quiet suppresses everything, Error included, regardless of the other flags.
func New(flags Flags) *slog.Logger {
	level := slog.LevelError
	switch {
	case flags.Quiet:
		level = slog.LevelError + 4 // above Error: only explicit Fatal-style logging survives
	case flags.Info || flags.Access:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// AccessLogger returns logger if access logging is enabled, else a logger
// whose level is raised above Info so access-tagged lines are dropped.
// Callers always call the returned logger's Info method; whether it's
// visible is decided here, once, at startup.
func AccessLogger(logger *slog.Logger, flags Flags) *slog.Logger {
	if flags.Access {
		return logger.With("component", "access")
	}
	discard := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 4}))
	return discard.With("component", "access")
}
