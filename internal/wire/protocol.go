// Package wire defines the line-oriented protocol shared by clients, the
// server, and graph-engine core processes, plus the low-level byte-buffering
// primitives (line assembly, non-blocking-style writes) that every
// transport in graphserv is built on.
package wire

import (
	"strings"
	"unicode"
)

// ProtocolVersion is the server's compiled-in protocol version token. A core
// process is required to echo this back to a "protocol-version" handshake
// line during startup; a mismatch fails core creation.
const ProtocolVersion = "graphserv-1"

// Status tokens shared by core replies and server-command replies.
const (
	StatusOK      = "OK"
	StatusFailure = "FAILURE"
	StatusError   = "ERROR"
	StatusNone    = "NONE"
	StatusDenied  = "DENIED"
	StatusValue   = "VALUE"
)

// SplitLine tokenizes a line by whitespace, mirroring the tokenizer used for
// both client commands and core status lines.
func SplitLine(line string) []string {
	return strings.Fields(line)
}

// StatusToken returns the first whitespace-delimited token of a line, or ""
// if the line is empty.
func StatusToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// HasDataSetHeader reports whether line (with or without its trailing
// newline) "indicates a data set will follow": it contains a colon and
// every byte after the first colon is whitespace. This rule is shared by
// command lines from clients and status lines from cores.
func HasDataSetHeader(line string) bool {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return false
	}
	for _, r := range line[idx+1:] {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// StripTrailingColon removes a trailing ':' from the last whitespace token
// of a command line, if present, returning the rewritten line and whether a
// colon was stripped. Used to detect "this command accepts a data set" per
// spec.md §3's CommandEntry.acceptsData rule. The check is token-based, not
// a literal suffix match, so trailing whitespace before the line's own
// terminator (e.g. "add-arcs: \n") doesn't hide the colon.
func StripTrailingColon(line string) (rewritten string, acceptsData bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return line, false
	}
	if !strings.HasSuffix(fields[len(fields)-1], ":") {
		return line, false
	}
	trimmed := strings.TrimRight(line, "\r\n \t")
	return strings.TrimSuffix(trimmed, ":"), true
}

// IsBlank reports whether a raw line (post \r-strip) is empty once its
// trailing newline is removed. A blank line terminates a data set.
func IsBlank(line string) bool {
	return strings.TrimRight(line, "\n") == ""
}
