// Package httpapi implements C8, the HTTP/1.x adapter: one-shot request
// parsing, percent-decoding, path-to-core/command splitting, and the
// core-status-to-HTTP-status framing that lets an HTTP GET ride the same
// session.Hooks plumbing as a raw TCP client.
package httpapi

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/dreamware/graphserv/internal/wire"
)

// Request is a parsed one-shot HTTP GET.
type Request struct {
	Method  string
	URI     string
	Version string

	// CoreName is empty for a bare server command (a single path
	// component). Command is the remainder of the decoded path, with
	// intermediate "/" separators preserved literally, per spec.md §4.8.
	CoreName string
	Command  string
}

// ReadRequest reads a start line and header block (discarding the headers'
// contents; graphserv's HTTP surface does not consult any of them) from r,
// terminated by a blank line, exactly like a normal HTTP/1.x request.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	startLine, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("httpapi: reading start line: %w", err)
	}

	fields := strings.Fields(startLine)
	if len(fields) != 3 {
		return nil, fmt.Errorf("httpapi: malformed start line %q", startLine)
	}
	method, uri, version := fields[0], fields[1], fields[2]
	if !isSupportedVersion(version) {
		return nil, fmt.Errorf("httpapi: unsupported version %q", version)
	}

	for {
		line, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("httpapi: reading headers: %w", err)
		}
		if line == "" {
			break
		}
	}

	decoded, err := DecodePath(uri)
	if err != nil {
		return nil, err
	}
	coreName, command := SplitPathAndCommand(decoded)

	return &Request{
		Method:   method,
		URI:      uri,
		Version:  version,
		CoreName: coreName,
		Command:  command,
	}, nil
}

// IsDataSet reports whether the decoded command tries to open a data set,
// which an HTTP GET structurally cannot carry (there is no way for the
// client to send further lines after the request line).
func (req *Request) IsDataSet() bool {
	return wire.HasDataSetHeader(req.Command)
}

func isSupportedVersion(v string) bool {
	v = strings.ToUpper(v)
	return v == "HTTP/1.0" || v == "HTTP/1.1"
}

// readLine reads one CRLF- or LF-terminated line, with the terminator
// stripped.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// DecodePath percent-decodes a request-URI's path component per spec.md
// §4.8: '+' becomes a space, "%HH" becomes the byte HH which must be
// printable, and "%%" is a literal '%'.
func DecodePath(raw string) (string, error) {
	var out strings.Builder
	out.Grow(len(raw))

	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; c {
		case '+':
			out.WriteByte(' ')
		case '%':
			if i+1 < len(raw) && raw[i+1] == '%' {
				out.WriteByte('%')
				i++
				continue
			}
			if i+2 >= len(raw) {
				return "", fmt.Errorf("httpapi: truncated percent-escape in %q", raw)
			}
			hex := raw[i+1 : i+3]
			v, err := strconv.ParseUint(hex, 16, 8)
			if err != nil {
				return "", fmt.Errorf("httpapi: invalid percent-escape %%%s", hex)
			}
			b := byte(v)
			if !isPrintable(b) {
				return "", fmt.Errorf("httpapi: percent-escape %%%s decodes to a non-printable byte", hex)
			}
			out.WriteByte(b)
			i += 2
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}

func isPrintable(b byte) bool {
	return b >= 0x20 && b < 0x7f
}

// SplitPathAndCommand strips a single leading '/', splits on '/' discarding
// empty components, and applies spec.md §4.8's rule: two or more components
// means the first names the target core and the rest (rejoined with '/')
// is the command; exactly one component is a bare server command.
func SplitPathAndCommand(decoded string) (coreName, command string) {
	trimmed := strings.TrimPrefix(decoded, "/")

	var parts []string
	for _, p := range strings.Split(trimmed, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	default:
		return parts[0], strings.Join(parts[1:], "/")
	}
}
