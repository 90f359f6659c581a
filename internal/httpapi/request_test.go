package httpapi

import (
	"bufio"
	"strings"
	"testing"
)

func TestDecodePathPlusBecomesSpace(t *testing.T) {
	got, err := DecodePath("list+nodes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "list nodes" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodePathPercentHexByte(t *testing.T) {
	got, err := DecodePath("a%2Fb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a/b" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodePathDoublePercentIsLiteral(t *testing.T) {
	got, err := DecodePath("100%%")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "100%" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodePathRejectsNonPrintableEscape(t *testing.T) {
	_, err := DecodePath("%00")
	if err == nil {
		t.Fatalf("expected an error for a non-printable escape")
	}
}

func TestDecodePathRejectsTruncatedEscape(t *testing.T) {
	_, err := DecodePath("abc%2")
	if err == nil {
		t.Fatalf("expected an error for a truncated escape")
	}
}

func TestSplitPathAndCommandBareServerCommand(t *testing.T) {
	core, cmd := SplitPathAndCommand("/list-graphs")
	if core != "" || cmd != "list-graphs" {
		t.Fatalf("got core=%q cmd=%q", core, cmd)
	}
}

func TestSplitPathAndCommandWithCoreName(t *testing.T) {
	core, cmd := SplitPathAndCommand("/g1/list nodes")
	if core != "g1" || cmd != "list nodes" {
		t.Fatalf("got core=%q cmd=%q", core, cmd)
	}
}

func TestSplitPathAndCommandRejoinsExtraSlashes(t *testing.T) {
	core, cmd := SplitPathAndCommand("/g1/path/1/2")
	if core != "g1" || cmd != "path/1/2" {
		t.Fatalf("got core=%q cmd=%q", core, cmd)
	}
}

func TestSplitPathAndCommandEmptyPath(t *testing.T) {
	core, cmd := SplitPathAndCommand("/")
	if core != "" || cmd != "" {
		t.Fatalf("got core=%q cmd=%q", core, cmd)
	}
}

func TestReadRequestParsesStartLineAndSkipsHeaders(t *testing.T) {
	raw := "GET /g1/list+nodes HTTP/1.0\r\nHost: example\r\nAccept: */*\r\n\r\n"
	req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Method != "GET" || req.Version != "HTTP/1.0" {
		t.Fatalf("unexpected method/version: %+v", req)
	}
	if req.CoreName != "g1" || req.Command != "list nodes" {
		t.Fatalf("unexpected split: core=%q command=%q", req.CoreName, req.Command)
	}
}

func TestReadRequestAcceptsCaseInsensitiveVersion(t *testing.T) {
	raw := "GET / http/1.1\r\n\r\n"
	req, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Version != "http/1.1" {
		t.Fatalf("got %q", req.Version)
	}
}

func TestReadRequestRejectsUnsupportedVersion(t *testing.T) {
	raw := "GET / HTTP/2.0\r\n\r\n"
	_, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	if err == nil {
		t.Fatalf("expected an error for HTTP/2.0")
	}
}

func TestReadRequestRejectsMalformedStartLine(t *testing.T) {
	raw := "GET /nope\r\n\r\n"
	_, err := ReadRequest(bufio.NewReader(strings.NewReader(raw)))
	if err == nil {
		t.Fatalf("expected an error for a two-field start line")
	}
}

func TestRequestIsDataSetRejectsColonCommand(t *testing.T) {
	req := &Request{Command: "add-arcs:"}
	if !req.IsDataSet() {
		t.Fatalf("expected add-arcs: to be recognized as a data-set command")
	}
}
