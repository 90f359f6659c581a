package router

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/graphserv/internal/auth"
	"github.com/dreamware/graphserv/internal/core"
	"github.com/dreamware/graphserv/internal/session"
)

type fakeHooks struct {
	statusLines []string
	dataLines   []string
	ended       bool
}

func (h *fakeHooks) ForwardStatusLine(line string) { h.statusLines = append(h.statusLines, line) }
func (h *fakeHooks) ForwardDataSet(line string, end bool) {
	if end {
		h.ended = true
		return
	}
	h.dataLines = append(h.dataLines, line)
}
func (h *fakeHooks) CommandNotFound(string) {}

func newTestRouter(t *testing.T) (*Router, *fakeHooks, *session.Session) {
	t.Helper()
	dir := t.TempDir()
	passwdPath := filepath.Join(dir, "p")
	groupPath := filepath.Join(dir, "g")
	require.NoError(t, os.WriteFile(passwdPath, []byte(""), 0o600))
	require.NoError(t, os.WriteFile(groupPath, []byte(""), 0o600))

	store := auth.NewStore(passwdPath, groupPath)
	r := New(core.NewRegistry(), session.NewTable(), store, "/nonexistent/core", nil, nil)

	hooks := &fakeHooks{}
	s := session.New(1, session.KindTCP, hooks, r)
	r.Sessions.Add(s)
	return r, hooks, s
}

func TestRouterListGraphsEmpty(t *testing.T) {
	r, hooks, s := newTestRouter(t)
	s.Feed("list-graphs")
	_ = r

	if len(hooks.statusLines) != 1 {
		t.Fatalf("expected one status line, got %v", hooks.statusLines)
	}
	if !hooks.ended {
		t.Fatalf("expected data set to end")
	}
	if len(hooks.dataLines) != 0 {
		t.Fatalf("expected no graphs, got %v", hooks.dataLines)
	}
}

func TestRouterCreateGraphRejectsInvalidName(t *testing.T) {
	_, hooks, s := newTestRouter(t)
	s.AccessLevel = auth.LevelAdmin

	s.Feed("create-graph 1bad")

	if len(hooks.statusLines) != 1 {
		t.Fatalf("expected a failure status line, got %v", hooks.statusLines)
	}
}

func TestRouterCreateGraphRequiresAdmin(t *testing.T) {
	_, hooks, s := newTestRouter(t)
	s.AccessLevel = auth.LevelWrite

	s.Feed("create-graph ok-name")

	if len(hooks.statusLines) != 1 || hooks.statusLines[0] != "DENIED" {
		t.Fatalf("expected DENIED, got %v", hooks.statusLines)
	}
}

func TestRouterUseGraphNoSuchGraph(t *testing.T) {
	_, hooks, s := newTestRouter(t)
	s.Feed("use-graph nope")

	if len(hooks.statusLines) != 1 {
		t.Fatalf("expected one status line, got %v", hooks.statusLines)
	}
}

func TestRouterSessionInfoReportsUnbound(t *testing.T) {
	_, hooks, s := newTestRouter(t)
	s.Feed("session-info")

	if len(hooks.dataLines) != 2 || hooks.dataLines[0] != "ConnectedGraph,None" {
		t.Fatalf("unexpected session-info output: %v", hooks.dataLines)
	}
}

func TestRouterProtocolVersion(t *testing.T) {
	_, hooks, s := newTestRouter(t)
	s.Feed("protocol-version")

	if len(hooks.statusLines) != 1 {
		t.Fatalf("expected one line, got %v", hooks.statusLines)
	}
}

func TestRouterQuitMarksClosing(t *testing.T) {
	_, hooks, s := newTestRouter(t)
	s.Feed("quit")

	if !s.Closing {
		t.Fatalf("expected session to be marked closing")
	}
	if len(hooks.statusLines) != 1 || hooks.statusLines[0] != "OK" {
		t.Fatalf("unexpected reply to quit: %v", hooks.statusLines)
	}
}

func TestRouterWrongArityIsRejected(t *testing.T) {
	_, hooks, s := newTestRouter(t)
	s.AccessLevel = auth.LevelAdmin
	s.Feed("create-graph")

	if len(hooks.statusLines) != 1 {
		t.Fatalf("expected an arity failure, got %v", hooks.statusLines)
	}
}

func TestRouterAuthorizeUnknownAuthority(t *testing.T) {
	_, hooks, s := newTestRouter(t)
	s.Feed("authorize kerberos alice:pw")

	if len(hooks.statusLines) != 1 {
		t.Fatalf("expected a failure, got %v", hooks.statusLines)
	}
}

func TestRouterHelpListsCommandsAndIsNotBoundToACore(t *testing.T) {
	_, hooks, s := newTestRouter(t)
	s.Feed("help")

	if len(hooks.dataLines) == 0 {
		t.Fatalf("expected help to list commands")
	}
}
