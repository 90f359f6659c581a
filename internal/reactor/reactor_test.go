package reactor

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dreamware/graphserv/internal/auth"
	"github.com/dreamware/graphserv/internal/core"
	"github.com/dreamware/graphserv/internal/core/testsupport"
	"github.com/dreamware/graphserv/internal/router"
	"github.com/dreamware/graphserv/internal/session"
)

// TestMain lets this test binary re-exec itself as a stand-in core process,
// the same trick internal/core's own tests use: a Core pointed at
// os.Args[0] with testsupport.HelperEnv set re-execs into the testsupport
// protocol handler below, instead of running this package's test suite.
func TestMain(m *testing.M) {
	testsupport.RunIfHelper()
	os.Exit(m.Run())
}

// testCoreBinary returns the path to this test binary itself and arranges
// for testsupport.HelperEnv to be set for the duration of the test, so a
// Core started against it behaves like the generic handshake+
// ping/fail/crash/echo-dataset stand-in used across the module's
// process-spawning tests, without shelling out to `go build`.
func testCoreBinary(t *testing.T) string {
	t.Helper()
	bin, err := os.Executable()
	require.NoError(t, err)
	t.Setenv(testsupport.HelperEnv, "1")
	return bin
}

// newTestReactor wires a full Reactor against a real (built) core binary
// and a credential store granting "admin:secret" admin access, mirroring
// spec.md §8's seed scenario 1.
func newTestReactor(t *testing.T) (*Reactor, string) {
	t.Helper()
	corePath := testCoreBinary(t)

	dir := t.TempDir()
	passwdPath := filepath.Join(dir, "htpasswd")
	groupPath := filepath.Join(dir, "group")

	hash, err := auth.HashPassword("secret", "ab")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(passwdPath, []byte("admin:"+hash+"\n"), 0o600))
	require.NoError(t, os.WriteFile(groupPath, []byte("admin:::admin\n"), 0o600))

	store := auth.NewStore(passwdPath, groupPath)
	cores := core.NewRegistry()
	sessions := session.NewTable()
	coreEvents := make(chan core.ChildEvent, 64)
	rt := router.New(cores, sessions, store, corePath, coreEvents, nil)
	rx := New(cores, sessions, rt, coreEvents, nil)

	go rx.Run()
	t.Cleanup(rx.Stop)

	return rx, corePath
}

func mustListen(t *testing.T) net.Listener {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })
	return ln
}

// tcpClient wraps a connection with line read/write helpers for the raw
// protocol.
type tcpClient struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, ln net.Listener) *tcpClient {
	t.Helper()
	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &tcpClient{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *tcpClient) send(line string) {
	c.t.Helper()
	_, err := fmt.Fprintf(c.conn, "%s\n", line)
	require.NoError(c.t, err)
}

func (c *tcpClient) readLine() string {
	c.t.Helper()
	c.conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	line, err := c.r.ReadString('\n')
	require.NoError(c.t, err)
	return line[:len(line)-1]
}

func TestReactorCreateUseAndRunCommandOverTCP(t *testing.T) {
	rx, _ := newTestReactor(t)
	ln := mustListen(t)
	go rx.ServeTCP(ln)

	c := dial(t, ln)

	c.send("authorize password admin:secret")
	require.Equal(t, "OK", c.readLine())

	c.send("create-graph g1")
	require.Equal(t, "OK", c.readLine())

	c.send("use-graph g1")
	require.Equal(t, "OK", c.readLine())

	// testcore has no notion of graph commands; it answers any command it
	// doesn't recognize with a plain FAILURE status, which is enough to
	// prove the full round trip (client -> session -> queue -> child
	// stdin -> child stdout -> FSM -> session hooks -> client) works.
	c.send("list-nodes")
	require.Equal(t, "FAILURE unknown command", c.readLine())

	c.send("quit")
	require.Equal(t, "OK", c.readLine())
}

func TestReactorDataSetRoundTripOverTCP(t *testing.T) {
	rx, _ := newTestReactor(t)
	ln := mustListen(t)
	go rx.ServeTCP(ln)

	c := dial(t, ln)
	c.send("authorize password admin:secret")
	require.Equal(t, "OK", c.readLine())
	c.send("create-graph g1")
	require.Equal(t, "OK", c.readLine())
	c.send("use-graph g1")
	require.Equal(t, "OK", c.readLine())

	// testcore answers "save:" the same way it answers "echo-dataset:": it
	// is a real admin-level core command (router.go's coreCommands table),
	// so this also proves the trailing ':' survives the round trip from
	// client line to the child's stdin, not just from child to client.
	c.send("save:")
	c.send("row one")
	c.send("row two")
	c.send("")

	require.Equal(t, "OK dataset follows:", c.readLine())
	require.Equal(t, "row one", c.readLine())
	require.Equal(t, "row two", c.readLine())
	require.Equal(t, "", c.readLine())
}

func TestReactorSecondSessionParksUntilCoreIdle(t *testing.T) {
	rx, _ := newTestReactor(t)
	ln := mustListen(t)
	go rx.ServeTCP(ln)

	admin := dial(t, ln)
	admin.send("authorize password admin:secret")
	require.Equal(t, "OK", admin.readLine())
	admin.send("create-graph g1")
	require.Equal(t, "OK", admin.readLine())
	admin.send("use-graph g1")
	require.Equal(t, "OK", admin.readLine())

	second := dial(t, ln)
	second.send("authorize password admin:secret")
	require.Equal(t, "OK", second.readLine())
	second.send("use-graph g1")
	require.Equal(t, "OK", second.readLine())

	// Both sessions issue a command that goes to the same core; each
	// should get exactly its own reply back, never the other's.
	admin.send("list-nodes")
	second.send("list-arcs")

	require.Equal(t, "FAILURE unknown command", admin.readLine())
	require.Equal(t, "FAILURE unknown command", second.readLine())
}

func TestReactorHTTPBridgesToBoundCore(t *testing.T) {
	rx, _ := newTestReactor(t)
	tcpLn := mustListen(t)
	go rx.ServeTCP(tcpLn)
	httpLn := mustListen(t)
	go rx.ServeHTTP(httpLn)

	setup := dial(t, tcpLn)
	setup.send("authorize password admin:secret")
	require.Equal(t, "OK", setup.readLine())
	setup.send("create-graph g1")
	require.Equal(t, "OK", setup.readLine())

	resp, err := http.Get("http://" + httpLn.Addr().String() + "/g1/list-nodes")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "FAILURE unknown command", resp.Header.Get("X-GraphProcessor"))
}

func TestReactorHTTPBareCommandNeedsNoCore(t *testing.T) {
	rx, _ := newTestReactor(t)
	httpLn := mustListen(t)
	go rx.ServeHTTP(httpLn)

	resp, err := http.Get("http://" + httpLn.Addr().String() + "/protocol-version")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestReactorHTTPUnknownGraphIs404(t *testing.T) {
	rx, _ := newTestReactor(t)
	httpLn := mustListen(t)
	go rx.ServeHTTP(httpLn)

	resp, err := http.Get("http://" + httpLn.Addr().String() + "/nope/list-nodes")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
