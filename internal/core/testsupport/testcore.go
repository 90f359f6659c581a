// Package testsupport implements the same minimal graph-core protocol as
// internal/core/testcore's standalone binary, but as an importable helper
// so a test binary can re-exec itself as a stand-in core process instead of
// shelling out to `go build` for a separate executable. That keeps the
// core-spawning tests runnable in a sandboxed or offline environment, where
// invoking the go toolchain from within a test isn't available.
package testsupport

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// HelperEnv, when set to "1" in a process's environment, tells RunIfHelper
// to behave as a graph-processing core rather than run the test binary's
// own suite. A test arranges this before spawning a Core pointed at its own
// binary (os.Args[0]): exec.Command inherits the parent's environment by
// default, so the child sees the same variable without any extra plumbing.
const HelperEnv = "GRAPHSERV_TESTCORE_HELPER"

// RunIfHelper exits the process after speaking the testcore protocol on
// stdin/stdout if HelperEnv is set in the environment; it returns
// immediately, doing nothing, otherwise. Call it from a package's TestMain,
// before m.Run(), so that the self-exec'd child never recurses into the
// full test suite.
func RunIfHelper() {
	if os.Getenv(HelperEnv) != "1" {
		return
	}
	serve()
	os.Exit(0)
}

func serve() {
	in := bufio.NewReader(os.Stdin)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	greeting, err := in.ReadString('\n')
	if err != nil || strings.TrimSpace(greeting) != "protocol-version" {
		os.Exit(101)
	}
	fmt.Fprintf(out, "OK graphserv-1\n")
	out.Flush()

	for {
		line, err := in.ReadString('\n')
		if err != nil {
			return
		}
		handle(in, out, strings.TrimRight(line, "\r\n"))
		out.Flush()
	}
}

// handle mirrors internal/core/testcore's fixed command set: a couple of
// canned replies, a crash, and a data-set echo reachable under two names so
// callers can exercise it either as a made-up command or as a real
// registered core command ("save").
func handle(in *bufio.Reader, out *bufio.Writer, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "ping":
		fmt.Fprintf(out, "OK pong\n")
	case "fail":
		fmt.Fprintf(out, "FAILURE nope\n")
	case "crash":
		out.Flush()
		os.Exit(1)
	case "echo-dataset:", "save:":
		fmt.Fprintf(out, "OK dataset follows:\n")
		for {
			dl, err := in.ReadString('\n')
			if err != nil {
				return
			}
			dl = strings.TrimRight(dl, "\r\n")
			if dl == "" {
				fmt.Fprintf(out, "\n")
				return
			}
			fmt.Fprintf(out, "%s\n", dl)
		}
	default:
		fmt.Fprintf(out, "FAILURE unknown command\n")
	}
}
