package router

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/dreamware/graphserv/internal/core"
	"github.com/dreamware/graphserv/internal/session"
	"github.com/dreamware/graphserv/internal/wire"
)

func cmdCreateGraph(r *Router, s *session.Session, args []string) {
	name := args[0]
	if !core.ValidGraphName(name) {
		s.Hooks.ForwardStatusLine(wire.StatusFailure + " invalid graph name")
		return
	}
	if existing, ok := r.Cores.ByName(name); ok && existing.Running() {
		s.Hooks.ForwardStatusLine(wire.StatusFailure + " graph already exists")
		return
	}

	id := r.Cores.NextID()
	c := core.New(id, name, r.CorePath, r.Logger)
	if err := c.Start(r.Events); err != nil {
		r.Logger.Warn("core start failed", "graph", name, "err", err)
		s.Hooks.ForwardStatusLine(wire.StatusError + " " + err.Error())
		return
	}
	if err := r.Cores.Add(c); err != nil {
		c.Terminate()
		s.Hooks.ForwardStatusLine(wire.StatusFailure + " " + err.Error())
		return
	}
	s.Hooks.ForwardStatusLine(wire.StatusOK)
}

func cmdUseGraph(r *Router, s *session.Session, args []string) {
	name := args[0]
	c, ok := r.Cores.ByName(name)
	if !ok || !c.Running() {
		s.Hooks.ForwardStatusLine(wire.StatusFailure + " no such graph")
		return
	}
	if s.BoundCore != nil && s.BoundCore.Waiting() {
		r.Logger.Warn("rebinding session with an in-flight reply on its previous core",
			"session", s.ID, "previous_graph", s.BoundCoreName)
	}
	s.BoundCore = c
	s.BoundCoreName = name
	s.Hooks.ForwardStatusLine(wire.StatusOK)
}

func cmdDropGraph(r *Router, s *session.Session, args []string) {
	name := args[0]
	c, ok := r.Cores.ByName(name)
	if !ok {
		s.Hooks.ForwardStatusLine(wire.StatusFailure + " no such graph")
		return
	}
	c.Terminate()
	s.Hooks.ForwardStatusLine(wire.StatusOK)
}

func cmdListGraphs(r *Router, s *session.Session, _ []string) {
	names := r.Cores.Names(true)
	s.Hooks.ForwardStatusLine(wire.StatusOK + " graph list follows:")
	for _, name := range names {
		s.Hooks.ForwardDataSet(name, false)
	}
	s.Hooks.ForwardDataSet("", true)
}

func cmdSessionInfo(r *Router, s *session.Session, _ []string) {
	graph := "None"
	if s.BoundCore != nil {
		graph = s.BoundCoreName
	}
	s.Hooks.ForwardStatusLine(wire.StatusOK + " session info follows:")
	s.Hooks.ForwardDataSet("ConnectedGraph,"+graph, false)
	s.Hooks.ForwardDataSet("AccessLevel,"+s.AccessLevel.String(), false)
	s.Hooks.ForwardDataSet("", true)
}

func cmdServerStats(r *Router, s *session.Session, _ []string) {
	s.Hooks.ForwardStatusLine(wire.StatusOK + " server stats follow:")
	s.Hooks.ForwardDataSet("RunningCores,"+strconv.Itoa(r.Cores.RunningCount()), false)
	s.Hooks.ForwardDataSet("TotalLinesReceived,"+strconv.FormatUint(r.Sessions.TotalLinesReceived(), 10), false)
	s.Hooks.ForwardDataSet("", true)
}

func cmdAuthorize(r *Router, s *session.Session, args []string) {
	authority, credentials := args[0], args[1]
	if authority != "password" {
		s.Hooks.ForwardStatusLine(wire.StatusFailure + " no such authority")
		return
	}
	level, err := r.Auth.Authorize(credentials)
	if err != nil {
		s.Hooks.ForwardStatusLine(wire.StatusDenied)
		return
	}
	s.AccessLevel = level
	s.Hooks.ForwardStatusLine(wire.StatusOK)
}

func cmdProtocolVersion(r *Router, s *session.Session, _ []string) {
	s.Hooks.ForwardStatusLine(wire.StatusOK + " " + wire.ProtocolVersion)
}

func cmdQuit(r *Router, s *session.Session, _ []string) {
	s.Hooks.ForwardStatusLine(wire.StatusOK)
	s.Closing = true
}

func cmdShutdown(r *Router, s *session.Session, _ []string) {
	if s.BoundCore == nil {
		s.Hooks.ForwardStatusLine(wire.StatusFailure + " not bound to a graph")
		return
	}
	s.BoundCore.QueueCommand(&core.CommandEntry{
		Command:      "shutdown",
		ClientID:     s.ID,
		DataFinished: true,
	})
	s.BoundCore.MarkShuttingDown()
	s.BoundCore.FlushCommandQueue()
}

func cmdHelp(r *Router, s *session.Session, args []string) {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	s.Hooks.ForwardStatusLine(wire.StatusOK + " command list follows:")
	for _, name := range names {
		cmd := r.commands[name]
		s.Hooks.ForwardDataSet(fmt.Sprintf("%s,%s,%d-%d", name, cmd.level, cmd.minArgs, cmd.maxArgs), false)
	}
	s.Hooks.ForwardDataSet("", true)

	if s.BoundCore != nil {
		line := "help"
		if len(args) == 1 {
			line = "help " + args[0]
		}
		s.BoundCore.QueueCommand(&core.CommandEntry{Command: line, ClientID: s.ID, DataFinished: true})
		s.BoundCore.FlushCommandQueue()
	}
}
