// Package router implements C6 (command routing) and C7 (the server CLI):
// the built-in command table from spec.md §4.6, dispatched through a
// name-keyed table of small functions rather than a type switch.
package router

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/dreamware/graphserv/internal/auth"
	"github.com/dreamware/graphserv/internal/core"
	"github.com/dreamware/graphserv/internal/session"
	"github.com/dreamware/graphserv/internal/wire"
)

// Router implements session.Router against a shared core registry, session
// table, and credential store.
type Router struct {
	Cores    *core.Registry
	Sessions *session.Table
	Auth     *auth.Store
	CorePath string
	Events   chan<- core.ChildEvent
	Logger   *slog.Logger
	Started  time.Time

	commands     map[string]serverCommand
	coreCommands map[string]auth.AccessLevel
}

type serverCommand struct {
	level   auth.AccessLevel
	minArgs int
	maxArgs int
	handler func(r *Router, s *session.Session, args []string)
}

// New builds a Router with the full spec.md §4.6/§4.7 command table wired
// up, plus a small built-in table of graph-engine commands (spec.md leaves
// the core's own command surface to the graph engine; this table covers
// the common ones so use-graph-bound sessions have something realistic to
// route to besides always hitting "no such core command").
func New(cores *core.Registry, sessions *session.Table, authStore *auth.Store, corePath string, events chan<- core.ChildEvent, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		Cores:    cores,
		Sessions: sessions,
		Auth:     authStore,
		CorePath: corePath,
		Events:   events,
		Logger:   logger,
		Started:  time.Now(),
		coreCommands: map[string]auth.AccessLevel{
			"add-arcs":    auth.LevelWrite,
			"drop-arcs":   auth.LevelWrite,
			"add-node":    auth.LevelWrite,
			"drop-node":   auth.LevelWrite,
			"list-nodes":  auth.LevelRead,
			"list-arcs":   auth.LevelRead,
			"neighbors":   auth.LevelRead,
			"path":        auth.LevelRead,
			"degree":      auth.LevelRead,
			"clear-graph": auth.LevelAdmin,
			"save":        auth.LevelAdmin,
		},
	}
	r.commands = map[string]serverCommand{
		"create-graph":     {auth.LevelAdmin, 1, 1, cmdCreateGraph},
		"use-graph":        {auth.LevelRead, 1, 1, cmdUseGraph},
		"drop-graph":       {auth.LevelAdmin, 1, 1, cmdDropGraph},
		"list-graphs":      {auth.LevelRead, 0, 0, cmdListGraphs},
		"session-info":     {auth.LevelRead, 0, 0, cmdSessionInfo},
		"server-stats":     {auth.LevelRead, 0, 0, cmdServerStats},
		"authorize":        {auth.LevelRead, 2, 2, cmdAuthorize},
		"protocol-version": {auth.LevelRead, 0, 0, cmdProtocolVersion},
		"quit":             {auth.LevelRead, 0, 0, cmdQuit},
		"shutdown":         {auth.LevelAdmin, 0, 0, cmdShutdown},
		"help":             {auth.LevelRead, 0, 1, cmdHelp},
	}
	return r
}

// IsServerCommand implements session.Router.
func (r *Router) IsServerCommand(name string) bool {
	_, ok := r.commands[name]
	return ok
}

// CoreCommandLevel implements session.Router.
func (r *Router) CoreCommandLevel(name string) (auth.AccessLevel, bool) {
	lvl, ok := r.coreCommands[name]
	return lvl, ok
}

// ExecuteServerCommand implements session.Router.
func (r *Router) ExecuteServerCommand(s *session.Session, ce *core.CommandEntry) {
	fields := wire.SplitLine(ce.Command)
	name, args := fields[0], fields[1:]

	cmd := r.commands[name] // presence already checked by IsServerCommand

	if len(args) < cmd.minArgs || len(args) > cmd.maxArgs {
		s.Hooks.ForwardStatusLine(fmt.Sprintf("%s wrong number of arguments for %s", wire.StatusFailure, name))
		return
	}
	if s.AccessLevel < cmd.level {
		s.Hooks.ForwardStatusLine(wire.StatusDenied)
		return
	}
	cmd.handler(r, s, args)
}
