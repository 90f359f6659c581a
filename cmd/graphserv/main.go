// Command graphserv is the multiplexing front-end server for a
// line-oriented graph-processing engine: it accepts TCP and HTTP/1.x
// clients, routes their commands to a pool of long-running "core" child
// processes, and bridges HTTP GETs onto the same line protocol.
package main

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/dreamware/graphserv/internal/auth"
	"github.com/dreamware/graphserv/internal/config"
	"github.com/dreamware/graphserv/internal/core"
	"github.com/dreamware/graphserv/internal/logging"
	"github.com/dreamware/graphserv/internal/reactor"
	"github.com/dreamware/graphserv/internal/router"
	"github.com/dreamware/graphserv/internal/session"
)

var (
	flagConfigFile  string
	flagTCPPort     int
	flagHTTPPort    int
	flagMetricsPort int
	flagHtpasswd    string
	flagGroupFile   string
	flagCorePath    string
	flagLogFlags    string
)

var rootCmd = &cobra.Command{
	Use:   "graphserv",
	Short: "Multiplexing front end for a line-oriented graph-processing engine",
	RunE:  run,
}

func init() {
	def := config.Default()
	rootCmd.Flags().StringVarP(&flagConfigFile, "config", "f", "", "optional YAML config file, overridden by flags")
	rootCmd.Flags().IntVarP(&flagTCPPort, "tcp-port", "t", def.TCPPort, "TCP listen port (0 disables)")
	rootCmd.Flags().IntVarP(&flagHTTPPort, "http-port", "H", def.HTTPPort, "HTTP listen port (0 disables)")
	rootCmd.Flags().IntVarP(&flagMetricsPort, "metrics-port", "m", 0, "Prometheus /metrics listen port (0 disables)")
	rootCmd.Flags().StringVarP(&flagHtpasswd, "htpasswd", "p", "", "htpasswd credential file")
	rootCmd.Flags().StringVarP(&flagGroupFile, "group-file", "g", "", "group/access-level file")
	rootCmd.Flags().StringVarP(&flagCorePath, "core-path", "c", def.CorePath, "path to the graph core binary")
	rootCmd.Flags().StringVarP(&flagLogFlags, "log-flags", "l", "", "logging flags: any of e,i,a,q")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig layers the optional YAML file, then environment variables,
// then explicitly-passed flags (in that priority order) on top of
// config.Default(), and validates the result. Split out from run so the
// layering logic is testable without opening any sockets.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if flagConfigFile != "" {
		var err error
		cfg, err = config.LoadYAML(cfg, flagConfigFile)
		if err != nil {
			return cfg, err
		}
	}
	cfg = config.ApplyEnv(cfg)

	if cmd.Flags().Changed("tcp-port") {
		cfg.TCPPort = flagTCPPort
	}
	if cmd.Flags().Changed("http-port") {
		cfg.HTTPPort = flagHTTPPort
	}
	if cmd.Flags().Changed("metrics-port") {
		cfg.MetricsPort = flagMetricsPort
	}
	if cmd.Flags().Changed("htpasswd") {
		cfg.HtpasswdFile = flagHtpasswd
	}
	if cmd.Flags().Changed("group-file") {
		cfg.GroupFile = flagGroupFile
	}
	if cmd.Flags().Changed("core-path") {
		cfg.CorePath = flagCorePath
	}
	if cmd.Flags().Changed("log-flags") {
		cfg.LogFlags = flagLogFlags
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// run wires config, credential store, core registry, session table, router
// and reactor together, then blocks serving until the process is killed.
// It never calls os.Exit directly; a non-nil return here is turned into
// exit code 1 by main, matching spec.md §6's exit-code contract.
func run(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	flags := logging.ParseFlags(cfg.LogFlags)
	logger := logging.New(flags)
	access := logging.AccessLogger(logger, flags)

	authStore := auth.NewStore(cfg.HtpasswdFile, cfg.GroupFile)
	cores := core.NewRegistry()
	sessions := session.NewTable()
	coreEvents := make(chan core.ChildEvent, 256)
	rt := router.New(cores, sessions, authStore, cfg.CorePath, coreEvents, logger)
	rx := reactor.New(cores, sessions, rt, coreEvents, logger).WithAccessLogger(access)

	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err == nil {
		logger.Info("file descriptor limit", "cur", rlim.Cur, "max", rlim.Max)
	}

	go rx.Run()
	defer rx.Stop()

	if cfg.MetricsPort != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf(":%d", cfg.MetricsPort)
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				logger.Error("metrics listener failed", "err", err)
			}
		}()
		access.Info("metrics listening", "addr", metricsAddr)
	}

	var listeners []net.Listener
	errs := make(chan error, 2)
	if cfg.TCPPort != 0 {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.TCPPort))
		if err != nil {
			return fmt.Errorf("graphserv: tcp listen: %w", err)
		}
		defer ln.Close()
		listeners = append(listeners, ln)
		access.Info("tcp listening", "addr", ln.Addr().String())
		go func() { errs <- rx.ServeTCP(ln) }()
	}
	if cfg.HTTPPort != 0 {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.HTTPPort))
		if err != nil {
			return fmt.Errorf("graphserv: http listen: %w", err)
		}
		defer ln.Close()
		listeners = append(listeners, ln)
		access.Info("http listening", "addr", ln.Addr().String())
		go func() { errs <- rx.ServeHTTP(ln) }()
	}

	go handleSignals(logger, rx, listeners)

	return <-errs
}

// handleSignals gives the process the same double-Ctrl-C behavior as the
// original graphserv's SIGINT handler: the first interrupt only warns, the
// second closes every listener (which unblocks each Serve* goroutine's
// Accept and lets run return cleanly), and a third forces an immediate exit
// for an operator whose graceful shutdown is taking too long.
func handleSignals(logger *slog.Logger, rx *reactor.Reactor, listeners []net.Listener) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	<-sigCh
	logger.Warn("received interrupt, hit ctrl-c again to quit")

	<-sigCh
	logger.Warn("quitting")
	rx.Stop()
	for _, ln := range listeners {
		ln.Close()
	}

	<-sigCh
	logger.Error("received a third interrupt, forcing exit")
	os.Exit(1)
}
