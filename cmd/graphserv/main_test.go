package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every package-level flag variable to its zero value,
// clears each flag's Changed mark, and re-parses an empty argument list, so
// tests don't leak flag state
// into each other (cobra.Command.Flags() is a package-level singleton
// here, same as rootCmd itself).
func resetFlags(t *testing.T) {
	t.Helper()
	flagConfigFile = ""
	flagTCPPort = 0
	flagHTTPPort = 0
	flagMetricsPort = 0
	flagHtpasswd = ""
	flagGroupFile = ""
	flagCorePath = ""
	flagLogFlags = ""
	for _, name := range []string{"config", "tcp-port", "http-port", "metrics-port", "htpasswd", "group-file", "core-path", "log-flags"} {
		rootCmd.Flags().Lookup(name).Changed = false
	}
	require.NoError(t, rootCmd.Flags().Parse(nil))
}

func TestResolveConfigRejectsMissingCredentialFiles(t *testing.T) {
	resetFlags(t)
	_, err := resolveConfig(rootCmd)
	require.Error(t, err)
}

func TestResolveConfigAcceptsFlagOverrides(t *testing.T) {
	resetFlags(t)
	require.NoError(t, rootCmd.Flags().Parse([]string{
		"--htpasswd", "/etc/graphserv/htpasswd",
		"--group-file", "/etc/graphserv/group",
		"--tcp-port", "7000",
	}))

	cfg, err := resolveConfig(rootCmd)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.TCPPort)
	assert.Equal(t, "/etc/graphserv/htpasswd", cfg.HtpasswdFile)
}

func TestResolveConfigFlagsWinOverYAML(t *testing.T) {
	resetFlags(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "graphserv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"tcp_port: 1234\nhtpasswd_file: /from/yaml/htpasswd\ngroup_file: /from/yaml/group\n"), 0o600))

	require.NoError(t, rootCmd.Flags().Parse([]string{
		"--config", path,
		"--tcp-port", "9999",
	}))

	cfg, err := resolveConfig(rootCmd)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.TCPPort)
	assert.Equal(t, "/from/yaml/htpasswd", cfg.HtpasswdFile)
}

func TestResolveConfigRejectsBadYAMLPath(t *testing.T) {
	resetFlags(t)
	require.NoError(t, rootCmd.Flags().Parse([]string{"--config", "/nonexistent/graphserv.yaml"}))
	_, err := resolveConfig(rootCmd)
	require.Error(t, err)
}
