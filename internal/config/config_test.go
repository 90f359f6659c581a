package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, 6666, c.TCPPort)
	assert.Equal(t, 8090, c.HTTPPort)
	assert.Equal(t, "./graphcore/graphcore", c.CorePath)
}

func TestValidateRequiresAtLeastOnePort(t *testing.T) {
	c := Default()
	c.TCPPort = 0
	c.HTTPPort = 0
	c.HtpasswdFile = "passwd"
	c.GroupFile = "group"
	require.Error(t, c.Validate())

	c.HTTPPort = 8090
	require.NoError(t, c.Validate())
}

func TestValidateRejectsMissingCredentialFiles(t *testing.T) {
	c := Default()
	err := c.Validate()
	require.Error(t, err)
}

func TestValidateRejectsNegativePorts(t *testing.T) {
	c := Default()
	c.HtpasswdFile = "passwd"
	c.GroupFile = "group"
	c.TCPPort = -1
	require.Error(t, c.Validate())
}

func TestLoadYAMLOverlaysOnlyPresentFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graphserv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_port: 9090\ncore_path: /opt/graphcore\n"), 0o600))

	base := Default()
	merged, err := LoadYAML(base, path)
	require.NoError(t, err)

	assert.Equal(t, base.TCPPort, merged.TCPPort)
	assert.Equal(t, 9090, merged.HTTPPort)
	assert.Equal(t, "/opt/graphcore", merged.CorePath)
}

func TestLoadYAMLReturnsErrorOnMissingFile(t *testing.T) {
	_, err := LoadYAML(Default(), "/nonexistent/graphserv.yaml")
	require.Error(t, err)
}

func TestApplyEnvOverridesConfig(t *testing.T) {
	t.Setenv("GRAPHSERV_TCP_PORT", "7000")
	t.Setenv("GRAPHSERV_HTPASSWD", "/etc/graphserv/htpasswd")
	t.Setenv("GRAPHSERV_LOG_FLAGS", "ia")

	c := ApplyEnv(Default())
	assert.Equal(t, 7000, c.TCPPort)
	assert.Equal(t, "/etc/graphserv/htpasswd", c.HtpasswdFile)
	assert.Equal(t, "ia", c.LogFlags)
}

func TestApplyEnvIgnoresNonNumericPort(t *testing.T) {
	t.Setenv("GRAPHSERV_TCP_PORT", "not-a-number")
	c := ApplyEnv(Default())
	assert.Equal(t, Default().TCPPort, c.TCPPort)
}
