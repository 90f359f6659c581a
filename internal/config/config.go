// Package config resolves graphserv's startup configuration from, in
// increasing priority: an optional YAML file (-f), environment variables,
// then CLI flags, with flags always winning.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is every knob spec.md §6's CLI accepts, plus the metrics listener
// this expansion adds.
type Config struct {
	TCPPort      int    `yaml:"tcp_port"`
	HTTPPort     int    `yaml:"http_port"`
	MetricsPort  int    `yaml:"metrics_port"`
	HtpasswdFile string `yaml:"htpasswd_file"`
	GroupFile    string `yaml:"group_file"`
	CorePath     string `yaml:"core_path"`
	LogFlags     string `yaml:"log_flags"`
}

// Default returns spec.md §6's documented defaults: TCP 6666, HTTP 8090,
// core path ./graphcore/graphcore, metrics disabled, no log flags (error
// only).
func Default() Config {
	return Config{
		TCPPort:  6666,
		HTTPPort: 8090,
		CorePath: "./graphcore/graphcore",
	}
}

// LoadYAML overlays file's contents onto base, returning the merged result.
// Zero-value fields in the YAML file leave base's value untouched, so a
// config file only has to mention the settings it wants to override.
func LoadYAML(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("config: read %s: %w", path, err)
	}
	var fromFile Config
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return base, fmt.Errorf("config: parse %s: %w", path, err)
	}
	merged := base
	if fromFile.TCPPort != 0 {
		merged.TCPPort = fromFile.TCPPort
	}
	if fromFile.HTTPPort != 0 {
		merged.HTTPPort = fromFile.HTTPPort
	}
	if fromFile.MetricsPort != 0 {
		merged.MetricsPort = fromFile.MetricsPort
	}
	if fromFile.HtpasswdFile != "" {
		merged.HtpasswdFile = fromFile.HtpasswdFile
	}
	if fromFile.GroupFile != "" {
		merged.GroupFile = fromFile.GroupFile
	}
	if fromFile.CorePath != "" {
		merged.CorePath = fromFile.CorePath
	}
	if fromFile.LogFlags != "" {
		merged.LogFlags = fromFile.LogFlags
	}
	return merged, nil
}

// ApplyEnv overlays the GRAPHSERV_* environment variables this expansion
// adds: a non-empty variable always overrides the value it names.
func ApplyEnv(c Config) Config {
	if v := getenv("GRAPHSERV_TCP_PORT", ""); v != "" {
		c.TCPPort = atoiOr(v, c.TCPPort)
	}
	if v := getenv("GRAPHSERV_HTTP_PORT", ""); v != "" {
		c.HTTPPort = atoiOr(v, c.HTTPPort)
	}
	if v := getenv("GRAPHSERV_HTPASSWD", ""); v != "" {
		c.HtpasswdFile = v
	}
	if v := getenv("GRAPHSERV_GROUPFILE", ""); v != "" {
		c.GroupFile = v
	}
	if v := getenv("GRAPHSERV_CORE_PATH", ""); v != "" {
		c.CorePath = v
	}
	if v := getenv("GRAPHSERV_LOG_FLAGS", ""); v != "" {
		c.LogFlags = v
	}
	return c
}

// Validate enforces spec.md §6's "at least one of TCP/HTTP ports must be
// non-zero" invariant and the exit-code-1 contract for invalid flags: a
// non-nil error here is the caller's cue to exit 1 without starting anything.
func (c Config) Validate() error {
	if c.TCPPort == 0 && c.HTTPPort == 0 {
		return fmt.Errorf("config: at least one of -t/-H must be non-zero")
	}
	if c.TCPPort < 0 || c.HTTPPort < 0 || c.MetricsPort < 0 {
		return fmt.Errorf("config: ports must not be negative")
	}
	if c.HtpasswdFile == "" || c.GroupFile == "" {
		return fmt.Errorf("config: -p and -g are required")
	}
	if c.CorePath == "" {
		return fmt.Errorf("config: -c must not be empty")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoiOr(s string, def int) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return def
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
