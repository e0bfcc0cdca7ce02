// Package config loads the build runner configuration file.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/SanjoDeundiak/build-runner/pkg/lib/runner"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/task"
)

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// Config is the top-level configuration shared by the daemon and the CLI.
type Config struct {
	ConfigVersion int           `mapstructure:"config_version" yaml:"config_version"`
	Server        ServerConfig  `mapstructure:"server" yaml:"server"`
	Client        ClientConfig  `mapstructure:"client" yaml:"client"`
	Runner        RunnerConfig  `mapstructure:"runner" yaml:"runner"`
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Tasks         []task.Task   `mapstructure:"tasks" yaml:"tasks"`
}

// ServerConfig configures the control API listener.
type ServerConfig struct {
	// Listen is unix:///path/to.sock or host:port.
	Listen string    `mapstructure:"listen" yaml:"listen"`
	TLS    TLSConfig `mapstructure:"tls" yaml:"tls"`
}

// ClientConfig configures how the CLI reaches the daemon. An empty Address
// falls back to server.listen.
type ClientConfig struct {
	Address string    `mapstructure:"address" yaml:"address"`
	TLS     TLSConfig `mapstructure:"tls" yaml:"tls"`
}

// TLSConfig enables mutual TLS on TCP addresses when all three files are set.
type TLSConfig struct {
	CertFile string `mapstructure:"cert_file" yaml:"cert_file"`
	KeyFile  string `mapstructure:"key_file" yaml:"key_file"`
	CAFile   string `mapstructure:"ca_file" yaml:"ca_file"`
}

// Enabled reports whether any TLS material is configured.
func (t TLSConfig) Enabled() bool {
	return t.CertFile != "" || t.KeyFile != "" || t.CAFile != ""
}

// RunnerConfig configures process execution.
type RunnerConfig struct {
	// BaseDir holds per-run working directories. Empty uses a temporary directory.
	BaseDir          string       `mapstructure:"base_dir" yaml:"base_dir"`
	Env              []string     `mapstructure:"env" yaml:"env"`
	StopGraceSeconds int          `mapstructure:"stop_grace_seconds" yaml:"stop_grace_seconds"`
	WaitDelaySeconds int          `mapstructure:"wait_delay_seconds" yaml:"wait_delay_seconds"`
	Limits           LimitsConfig `mapstructure:"limits" yaml:"limits"`
}

// StopGrace returns the SIGTERM to SIGKILL delay.
func (r RunnerConfig) StopGrace() time.Duration {
	return time.Duration(r.StopGraceSeconds) * time.Second
}

// WaitDelay returns how long output pipes are drained after exit.
func (r RunnerConfig) WaitDelay() time.Duration {
	return time.Duration(r.WaitDelaySeconds) * time.Second
}

// RunnerOptions converts the section into a runner config. Listener,
// Dispatcher and Logger are left for the caller.
func (r RunnerConfig) RunnerOptions() runner.Config {
	return runner.Config{
		BaseDir:   r.BaseDir,
		Env:       r.Env,
		StopGrace: r.StopGrace(),
		WaitDelay: r.WaitDelay(),
		Limits: runner.Limits{
			Enabled:    r.Limits.Enabled,
			Root:       r.Limits.CgroupRoot,
			CPUWeight:  r.Limits.CPUWeight,
			MemoryHigh: r.Limits.MemoryHigh,
			IOWeight:   r.Limits.IOWeight,
		},
	}
}

// LimitsConfig configures cgroup v2 limits (Linux, root only).
type LimitsConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	CgroupRoot string `mapstructure:"cgroup_root" yaml:"cgroup_root"`
	CPUWeight  int    `mapstructure:"cpu_weight" yaml:"cpu_weight"`
	MemoryHigh int64  `mapstructure:"memory_high_bytes" yaml:"memory_high_bytes"`
	IOWeight   int    `mapstructure:"io_weight" yaml:"io_weight"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`
	// Structured switches from console to JSON lines.
	Structured bool `mapstructure:"structured" yaml:"structured"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() (Config, error) {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		runtimeDir = os.TempDir()
	}
	return Config{
		ConfigVersion: CurrentConfigVersion,
		Server: ServerConfig{
			Listen: "unix://" + filepath.Join(runtimeDir, "brn.sock"),
		},
		Client: ClientConfig{},
		Runner: RunnerConfig{
			BaseDir:          "",
			Env:              []string{},
			StopGraceSeconds: 5,
			WaitDelaySeconds: 5,
			Limits: LimitsConfig{
				Enabled:    false,
				CgroupRoot: "/sys/fs/cgroup/brn",
				CPUWeight:  100,
				MemoryHigh: 0,
				IOWeight:   100,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Tasks: []task.Task{
			{
				Name:        "hello",
				Description: "Print a greeting",
				Command:     "echo",
				Args:        []string{"hello from brn"},
			},
		},
	}, nil
}

// DefaultConfigPath returns the standard config path. BRN_CONFIG overrides it.
func DefaultConfigPath() (string, error) {
	if path := os.Getenv("BRN_CONFIG"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".brn", "config.yaml"), nil
}

// ClientAddress returns the address the CLI dials.
func (c Config) ClientAddress() string {
	if c.Client.Address != "" {
		return c.Client.Address
	}
	return c.Server.Listen
}

// Catalogue builds the task catalogue from the configured tasks.
func (c Config) Catalogue() (*task.Catalogue, error) {
	return task.NewCatalogue(c.Tasks)
}
