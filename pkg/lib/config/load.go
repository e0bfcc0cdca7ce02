package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/SanjoDeundiak/build-runner/pkg/lib/logx"
	"github.com/SanjoDeundiak/build-runner/pkg/lib/task"
	"github.com/spf13/viper"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. BRN_SERVER_LISTEN.
const EnvPrefix = "BRN"

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("server.listen", cfg.Server.Listen)
	v.SetDefault("server.tls.cert_file", cfg.Server.TLS.CertFile)
	v.SetDefault("server.tls.key_file", cfg.Server.TLS.KeyFile)
	v.SetDefault("server.tls.ca_file", cfg.Server.TLS.CAFile)
	v.SetDefault("client.address", cfg.Client.Address)
	v.SetDefault("client.tls.cert_file", cfg.Client.TLS.CertFile)
	v.SetDefault("client.tls.key_file", cfg.Client.TLS.KeyFile)
	v.SetDefault("client.tls.ca_file", cfg.Client.TLS.CAFile)
	v.SetDefault("runner.base_dir", cfg.Runner.BaseDir)
	v.SetDefault("runner.env", cfg.Runner.Env)
	v.SetDefault("runner.stop_grace_seconds", cfg.Runner.StopGraceSeconds)
	v.SetDefault("runner.wait_delay_seconds", cfg.Runner.WaitDelaySeconds)
	v.SetDefault("runner.limits.enabled", cfg.Runner.Limits.Enabled)
	v.SetDefault("runner.limits.cgroup_root", cfg.Runner.Limits.CgroupRoot)
	v.SetDefault("runner.limits.cpu_weight", cfg.Runner.Limits.CPUWeight)
	v.SetDefault("runner.limits.memory_high_bytes", cfg.Runner.Limits.MemoryHigh)
	v.SetDefault("runner.limits.io_weight", cfg.Runner.Limits.IOWeight)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.structured", cfg.Logging.Structured)

	configLoaded := false
	if _, statErr := os.Stat(path); statErr == nil {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
		}
		configLoaded = true
	} else if !errors.Is(statErr, fs.ErrNotExist) {
		return Config{}, zerr.With(zerr.Wrap(statErr, "failed to stat config file"), "path", path)
	}

	if configLoaded {
		if !v.InConfig("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
		// Tasks from the file replace the sample tasks instead of merging into them.
		cfg.Tasks = nil
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, zerr.Wrap(err, "failed to parse config file")
	}
	expandConfigEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints of a loaded config.
func Validate(cfg Config) error {
	if _, _, err := SplitAddress(cfg.Server.Listen); err != nil {
		return zerr.Wrap(err, "server.listen")
	}
	if cfg.Client.Address != "" {
		if _, _, err := SplitAddress(cfg.Client.Address); err != nil {
			return zerr.Wrap(err, "client.address")
		}
	}
	if err := validateTLS(cfg.Server.TLS); err != nil {
		return zerr.Wrap(err, "server.tls")
	}
	if err := validateTLS(cfg.Client.TLS); err != nil {
		return zerr.Wrap(err, "client.tls")
	}
	if cfg.Runner.StopGraceSeconds < 0 {
		return fmt.Errorf("runner.stop_grace_seconds must not be negative")
	}
	if cfg.Runner.WaitDelaySeconds < 0 {
		return fmt.Errorf("runner.wait_delay_seconds must not be negative")
	}
	for _, kv := range cfg.Runner.Env {
		if key, _, ok := strings.Cut(kv, "="); !ok || key == "" {
			return zerr.With(zerr.New("runner.env entries must be KEY=VALUE"), "entry", kv)
		}
	}
	if !logx.ValidLevel(cfg.Logging.Level) {
		return zerr.With(zerr.New("unsupported logging.level"), "level", cfg.Logging.Level)
	}
	if _, err := cfg.Catalogue(); err != nil {
		return zerr.Wrap(err, "tasks")
	}
	return nil
}

func validateTLS(t TLSConfig) error {
	if !t.Enabled() {
		return nil
	}
	if t.CertFile == "" || t.KeyFile == "" || t.CAFile == "" {
		return fmt.Errorf("cert_file, key_file and ca_file must be set together")
	}
	return nil
}

// SplitAddress turns a configured address into a network and address pair
// suitable for net.Listen: unix:///path gives ("unix", "/path"), anything
// else is treated as a TCP host:port.
func SplitAddress(addr string) (network, address string, err error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", "", fmt.Errorf("address is required")
	}
	if rest, ok := strings.CutPrefix(addr, "unix://"); ok {
		if rest == "" {
			return "", "", fmt.Errorf("unix socket path is required")
		}
		return "unix", rest, nil
	}
	if strings.Contains(addr, "://") {
		return "", "", fmt.Errorf("unsupported address scheme in %q", addr)
	}
	if !strings.Contains(addr, ":") {
		return "", "", fmt.Errorf("address %q must be unix:///path or host:port", addr)
	}
	return "tcp", addr, nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Server.Listen = task.ExpandEnv(cfg.Server.Listen)
	cfg.Server.TLS.CertFile = task.ExpandEnv(cfg.Server.TLS.CertFile)
	cfg.Server.TLS.KeyFile = task.ExpandEnv(cfg.Server.TLS.KeyFile)
	cfg.Server.TLS.CAFile = task.ExpandEnv(cfg.Server.TLS.CAFile)
	cfg.Client.Address = task.ExpandEnv(cfg.Client.Address)
	cfg.Client.TLS.CertFile = task.ExpandEnv(cfg.Client.TLS.CertFile)
	cfg.Client.TLS.KeyFile = task.ExpandEnv(cfg.Client.TLS.KeyFile)
	cfg.Client.TLS.CAFile = task.ExpandEnv(cfg.Client.TLS.CAFile)
	cfg.Runner.BaseDir = task.ExpandEnv(cfg.Runner.BaseDir)
	cfg.Runner.Limits.CgroupRoot = task.ExpandEnv(cfg.Runner.Limits.CgroupRoot)
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
