package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. WINDOW_OPENER_SERVER_PORT.
const EnvPrefix = "WINDOW_OPENER"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	API       APIConfig       `yaml:"api"`
	Files     FilesConfig     `yaml:"files"`
	Execution ExecutionConfig `yaml:"execution"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Listen string `yaml:"listen" envconfig:"LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
	// BodyLimit caps request bodies in bytes.
	BodyLimit int64 `yaml:"body_limit" envconfig:"BODY_LIMIT"`
	// RateLimit is requests per second per client; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	RateBurst int     `yaml:"rate_burst" envconfig:"RATE_BURST"`
}

// APIConfig toggles the REST surfaces. Pointers distinguish "unset" from "no".
type APIConfig struct {
	LowLevel *bool `yaml:"lowlevel" envconfig:"LOWLEVEL"`
	Program  *bool `yaml:"program" envconfig:"PROGRAM"`
}

type FilesConfig struct {
	Programs string `yaml:"programs" envconfig:"PROGRAMS"`
	Secrets  string `yaml:"secrets" envconfig:"SECRETS"`
}

type ExecutionConfig struct {
	RemoteTimeout time.Duration `yaml:"remote_timeout" envconfig:"REMOTE_TIMEOUT"`
	PollInterval  time.Duration `yaml:"poll_interval" envconfig:"POLL_INTERVAL"`
	// MaxWait bounds window waits that set no maxwait option; 0 waits forever.
	MaxWait time.Duration `yaml:"max_wait" envconfig:"MAX_WAIT"`
}

type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// LowLevelEnabled reports whether /lowlevel is served.
func (c *APIConfig) LowLevelEnabled() bool { return c.LowLevel == nil || *c.LowLevel }

// ProgramEnabled reports whether /program is served.
func (c *APIConfig) ProgramEnabled() bool { return c.Program == nil || *c.Program }

// Address is the listen address for the HTTP server.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Listen, c.Port)
}

// Load reads daemon settings from path, applies environment overrides and
// fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	setDefaults(&cfg)

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.BodyLimit == 0 {
		cfg.Server.BodyLimit = 1 << 20
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 20
	}
	if cfg.Files.Programs == "" {
		cfg.Files.Programs = "config.yml"
	}
	if cfg.Files.Secrets == "" {
		cfg.Files.Secrets = "secrets.yml"
	}
	if cfg.Execution.RemoteTimeout == 0 {
		cfg.Execution.RemoteTimeout = 30 * time.Second
	}
	if cfg.Execution.PollInterval == 0 {
		cfg.Execution.PollInterval = 100 * time.Millisecond
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
