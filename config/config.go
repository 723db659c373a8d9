// Package config loads the application configuration from a TOML file,
// applying defaults for anything the file leaves unset.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/pelletier/go-toml/v2"
)

// Config is the full application configuration.
type Config struct {
	// EngineAddress is the host:port of the generation engine.
	EngineAddress string `toml:"engine_address" default:"127.0.0.1:8188"`

	// ListenAddress is where the UI-facing HTTP shell binds.
	ListenAddress string `toml:"listen_address" default:":8080"`

	// OllamaURL is the base URL of the local prompt-refinement model server.
	OllamaURL string `toml:"ollama_url" default:"http://127.0.0.1:11434"`

	// StateDir holds favorites, history and settings documents.
	StateDir string `toml:"state_dir" default:"state"`

	// OutputDir is where the engine writes artifacts, served back to the UI.
	OutputDir string `toml:"output_dir" default:"output"`

	// PollIntervalMS is the delay between job poll attempts.
	PollIntervalMS int `toml:"poll_interval_ms" default:"500"`
}

// PollInterval returns the poll interval as a duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// Default returns the configuration used when no file exists.
func Default() Config {
	cfg := Config{}
	defaults.SetDefaults(&cfg)
	return cfg
}

// Load reads the TOML file at path over the defaults.  A missing file is
// not an error: the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot run with.
func (c Config) Validate() error {
	if c.EngineAddress == "" {
		return errors.New("engine_address must not be empty")
	}
	if c.ListenAddress == "" {
		return errors.New("listen_address must not be empty")
	}
	if c.PollIntervalMS < 100 {
		return fmt.Errorf("poll_interval_ms %d is below the 100ms floor", c.PollIntervalMS)
	}
	return nil
}
