package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pagetap/pagetap/internal/browser"
	"github.com/pagetap/pagetap/internal/recording"
)

// Config is the top-level pagetap configuration.
type Config struct {
	Browser   browser.Config   `yaml:"browser"`
	Recording recording.Config `yaml:"recording"`
	Server    ServerConfig     `yaml:"server"`
	Store     StoreConfig      `yaml:"store"`
}

// ServerConfig configures the control server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StoreConfig configures host-side persistence.
type StoreConfig struct {
	// OutputDir receives per-session chunk subfolders.
	OutputDir string `yaml:"outputDir"`

	// DBPath is the SQLite session index location.
	DBPath string `yaml:"dbPath"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Browser: browser.Config{Headless: true},
		Server:  ServerConfig{Addr: "127.0.0.1:8943"},
		Store: StoreConfig{
			OutputDir: "./recordings",
			DBPath:    "./recordings/pagetap.db",
		},
	}
}

// Load reads a YAML config file. A missing path yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML bytes over the defaults, with environment
// variable expansion.
func LoadFromBytes(data []byte) (Config, error) {
	c := Default()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}
