package recording

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for recording sessions.
const (
	// DefaultCDNURL serves the rrweb UMD bundle from unpkg. If the CDN
	// is unreachable the loader reports load_failed; self-host the
	// bundle or point at another CDN in restricted environments.
	DefaultCDNURL = "https://unpkg.com/rrweb@2.0.0-alpha.17/dist/rrweb.umd.cjs"

	DefaultLoadTimeout   = 10 * time.Second
	DefaultFlushInterval = 5 * time.Second
)

// Config is the recording session configuration from pagetap config.
type Config struct {
	// CDNURL is where the loader fetches the recorder library.
	CDNURL string `json:"cdnUrl,omitempty" yaml:"cdnUrl,omitempty"`

	// LoadTimeout bounds the wait for the recorder library to load.
	LoadTimeout time.Duration `json:"loadTimeout,omitempty" yaml:"loadTimeout,omitempty"`

	// FlushInterval is the period of the background event flush.
	FlushInterval time.Duration `json:"flushInterval,omitempty" yaml:"flushInterval,omitempty"`
}

// UnmarshalYAML accepts Go duration strings ("2s", "500ms") for the
// timeout fields, which yaml.v3 does not handle natively.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		CDNURL        string `yaml:"cdnUrl"`
		LoadTimeout   string `yaml:"loadTimeout"`
		FlushInterval string `yaml:"flushInterval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.CDNURL = raw.CDNURL
	if raw.LoadTimeout != "" {
		d, err := time.ParseDuration(raw.LoadTimeout)
		if err != nil {
			return fmt.Errorf("loadTimeout: %w", err)
		}
		c.LoadTimeout = d
	}
	if raw.FlushInterval != "" {
		d, err := time.ParseDuration(raw.FlushInterval)
		if err != nil {
			return fmt.Errorf("flushInterval: %w", err)
		}
		c.FlushInterval = d
	}
	return nil
}

// Resolve returns the config with defaults applied.
func (c Config) Resolve() Config {
	if c.CDNURL == "" {
		c.CDNURL = DefaultCDNURL
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = DefaultLoadTimeout
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	return c
}
