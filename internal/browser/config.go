package browser

// Driver selects how pagetap talks to the browser.
const (
	// DriverChromedp drives a Chrome instance over raw CDP.
	DriverChromedp = "chromedp"

	// DriverPlaywright drives pages through a Playwright server.
	DriverPlaywright = "playwright"
)

// Config is the browser configuration from pagetap config.
type Config struct {
	// Driver is "chromedp" (default) or "playwright".
	Driver string `json:"driver,omitempty" yaml:"driver,omitempty"`

	// Headless runs the browser without UI.
	Headless bool `json:"headless,omitempty" yaml:"headless,omitempty"`

	// NoSandbox disables the Chrome sandbox (needed in some containers).
	NoSandbox bool `json:"noSandbox,omitempty" yaml:"noSandbox,omitempty"`

	// ExecutablePath overrides auto-detection of Chrome.
	ExecutablePath string `json:"executablePath,omitempty" yaml:"executablePath,omitempty"`

	// CDPUrl attaches to an already-running browser instead of
	// launching one (for remote browsers).
	CDPUrl string `json:"cdpUrl,omitempty" yaml:"cdpUrl,omitempty"`
}

// ResolvedConfig is the fully resolved browser configuration.
type ResolvedConfig struct {
	Driver         string
	Headless       bool
	NoSandbox      bool
	ExecutablePath string
	CDPUrl         string
}

// ResolveConfig resolves a browser config with defaults applied.
func ResolveConfig(cfg Config) ResolvedConfig {
	resolved := ResolvedConfig{
		Driver:         cfg.Driver,
		Headless:       cfg.Headless,
		NoSandbox:      cfg.NoSandbox,
		ExecutablePath: cfg.ExecutablePath,
		CDPUrl:         cfg.CDPUrl,
	}
	if resolved.Driver == "" {
		resolved.Driver = DriverChromedp
	}
	return resolved
}
