package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SessionOverrides are per-invocation values from CLI flags. Empty fields keep the file value.
type SessionOverrides struct {
	BaseURL string
	Model   string
	APIKey  string
	Mode    string
	Stream  bool
}

// Apply layers overrides on top of the loaded configuration.
func (c Config) Apply(o SessionOverrides) Config {
	if o.BaseURL != "" {
		c.Gateway.BaseURL = o.BaseURL
	}
	if o.Model != "" {
		c.Gateway.Model = o.Model
	}
	if o.APIKey != "" {
		c.Gateway.APIKey = o.APIKey
	}
	if o.Mode != "" {
		c.Shell.Mode = o.Mode
	}
	if o.Stream {
		c.UI.Stream = true
	}
	return c
}

// GetTimeout returns the gateway timeout with the default applied.
func (c *Config) GetTimeout() time.Duration {
	if c.Gateway.TimeoutSeconds <= 0 {
		return DefaultGatewayTimeout
	}
	return time.Duration(c.Gateway.TimeoutSeconds) * time.Second
}

// GetModel returns the configured model name or the default.
func (c *Config) GetModel() string {
	if strings.TrimSpace(c.Gateway.Model) == "" {
		return DefaultModel
	}
	return strings.TrimSpace(c.Gateway.Model)
}

// GetShellMode parses the configured mode, falling back to auto.
func (c *Config) GetShellMode() ShellMode {
	mode, err := ParseShellMode(c.Shell.Mode)
	if err != nil {
		return ShellAuto
	}
	return mode
}

// HasCredentials reports whether a token or API key is present.
func (c *Config) HasCredentials() bool {
	return strings.TrimSpace(c.Gateway.Token) != "" || strings.TrimSpace(c.Gateway.APIKey) != ""
}

// Settings validates the configuration and freezes it into session settings.
// Every failure wraps ErrStartupConfig.
func (c *Config) Settings() (Settings, error) {
	raw := strings.TrimSpace(c.Gateway.BaseURL)
	if raw == "" {
		return Settings{}, fmt.Errorf("%w: gateway base_url is empty", ErrStartupConfig)
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: invalid base_url %q: %v", ErrStartupConfig, raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Settings{}, fmt.Errorf("%w: base_url %q must use http or https", ErrStartupConfig, raw)
	}
	if parsed.Host == "" {
		return Settings{}, fmt.Errorf("%w: base_url %q has no host", ErrStartupConfig, raw)
	}
	if !c.HasCredentials() {
		return Settings{}, fmt.Errorf("%w: no token or api_key configured (run matrixsh setup or pass --key)", ErrStartupConfig)
	}
	if _, err := ParseShellMode(c.Shell.Mode); err != nil {
		return Settings{}, fmt.Errorf("%w: %v", ErrStartupConfig, err)
	}

	return Settings{
		BaseURL: raw,
		APIKey:  strings.TrimSpace(c.Gateway.APIKey),
		Token:   strings.TrimSpace(c.Gateway.Token),
		Model:   c.GetModel(),
		Timeout: c.GetTimeout(),
	}, nil
}
