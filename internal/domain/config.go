package domain

import "time"

// Config mirrors ~/.config/matrixsh/config.yaml.
type Config struct {
	ConfigFormatVersion string           `yaml:"config_format_version"`
	Gateway             GatewaySettings  `yaml:"gateway"`
	Shell               ShellSettings    `yaml:"shell"`
	Security            SecuritySettings `yaml:"security"`
	History             HistorySettings  `yaml:"history"`
	UI                  UISettings       `yaml:"ui"`
}

// GatewaySettings describes how to reach the completion gateway.
type GatewaySettings struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key,omitempty"`
	Token          string `yaml:"token,omitempty"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout"`
}

// ShellSettings selects the execution backend.
type ShellSettings struct {
	Mode string `yaml:"mode"`
}

// SecuritySettings points at an optional file of extra denylist rules.
type SecuritySettings struct {
	RulesFile string `yaml:"rules_file"`
}

// HistorySettings controls where per-directory logs live.
type HistorySettings struct {
	Dir   string `yaml:"dir"`
	Index bool   `yaml:"index"`
}

// UISettings captures presentation toggles.
type UISettings struct {
	Stream bool `yaml:"stream"`
	Color  bool `yaml:"color"`
}

// Settings is the immutable session configuration handed to the core.
type Settings struct {
	BaseURL string
	APIKey  string
	Token   string
	Model   string
	Timeout time.Duration
}

// Credential returns the bearer credential, preferring the pairing token.
func (s Settings) Credential() string {
	if s.Token != "" {
		return s.Token
	}
	return s.APIKey
}
