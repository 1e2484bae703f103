package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/pkg/filesystem"
	"github.com/doeshing/matrixsh/internal/ports"
)

// FileLoader loads YAML configuration from ~/.config/matrixsh/config.yaml
// (overridable via MATRIXSH_CONFIG), then applies .env files and environment
// overrides.
type FileLoader struct {
	overridePath string
	workDir      string
}

// NewFileLoader builds a new loader. An empty path uses the default location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// WithWorkDir sets the directory searched for a project .env file.
func (l *FileLoader) WithWorkDir(dir string) *FileLoader {
	l.workDir = dir
	return l
}

// Load implements ports.ConfigProvider.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.Path()
	LoadDotEnv(filepath.Join(filepath.Dir(path), ".env"), filepath.Join(l.workdir(), ".env"))

	cfg, err := readOrCreate(path)
	if err != nil {
		return domain.Config{}, err
	}
	return applyEnv(hydrateDefaults(cfg)), nil
}

// Path returns the config file location.
func (l *FileLoader) Path() string {
	if l.overridePath != "" {
		return filesystem.ExpandPath(l.overridePath)
	}
	if custom := os.Getenv("MATRIXSH_CONFIG"); custom != "" {
		return filesystem.ExpandPath(custom)
	}
	return filepath.Join(filesystem.ConfigDir(), "config.yaml")
}

func (l *FileLoader) workdir() string {
	if l.workDir != "" {
		return l.workDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func readOrCreate(path string) (domain.Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := DefaultConfig()
		if err := writeDefault(path, cfg); err != nil {
			return domain.Config{}, err
		}
		return cfg, nil
	}
	if err != nil {
		return domain.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func writeDefault(path string, cfg domain.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, domain.SecureFilePermissions)
}

// DefaultConfig is written on first run.
func DefaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		Gateway: domain.GatewaySettings{
			BaseURL:        domain.DefaultBaseURL,
			Model:          domain.DefaultModel,
			TimeoutSeconds: int(domain.DefaultGatewayTimeout.Seconds()),
		},
		Shell: domain.ShellSettings{Mode: string(domain.ShellAuto)},
		History: domain.HistorySettings{
			Dir:   filepath.Join(filesystem.DataDir(), "history"),
			Index: true,
		},
		UI: domain.UISettings{Color: true},
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	if cfg.ConfigFormatVersion == "" {
		cfg.ConfigFormatVersion = "1"
	}
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = domain.DefaultBaseURL
	}
	if cfg.Gateway.Model == "" {
		cfg.Gateway.Model = domain.DefaultModel
	}
	if cfg.Gateway.TimeoutSeconds <= 0 {
		cfg.Gateway.TimeoutSeconds = int(domain.DefaultGatewayTimeout.Seconds())
	}
	if cfg.Shell.Mode == "" {
		cfg.Shell.Mode = string(domain.ShellAuto)
	}
	if cfg.History.Dir == "" {
		cfg.History.Dir = filepath.Join(filesystem.DataDir(), "history")
	}
	cfg.History.Dir = filesystem.ExpandPath(cfg.History.Dir)
	cfg.Security.RulesFile = filesystem.ExpandPath(cfg.Security.RulesFile)
	return cfg
}

var _ ports.ConfigProvider = (*FileLoader)(nil)
