package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/ports"
)

// Service runs environment diagnostics.
type Service struct {
	ConfigProvider ports.ConfigProvider
	Denylist       ports.DenylistSource
	// ShellBinary is the program the session backend launches.
	ShellBinary string
	HistoryDir  string
	// Gateway is nil when no usable settings could be built.
	Gateway ports.SuggestionClient

	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
}

// Run executes checks and returns a report.
func (s *Service) Run(ctx context.Context) (domain.HealthReport, error) {
	var checks []domain.HealthCheck

	cfg, err := s.ConfigProvider.Load(ctx)
	if err != nil {
		checks = append(checks, fail("Config file", fmt.Sprintf("load failed: %v", err)))
		return domain.HealthReport{Checks: checks}, err
	}
	checks = append(checks, ok("Config file", fmt.Sprintf("loaded (format %s)", cfg.ConfigFormatVersion)))

	if cfg.HasCredentials() {
		source := "api key"
		if strings.TrimSpace(cfg.Gateway.Token) != "" {
			source = "pairing token"
		}
		checks = append(checks, ok("Credentials", source+" present"))
	} else {
		checks = append(checks, fail("Credentials", "no token or api_key; run matrixsh setup or pass --key"))
	}

	if _, err := cfg.Settings(); err != nil && cfg.HasCredentials() {
		checks = append(checks, fail("Settings", err.Error()))
	}

	if s.Denylist != nil {
		checks = append(checks, ok("Denylist", fmt.Sprintf("%d rules loaded", len(s.Denylist.Rules()))))
	} else {
		checks = append(checks, warn("Denylist", "safety gate not initialized"))
	}

	checks = append(checks, s.shellCheck())
	checks = append(checks, historyCheck(s.HistoryDir))
	checks = append(checks, s.gatewayCheck(ctx))

	return domain.HealthReport{Checks: checks}, nil
}

func (s *Service) shellCheck() domain.HealthCheck {
	if s.ShellBinary == "" {
		return warn("Shell backend", "no backend selected")
	}
	lookPath := s.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(s.ShellBinary)
	if err != nil {
		return fail("Shell backend", fmt.Sprintf("%s not found on PATH", s.ShellBinary))
	}
	return ok("Shell backend", path)
}

func historyCheck(dir string) domain.HealthCheck {
	if dir == "" {
		return warn("History", "no history directory configured")
	}
	if err := os.MkdirAll(dir, domain.DirectoryPermissions); err != nil {
		return fail("History", err.Error())
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return fail("History", fmt.Sprintf("%s is not writable: %v", dir, err))
	}
	probe.Close()
	os.Remove(probe.Name())

	logs, _ := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	var size int64
	for _, path := range logs {
		if info, err := os.Stat(path); err == nil {
			size += info.Size()
		}
	}
	return ok("History", fmt.Sprintf("%s writable, %d logs, %s", dir, len(logs), humanize.Bytes(uint64(size))))
}

func (s *Service) gatewayCheck(ctx context.Context) domain.HealthCheck {
	if s.Gateway == nil {
		return warn("Gateway", "not configured")
	}
	if !s.Gateway.Health(ctx) {
		return fail("Gateway", "health probe failed")
	}
	return ok("Gateway", "reachable")
}

func ok(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthOK, Details: details}
}

func warn(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthWarn, Details: details}
}

func fail(name, details string) domain.HealthCheck {
	return domain.HealthCheck{Name: name, Status: domain.HealthError, Details: details}
}
