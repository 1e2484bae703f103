package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/ports"
)

// Guardrail implements the SafetyGate port with an ordered denylist.
// The first matching rule wins.
type Guardrail struct {
	rules []compiledRule
}

type compiledRule struct {
	re   *regexp.Regexp
	rule domain.DenylistRule
}

// RulesFile is the YAML schema root of an additional rules file.
type RulesFile struct {
	Rules []domain.DenylistRule `yaml:"rules"`
}

// NewGuardrail compiles the built-in rules followed by any rules found at path.
// A rules file can only add rules; a missing file is not an error.
func NewGuardrail(path string) (*Guardrail, error) {
	extra, err := loadRules(path)
	if err != nil {
		return nil, err
	}
	return compile(append(DefaultRules(), extra...))
}

func compile(rules []domain.DenylistRule) (*Guardrail, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if strings.TrimSpace(rule.Pattern) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile denylist rule %q: %w", rule.Pattern, err)
		}
		if rule.Reason == "" {
			rule.Reason = "matches denylist pattern " + rule.Pattern
		}
		compiled = append(compiled, compiledRule{re: re, rule: rule})
	}
	return &Guardrail{rules: compiled}, nil
}

// Check implements ports.SafetyGate.
func (g *Guardrail) Check(command string) domain.Verdict {
	if g == nil {
		return domain.Allowed()
	}
	for _, rule := range g.rules {
		if rule.re.MatchString(command) {
			return domain.Blocked(rule.rule)
		}
	}
	return domain.Allowed()
}

// Rules returns the active rules in evaluation order.
func (g *Guardrail) Rules() []domain.DenylistRule {
	out := make([]domain.DenylistRule, 0, len(g.rules))
	for _, rule := range g.rules {
		out = append(out, rule.rule)
	}
	return out
}

func loadRules(path string) ([]domain.DenylistRule, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(expandPath(path))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read denylist rules: %w", err)
	}
	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse denylist rules: %w", err)
	}
	return file.Rules, nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// DefaultRules is the built-in denylist. Patterns are matched case-insensitively.
func DefaultRules() []domain.DenylistRule {
	return []domain.DenylistRule{
		{Pattern: `(^|[^\w-])format(\.com)?([^\w.-]|$)`, Reason: "Disk formatting (format)"},
		{Pattern: `\bformat-volume\b`, Reason: "Disk formatting (Format-Volume)"},
		{Pattern: `\b(clear-disk|initialize-disk)\b`, Reason: "Disk wipe or initialization (PowerShell)"},
		{Pattern: `\bdiskutil\s+(erase\w*|secureerase|zerodisk|partitiondisk)\b`, Reason: "Disk erase or partitioning (diskutil)"},
		{Pattern: `\bdiskpart\b`, Reason: "Disk partitioning (diskpart)"},
		{Pattern: `\bbcdedit\b`, Reason: "Boot configuration edit (bcdedit)"},
		{Pattern: `\bbootrec\b`, Reason: "Boot record repair (bootrec)"},
		{Pattern: `\breg\s+(add|delete|import|load|unload)\b`, Reason: "Windows registry modification"},
		{Pattern: `\bmkfs(\.\w+)?\b`, Reason: "Filesystem creation (mkfs)"},
		{Pattern: `\bdd\s+if=`, Reason: "Raw disk copy (dd)"},
		{Pattern: `\bdd\s+.*of=/dev/`, Reason: "Raw write to block device (dd)"},
		{Pattern: `>\s*/dev/(sd[a-z]|nvme\d|hd[a-z])`, Reason: "Redirect into a block device"},
		{Pattern: `\b(parted|gdisk|fdisk|sfdisk|wipefs)\b`, Reason: "Disk partitioning tool"},
		{Pattern: `\b(shutdown|reboot|halt|poweroff)\b`, Reason: "System shutdown or reboot"},
		{Pattern: `\b(stop-computer|restart-computer)\b`, Reason: "System shutdown or reboot (PowerShell)"},
		{Pattern: `\binit\s+[06]\b`, Reason: "System shutdown or reboot (init)"},
		{Pattern: `\bsystemctl\s+(poweroff|reboot|halt)\b`, Reason: "System shutdown or reboot (systemctl)"},
		{Pattern: `\b(apt|apt-get)\s+(remove|purge|autoremove)\b`, Reason: "Package removal (apt)"},
		{Pattern: `\b(yum|dnf)\s+(remove|erase)\b`, Reason: "Package removal (yum/dnf)"},
		{Pattern: `\bbrew\s+uninstall\b`, Reason: "Package removal (brew)"},
		{Pattern: `\bpacman\s+-R`, Reason: "Package removal (pacman)"},
		{Pattern: `\b(grub-install|efibootmgr)\b`, Reason: "Bootloader modification"},
		{Pattern: `\brm\s+(-[a-z]*r[a-z]*f[a-z]*|-[a-z]*f[a-z]*r[a-z]*)\s+/(\s|$|\*)`, Reason: "Recursive delete of the root directory"},
		{Pattern: `:\(\)\s*\{\s*:\|:&\s*\};:`, Reason: "Fork bomb"},
	}
}

var _ ports.SafetyGate = (*Guardrail)(nil)
