package domain

import (
	"regexp"
	"strings"
)

// Risk is the advisory label the gateway attaches to a suggestion.
type Risk string

const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// ParseRisk normalises a gateway label. Anything unknown, including the
// empty string, is treated as high.
func ParseRisk(value string) Risk {
	switch Risk(strings.ToLower(strings.TrimSpace(value))) {
	case RiskLow:
		return RiskLow
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	default:
		return RiskHigh
	}
}

// HighRiskPatterns mark privileged or destructive commands. A suggestion
// matching one is shown as high risk whatever label the gateway gave it.
var HighRiskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\brm\s+(-rf|-fr)\b`),
	regexp.MustCompile(`(?i)\bdel\s+/[fsq]\b`),
	regexp.MustCompile(`(?i)\bformat\s+`),
	regexp.MustCompile(`(?i)\bmkfs\b`),
	regexp.MustCompile(`(?i)\bdd\s+if=`),
	regexp.MustCompile(`(?i)\bsudo\b`),
	regexp.MustCompile(`(?i)\bchown\b`),
	regexp.MustCompile(`(?i)\bchmod\s+7`),
	regexp.MustCompile(`(?i)\breg\s+add\b`),
	regexp.MustCompile(`(?i)\bschtasks\b`),
	regexp.MustCompile(`(?i)\bshutdown\b`),
	regexp.MustCompile(`(?i)\breboot\b`),
}

// RiskFloor returns the lowest risk a command may be displayed with.
func RiskFloor(command string) Risk {
	for _, re := range HighRiskPatterns {
		if re.MatchString(command) {
			return RiskHigh
		}
	}
	return RiskLow
}

func (r Risk) rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	default:
		return 2
	}
}

// Suggestion is a parsed gateway reply.
type Suggestion struct {
	Explanation string `json:"explanation"`
	Command     string `json:"command"`
	Risk        Risk   `json:"risk"`
}

// WithRiskFloor raises the risk label to the local floor for the command.
// A label is never lowered.
func (s Suggestion) WithRiskFloor() Suggestion {
	if floor := RiskFloor(s.Command); floor.rank() > s.Risk.rank() {
		s.Risk = floor
	}
	return s
}

// SuggestionContext is everything sent alongside the raw input.
type SuggestionContext struct {
	OS        string
	ShellMode ShellMode
	Cwd       string
	Entries   []string
	History   []HistoryItem
	Input     string
}

// ChatMessage follows the role/content pair required by chat APIs.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
