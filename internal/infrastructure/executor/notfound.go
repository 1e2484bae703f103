package executor

import "strings"

// Localised "unknown command" messages, matched case-insensitively against stderr.
var (
	bashNotFound = []string{
		"command not found",
		"comando non trovato",
		": not found",
	}
	cmdNotFound = []string{
		"is not recognized as an internal or external command",
		"non è riconosciuto",
	}
	powerShellNotFound = []string{
		"is not recognized as the name of a cmdlet",
		"non è riconosciuto come nome di cmdlet",
	}
)

func containsAny(text string, needles []string) bool {
	lower := strings.ToLower(text)
	for _, needle := range needles {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}
