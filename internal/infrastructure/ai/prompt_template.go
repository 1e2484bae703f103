package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/doeshing/matrixsh/internal/domain"
)

const systemPromptTemplate = `You are a terminal assistant for {{.OS}} using the {{.Shell}} shell.
Return ONLY valid JSON with exactly these keys: explanation, command, risk.
risk must be one of: low, medium, high.
Rules:
- Answer in the user's language.
- Generate a single command appropriate to the OS and shell.
- If the command deletes, moves or overwrites data, changes system settings, network configuration, disks or the registry, use risk=high.
- Do NOT include markdown. JSON only.`

var systemPrompt = template.Must(template.New("system").Parse(systemPromptTemplate))

// contextPayload is the JSON document sent as the user message.
type contextPayload struct {
	OS      string           `json:"os"`
	Shell   string           `json:"shell"`
	Cwd     string           `json:"cwd"`
	Files   []string         `json:"files"`
	History []historyPayload `json:"history,omitempty"`
	Input   string           `json:"input"`
}

type historyPayload struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// buildSuggestionMessages renders the two-message suggestion request.
func buildSuggestionMessages(sc domain.SuggestionContext) ([]domain.ChatMessage, error) {
	var system bytes.Buffer
	if err := systemPrompt.Execute(&system, struct{ OS, Shell string }{sc.OS, string(sc.ShellMode)}); err != nil {
		return nil, fmt.Errorf("render system prompt: %w", err)
	}

	payload := contextPayload{
		OS:    sc.OS,
		Shell: string(sc.ShellMode),
		Cwd:   sc.Cwd,
		Files: capStrings(sc.Entries, domain.MaxContextEntries),
		Input: sc.Input,
	}
	if payload.Files == nil {
		payload.Files = []string{}
	}
	history := sc.History
	if len(history) > domain.MaxContextHistory {
		history = history[len(history)-domain.MaxContextHistory:]
	}
	for _, item := range history {
		payload.History = append(payload.History, historyPayload{Kind: string(item.Kind), Text: item.Text})
	}

	var user bytes.Buffer
	encoder := json.NewEncoder(&user)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(payload); err != nil {
		return nil, fmt.Errorf("encode context: %w", err)
	}

	return []domain.ChatMessage{
		{Role: "system", Content: strings.TrimSpace(system.String())},
		{Role: "user", Content: strings.TrimSpace(user.String())},
	}, nil
}

func capStrings(values []string, limit int) []string {
	if len(values) > limit {
		return values[:limit]
	}
	return values
}
