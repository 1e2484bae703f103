package ai

import (
	"encoding/json"
	"strings"

	"github.com/doeshing/matrixsh/internal/domain"
)

type suggestionReply struct {
	Explanation *string         `json:"explanation"`
	Command     *string         `json:"command"`
	Risk        json.RawMessage `json:"risk"`
}

// ParseSuggestion decodes a completion into a Suggestion. command is required;
// a missing explanation is empty and a missing or unknown risk becomes high.
func ParseSuggestion(content string) (domain.Suggestion, error) {
	body := stripCodeFence(content)
	var reply suggestionReply
	if err := json.Unmarshal([]byte(body), &reply); err != nil {
		return domain.Suggestion{}, domain.NewParseError("reply is not a JSON object", content, err)
	}
	if reply.Command == nil || strings.TrimSpace(*reply.Command) == "" {
		return domain.Suggestion{}, domain.NewParseError("reply has no command", content, nil)
	}
	// a non-string risk is treated like a missing one
	var risk string
	_ = json.Unmarshal(reply.Risk, &risk)
	var explanation string
	if reply.Explanation != nil {
		explanation = strings.TrimSpace(*reply.Explanation)
	}
	return domain.Suggestion{
		Explanation: explanation,
		Command:     strings.TrimSpace(*reply.Command),
		Risk:        domain.ParseRisk(risk),
	}, nil
}

// stripCodeFence removes a surrounding markdown fence some models add despite instructions.
func stripCodeFence(content string) string {
	text := strings.TrimSpace(content)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
