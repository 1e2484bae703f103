package domain

import (
	"fmt"
	"time"
)

// HistoryKind discriminates logged events.
type HistoryKind string

const (
	KindUser      HistoryKind = "user"
	KindAssistant HistoryKind = "assistant"
	KindExec      HistoryKind = "exec"
)

// Valid reports whether k is one of the three known kinds.
func (k HistoryKind) Valid() bool {
	switch k {
	case KindUser, KindAssistant, KindExec:
		return true
	default:
		return false
	}
}

// HistoryItem is one line of a per-directory log. Items are never rewritten.
type HistoryItem struct {
	Timestamp time.Time   `json:"timestamp"`
	Cwd       string      `json:"cwd"`
	Kind      HistoryKind `json:"kind"`
	Text      string      `json:"text"`
	Session   string      `json:"session,omitempty"`
}

// String renders the item the way it is fed back to the gateway.
func (h HistoryItem) String() string {
	return fmt.Sprintf("%s: %s", h.Kind, h.Text)
}
