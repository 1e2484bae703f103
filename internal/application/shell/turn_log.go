package shell

import (
	"fmt"
	"strings"

	"github.com/doeshing/matrixsh/internal/domain"
)

type pendingItem struct {
	kind domain.HistoryKind
	text string
}

// turnLog buffers one turn's history so that it is written in a fixed order
// no matter which path the turn took.
type turnLog struct {
	user       string
	suggestion string
	outcome    string
	execText   string
	cwd        string
}

func newTurnLog(input string) *turnLog {
	return &turnLog{user: input}
}

func (l *turnLog) assistant(s domain.Suggestion) {
	l.suggestion = fmt.Sprintf("%s\ncommand: %s\nrisk: %s", s.Explanation, s.Command, s.Risk)
}

func (l *turnLog) annotate(outcome string) {
	l.outcome = outcome
}

func (l *turnLog) exec(command string, result domain.ExecResult) {
	l.execText = command + " -> " + result.Summary()
}

func (l *turnLog) hasExec() bool {
	return l.execText != ""
}

// dir is the directory the turn started in; a cd is logged where it was typed.
func (l *turnLog) dir(current string) string {
	if l.cwd != "" {
		return l.cwd
	}
	return current
}

func (l *turnLog) items() []pendingItem {
	items := []pendingItem{{kind: domain.KindUser, text: l.user}}
	if l.suggestion != "" {
		text := l.suggestion
		if l.outcome != "" {
			text += "\noutcome: " + l.outcome
		}
		items = append(items, pendingItem{kind: domain.KindAssistant, text: strings.TrimSpace(text)})
	}
	if l.execText != "" {
		items = append(items, pendingItem{kind: domain.KindExec, text: l.execText})
	}
	return items
}
