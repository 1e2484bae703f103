// Package ports defines the interfaces (ports) for the hexagonal architecture.
//
// This package establishes the contract between the orchestration loop and its
// adapters (infrastructure). The loop in application/shell only ever talks to
// these interfaces, so each engine (classification, execution, safety gating,
// gateway suggestions, history) can be tested in isolation and swapped without
// touching the state machine.
//
// Key architectural concepts:
//   - Ports: Interfaces defined here (e.g., SuggestionClient, SafetyGate)
//   - Adapters: Concrete implementations in the infrastructure layer
//   - Dependency inversion: Application depends on abstractions, not implementations
package ports

import (
	"context"
	"iter"

	"github.com/doeshing/matrixsh/internal/domain"
)

// ConfigProvider loads the latest configuration from persistent storage.
// Implementations typically read from ~/.config/matrixsh/config.yaml.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Classifier decides whether a line is a direct command or a natural-language request.
type Classifier interface {
	Classify(input string) domain.InputClass
	// ReclassifyOnFailure is consulted after a Command-path run failed with a
	// command-not-found error; it forces the input into the suggestion pipeline.
	ReclassifyOnFailure(input string) domain.InputClass
}

// CommandExecutor runs commands in the session's shell backend.
type CommandExecutor interface {
	Mode() domain.ShellMode
	Execute(ctx context.Context, command string, cwd string) domain.ExecResult
	ChangeDirectory(target string, cwd string) (string, error)
	IsCommandNotFound(result domain.ExecResult) bool
}

// SafetyGate vetoes dangerous commands regardless of risk label or confirmation.
type SafetyGate interface {
	Check(command string) domain.Verdict
}

// DenylistSource exposes the active rule list for diagnostics.
type DenylistSource interface {
	Rules() []domain.DenylistRule
}

// SuggestionClient talks to the completion gateway.
type SuggestionClient interface {
	Suggest(ctx context.Context, sc domain.SuggestionContext) (domain.Suggestion, error)
	// ChatStream yields free-form text chunks. It is never used for suggestions.
	ChatStream(ctx context.Context, messages []domain.ChatMessage) iter.Seq2[string, error]
	Health(ctx context.Context) bool
}

// HistoryStore is the append-only per-directory log.
type HistoryStore interface {
	Append(cwd string, kind domain.HistoryKind, text string) error
	// LoadRecent returns at most limit items, most recent last.
	LoadRecent(cwd string, limit int) ([]domain.HistoryItem, error)
}

// HistoryIndex is a searchable mirror of every appended item across directories.
type HistoryIndex interface {
	Record(item domain.HistoryItem) error
	Search(query string, limit int) ([]domain.HistoryItem, error)
	Close() error
}

// ContextCollector gathers what the gateway needs to know about the current turn.
type ContextCollector interface {
	Collect(ctx context.Context, mode domain.ShellMode, cwd string, input string) (domain.SuggestionContext, error)
}

// Console reads user input. Both calls block until a line arrives or ctx ends.
type Console interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
	// Confirm asks a yes/no question; anything but an explicit affirmative is false.
	Confirm(ctx context.Context, question string) (bool, error)
}

// Presenter renders turn results for the user.
type Presenter interface {
	Banner(mode domain.ShellMode, gatewayStatus string)
	Prompt(mode domain.ShellMode, cwd string) string
	Output(result domain.ExecResult)
	Suggestion(s domain.Suggestion, advisory domain.Verdict)
	Refused(reason string)
	Cancelled()
	Done(result domain.ExecResult)
	Info(msg string)
	Warn(msg string)
	Error(msg string, err error)
	History(items []domain.HistoryItem)
	Chunk(text string)
	// Busy shows a progress indicator until the returned stop func is called.
	Busy(label string) (stop func())
}

// Logger provides structured logging abstraction for the application layer.
// Implementations can route to different backends (stdout, files, external services).
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}
