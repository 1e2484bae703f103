package shell

import (
	"context"
	"io"
	"iter"

	"github.com/doeshing/matrixsh/internal/domain"
)

type execCall struct {
	command string
	cwd     string
}

type stubExecutor struct {
	results map[string]domain.ExecResult
	dirs    map[string]bool
	calls   []execCall
}

func (e *stubExecutor) Mode() domain.ShellMode { return domain.ShellBash }

func (e *stubExecutor) Execute(_ context.Context, command string, cwd string) domain.ExecResult {
	e.calls = append(e.calls, execCall{command: command, cwd: cwd})
	if result, ok := e.results[command]; ok {
		return result
	}
	return domain.ExecResult{ExitCode: 0}
}

func (e *stubExecutor) ChangeDirectory(target string, cwd string) (string, error) {
	path := target
	if len(path) == 0 || path[0] != '/' {
		path = cwd + "/" + target
	}
	if !e.dirs[path] {
		return cwd, io.ErrUnexpectedEOF
	}
	return path, nil
}

func (e *stubExecutor) IsCommandNotFound(result domain.ExecResult) bool {
	return result.ExitCode == 127
}

type stubSuggestions struct {
	suggestion domain.Suggestion
	err        error
	chunks     []string
	calls      []domain.SuggestionContext
	chats      [][]domain.ChatMessage
}

func (s *stubSuggestions) Suggest(_ context.Context, sc domain.SuggestionContext) (domain.Suggestion, error) {
	s.calls = append(s.calls, sc)
	return s.suggestion, s.err
}

func (s *stubSuggestions) ChatStream(_ context.Context, messages []domain.ChatMessage) iter.Seq2[string, error] {
	s.chats = append(s.chats, messages)
	return func(yield func(string, error) bool) {
		if s.err != nil {
			yield("", s.err)
			return
		}
		for _, chunk := range s.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

func (s *stubSuggestions) Health(context.Context) bool { return true }

type memHistory struct {
	items []domain.HistoryItem
}

func (m *memHistory) Append(cwd string, kind domain.HistoryKind, text string) error {
	m.items = append(m.items, domain.HistoryItem{Cwd: cwd, Kind: kind, Text: text})
	return nil
}

func (m *memHistory) LoadRecent(cwd string, limit int) ([]domain.HistoryItem, error) {
	var out []domain.HistoryItem
	for _, item := range m.items {
		if item.Cwd == cwd {
			out = append(out, item)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (m *memHistory) kinds() []domain.HistoryKind {
	out := make([]domain.HistoryKind, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item.Kind)
	}
	return out
}

type stubContext struct {
	history *memHistory
}

func (c stubContext) Collect(_ context.Context, mode domain.ShellMode, cwd string, input string) (domain.SuggestionContext, error) {
	recent, _ := c.history.LoadRecent(cwd, domain.MaxContextHistory)
	return domain.SuggestionContext{OS: "linux", ShellMode: mode, Cwd: cwd, History: recent, Input: input}, nil
}

type stubConsole struct {
	lines   []string
	answers []bool
	asked   int
	// cancel, when set, is called instead of answering the next question
	cancel  context.CancelFunc
}

func (c *stubConsole) ReadLine(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(c.lines) == 0 {
		return "", io.EOF
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	return line, nil
}

func (c *stubConsole) Confirm(ctx context.Context, _ string) (bool, error) {
	c.asked++
	if c.cancel != nil {
		c.cancel()
		return false, ctx.Err()
	}
	if len(c.answers) == 0 {
		return false, io.EOF
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer, nil
}

type stubPresenter struct {
	outputs   []domain.ExecResult
	shown     []domain.Suggestion
	advisory  []domain.Verdict
	refused   []string
	cancelled int
	errors    []string
	infos     []string
	chunks    []string
	history   [][]domain.HistoryItem
}

func (p *stubPresenter) Banner(domain.ShellMode, string) {}

func (p *stubPresenter) Prompt(_ domain.ShellMode, cwd string) string { return cwd + "$ " }

func (p *stubPresenter) Output(result domain.ExecResult) { p.outputs = append(p.outputs, result) }

func (p *stubPresenter) Suggestion(s domain.Suggestion, advisory domain.Verdict) {
	p.shown = append(p.shown, s)
	p.advisory = append(p.advisory, advisory)
}

func (p *stubPresenter) Refused(reason string) { p.refused = append(p.refused, reason) }

func (p *stubPresenter) Cancelled() { p.cancelled++ }

func (p *stubPresenter) Done(domain.ExecResult) {}

func (p *stubPresenter) Info(msg string) { p.infos = append(p.infos, msg) }

func (p *stubPresenter) Warn(msg string) { p.errors = append(p.errors, msg) }

func (p *stubPresenter) Error(msg string, _ error) { p.errors = append(p.errors, msg) }

func (p *stubPresenter) History(items []domain.HistoryItem) { p.history = append(p.history, items) }

func (p *stubPresenter) Chunk(text string) { p.chunks = append(p.chunks, text) }

func (p *stubPresenter) Busy(string) func() { return func() {} }
