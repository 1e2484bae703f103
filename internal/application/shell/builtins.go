package shell

import (
	"context"
	"strconv"
	"strings"

	"github.com/doeshing/matrixsh/internal/domain"
)

const helpText = `Type shell commands as usual. Anything that reads like a question is sent
to the gateway, which proposes one command you can accept or reject.

Built-in commands:
  /help            show this message
  /history [n]     show the last n history items for this directory (default 12)
  /chat <text>     ask the gateway a free-form question; nothing is executed
  /exit, /quit     leave matrixsh`

const chatSystemPrompt = "You are a concise terminal assistant. Answer in the user's language. Do not execute anything."

// builtin handles slash commands. Unknown slash words fall through so that
// absolute paths like /usr/bin/env still run.
func (s *Service) builtin(ctx context.Context, sess *Session, input string) (domain.TurnOutcome, bool) {
	word, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(word) {
	case "/help":
		s.Presenter.Info(helpText)
	case "/history":
		s.showHistory(sess, rest)
	case "/chat":
		s.chat(ctx, sess, input, rest)
	default:
		return "", false
	}
	return domain.OutcomeBuiltin, true
}

func (s *Service) showHistory(sess *Session, arg string) {
	limit := domain.DefaultHistoryLimit
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n <= 0 {
			s.Presenter.Warn("usage: /history [n]")
			return
		}
		limit = n
	}
	items, err := s.History.LoadRecent(sess.Cwd, limit)
	if err != nil {
		s.Presenter.Error("could not read history", err)
		return
	}
	s.Presenter.History(items)
}

func (s *Service) chat(ctx context.Context, sess *Session, input string, text string) {
	if text == "" {
		s.Presenter.Warn("usage: /chat <text>")
		return
	}
	log := newTurnLog(input)
	defer s.flush(sess, log)

	messages := []domain.ChatMessage{{Role: "system", Content: chatSystemPrompt}}
	if recent, err := s.History.LoadRecent(sess.Cwd, domain.MaxContextHistory); err == nil {
		for _, item := range recent {
			role := "user"
			if item.Kind != domain.KindUser {
				role = "assistant"
			}
			messages = append(messages, domain.ChatMessage{Role: role, Content: item.Text})
		}
	}
	messages = append(messages, domain.ChatMessage{Role: "user", Content: text})

	s.state(sess, "Chat", map[string]interface{}{"stream": s.Stream})
	stop := func() {}
	if !s.Stream {
		stop = s.Presenter.Busy("Asking the gateway")
	}
	var reply strings.Builder
	for chunk, err := range s.Suggestions.ChatStream(ctx, messages) {
		if err != nil {
			stop()
			if ctx.Err() == nil {
				s.reportGatewayError(sess, err)
			}
			return
		}
		reply.WriteString(chunk)
		if s.Stream {
			s.Presenter.Chunk(chunk)
		}
	}
	stop()
	if s.Stream {
		s.Presenter.Chunk("\n")
	} else {
		s.Presenter.Info(reply.String())
	}
	if answer := strings.TrimSpace(reply.String()); answer != "" {
		log.suggestion = answer
	}
}
