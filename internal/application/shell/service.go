// Package shell is the interactive loop. One turn reads a line, classifies it,
// and either runs it directly or drives the suggestion, confirmation and
// denylist pipeline before logging the turn.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/ports"
)

const confirmQuestion = "Execute it? (yes/no) "

// Service wires the engines a session drives.
type Service struct {
	Classifier  ports.Classifier
	Executor    ports.CommandExecutor
	Gate        ports.SafetyGate
	Suggestions ports.SuggestionClient
	History     ports.HistoryStore
	Context     ports.ContextCollector
	Console     ports.Console
	Presenter   ports.Presenter
	Logger      ports.Logger

	// Stream prints /chat replies as they arrive.
	Stream bool
}

// Session is the state owned by one interactive run.
type Session struct {
	ID   string
	Cwd  string
	Turn int
}

// Run loops until /exit, /quit, end of input or ctx cancellation and returns
// the process exit code.
func (s *Service) Run(ctx context.Context, sess *Session) (int, error) {
	if err := s.validate(); err != nil {
		return domain.ExitFailure, err
	}
	for {
		s.state(sess, "Prompt", nil)
		line, err := s.Console.ReadLine(ctx, s.Presenter.Prompt(s.Executor.Mode(), sess.Cwd))
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			s.state(sess, "Exit", map[string]interface{}{"reason": "eof"})
			return domain.ExitOK, nil
		case ctx.Err() != nil:
			return domain.ExitInterrupted, nil
		default:
			return domain.ExitFailure, fmt.Errorf("read input: %w", err)
		}

		sess.Turn++
		outcome, err := s.Turn(ctx, sess, line)
		if ctx.Err() != nil {
			s.state(sess, "Exit", map[string]interface{}{"reason": "interrupted"})
			return domain.ExitInterrupted, nil
		}
		if err != nil {
			return domain.ExitFailure, err
		}
		if outcome.Terminal() {
			s.state(sess, "Exit", map[string]interface{}{"reason": "command"})
			return domain.ExitOK, nil
		}
	}
}

// Turn processes one input line. Only cancellation of ctx is returned as an
// error; every other failure is reported to the user and recovered.
func (s *Service) Turn(ctx context.Context, sess *Session, line string) (domain.TurnOutcome, error) {
	input := strings.TrimSpace(line)
	if input == "" {
		return domain.OutcomeEmpty, nil
	}
	if isExit(input) {
		return domain.OutcomeExit, nil
	}
	if outcome, handled := s.builtin(ctx, sess, input); handled {
		return outcome, ctx.Err()
	}

	log := newTurnLog(input)
	defer s.flush(sess, log)

	if target, ok := domain.ParseCD(input); ok {
		return s.changeDirectory(sess, log, input, target), nil
	}

	s.state(sess, "Classify", nil)
	class := s.Classifier.Classify(input)
	s.state(sess, "Classified", map[string]interface{}{"class": class.String()})

	var failedDirect *domain.ExecResult
	if class == domain.ClassCommand {
		s.state(sess, "ExecuteDirect", nil)
		result := s.Executor.Execute(ctx, input, sess.Cwd)
		s.Presenter.Output(result)
		if ctx.Err() != nil {
			log.exec(input, result)
			return domain.OutcomeFailed, ctx.Err()
		}
		if !s.Executor.IsCommandNotFound(result) {
			log.exec(input, result)
			return execOutcome(result), nil
		}
		class = s.Classifier.ReclassifyOnFailure(input)
		s.state(sess, "Reclassified", map[string]interface{}{"class": class.String(), "exit_code": result.ExitCode})
		failedDirect = &result
	}

	outcome, err := s.suggest(ctx, sess, log, input)
	if failedDirect != nil && !log.hasExec() {
		// nothing ran in place of the failed command, so the failure itself is the exec record
		log.exec(input, *failedDirect)
	}
	return outcome, err
}

func (s *Service) suggest(ctx context.Context, sess *Session, log *turnLog, input string) (domain.TurnOutcome, error) {
	s.state(sess, "GatherContext", nil)
	sc, err := s.Context.Collect(ctx, s.Executor.Mode(), sess.Cwd, input)
	if err != nil {
		if ctx.Err() != nil {
			return domain.OutcomeNoSuggestion, ctx.Err()
		}
		s.Presenter.Error("could not gather context", err)
		return domain.OutcomeNoSuggestion, nil
	}

	s.state(sess, "FetchSuggestion", map[string]interface{}{"entries": len(sc.Entries), "history": len(sc.History)})
	stop := s.Presenter.Busy("Asking the gateway")
	suggestion, err := s.Suggestions.Suggest(ctx, sc)
	stop()
	if err != nil {
		if ctx.Err() != nil {
			return domain.OutcomeNoSuggestion, ctx.Err()
		}
		s.reportGatewayError(sess, err)
		return domain.OutcomeNoSuggestion, nil
	}

	labelled := suggestion.Risk
	suggestion = suggestion.WithRiskFloor()
	s.state(sess, "Display", map[string]interface{}{"risk": string(suggestion.Risk), "labelled": string(labelled)})
	advisory := s.Gate.Check(suggestion.Command)
	s.Presenter.Suggestion(suggestion, advisory)
	log.assistant(suggestion)

	s.state(sess, "Confirm", nil)
	approved, err := s.Console.Confirm(ctx, confirmQuestion)
	if err != nil && ctx.Err() != nil {
		log.annotate("cancelled")
		return domain.OutcomeCancelled, ctx.Err()
	}
	if !approved {
		s.state(sess, "Cancelled", nil)
		s.Presenter.Cancelled()
		log.annotate("cancelled")
		return domain.OutcomeCancelled, nil
	}

	s.state(sess, "DenylistCheck", nil)
	if verdict := s.Gate.Check(suggestion.Command); verdict.Blocked {
		s.state(sess, "ExecuteOrRefuse", map[string]interface{}{"refused": true, "rule": verdict.Rule})
		s.Presenter.Refused(verdict.Reason)
		log.annotate("refused: " + verdict.Reason)
		return domain.OutcomeRefused, nil
	}

	s.state(sess, "ExecuteOrRefuse", map[string]interface{}{"refused": false})
	if target, ok := domain.ParseCD(suggestion.Command); ok {
		log.annotate("executed")
		return s.changeDirectory(sess, log, suggestion.Command, target), nil
	}
	result := s.Executor.Execute(ctx, suggestion.Command, sess.Cwd)
	s.Presenter.Output(result)
	s.Presenter.Done(result)
	log.exec(suggestion.Command, result)
	log.annotate("executed")
	return execOutcome(result), ctx.Err()
}

func (s *Service) changeDirectory(sess *Session, log *turnLog, command string, target string) domain.TurnOutcome {
	s.state(sess, "ChangeDirectory", map[string]interface{}{"target": target})
	next, err := s.Executor.ChangeDirectory(target, sess.Cwd)
	if err != nil {
		s.Presenter.Error(err.Error(), nil)
		log.exec(command, domain.ExecResult{ExitCode: domain.ExitFailure, Stderr: err.Error()})
		return domain.OutcomeFailed
	}
	log.exec(command, domain.ExecResult{ExitCode: 0, Stdout: next})
	log.cwd = sess.Cwd
	sess.Cwd = next
	return domain.OutcomeChangedDir
}

func (s *Service) reportGatewayError(sess *Session, err error) {
	s.Logger.Warn("suggestion failed", s.fields(sess, map[string]interface{}{"error": err.Error()}))
	var gwErr *domain.GatewayError
	if errors.As(err, &gwErr) && gwErr.Raw != "" {
		s.state(sess, "RawReply", map[string]interface{}{"raw": gwErr.Raw})
	}
	switch {
	case domain.IsAuthError(err):
		s.Presenter.Error("The gateway rejected the credentials. Run `matrixsh setup` to pair again or pass --key.", err)
	case domain.IsParseError(err):
		s.Presenter.Error("The gateway reply could not be used as a suggestion. Nothing was executed.", nil)
	case domain.IsNetworkError(err):
		s.Presenter.Error("The gateway could not be reached.", err)
	default:
		s.Presenter.Error("Suggestion failed.", err)
	}
}

// flush writes the buffered turn in user, assistant, exec order.
func (s *Service) flush(sess *Session, log *turnLog) {
	s.state(sess, "LogTurn", map[string]interface{}{"items": len(log.items())})
	for _, item := range log.items() {
		if err := s.History.Append(log.dir(sess.Cwd), item.kind, item.text); err != nil {
			s.Logger.Warn("history append failed", s.fields(sess, map[string]interface{}{"error": err.Error()}))
		}
	}
}

func (s *Service) state(sess *Session, name string, fields map[string]interface{}) {
	if s.Logger == nil {
		return
	}
	merged := s.fields(sess, fields)
	merged["state"] = name
	s.Logger.Debug("state", merged)
}

func (s *Service) fields(sess *Session, extra map[string]interface{}) map[string]interface{} {
	fields := map[string]interface{}{"session": sess.ID, "turn": sess.Turn}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

func (s *Service) validate() error {
	if s.Classifier == nil || s.Executor == nil || s.Gate == nil || s.Suggestions == nil ||
		s.History == nil || s.Context == nil || s.Console == nil || s.Presenter == nil || s.Logger == nil {
		return errors.New("shell.Service dependencies not satisfied")
	}
	return nil
}

func isExit(input string) bool {
	lower := strings.ToLower(input)
	return lower == "/exit" || lower == "/quit"
}

func execOutcome(result domain.ExecResult) domain.TurnOutcome {
	if result.Success() {
		return domain.OutcomeExecuted
	}
	return domain.OutcomeFailed
}
