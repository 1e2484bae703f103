package domain

// TurnOutcome is how one orchestrator turn ended.
type TurnOutcome string

const (
	OutcomeEmpty        TurnOutcome = "empty"
	OutcomeExit         TurnOutcome = "exit"
	OutcomeBuiltin      TurnOutcome = "builtin"
	OutcomeChangedDir   TurnOutcome = "changed_dir"
	OutcomeExecuted     TurnOutcome = "executed"
	OutcomeFailed       TurnOutcome = "failed"
	OutcomeCancelled    TurnOutcome = "cancelled"
	OutcomeRefused      TurnOutcome = "refused"
	OutcomeNoSuggestion TurnOutcome = "no_suggestion"
)

// Terminal reports whether the session should stop after this outcome.
func (o TurnOutcome) Terminal() bool {
	return o == OutcomeExit
}
