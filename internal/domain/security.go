package domain

// DenylistRule is a hard-block pattern with a human-readable reason.
type DenylistRule struct {
	Pattern string `yaml:"pattern"`
	Reason  string `yaml:"reason"`
}

// Verdict is the SafetyGate decision for one command.
type Verdict struct {
	Blocked bool
	Reason  string
	Rule    string
}

// Allowed is the zero-risk verdict.
func Allowed() Verdict {
	return Verdict{}
}

// Blocked builds a refusing verdict for rule.
func Blocked(rule DenylistRule) Verdict {
	return Verdict{Blocked: true, Reason: rule.Reason, Rule: rule.Pattern}
}
