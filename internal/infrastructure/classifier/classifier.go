// Package classifier decides whether a prompt line is a shell command or a
// natural-language request. The rules are data tables so that new operators
// and languages can be added without touching the decision function.
package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/doeshing/matrixsh/internal/domain"
	"github.com/doeshing/matrixsh/internal/ports"
)

// ShellOperators always mark the input as a command.
var ShellOperators = []string{"|", "&&", "||", ">", "<", ";"}

// CommandPrefixes mark the input as a command when it starts with one of them.
var CommandPrefixes = []string{"-", "/", "."}

// CommandWords are leading words that always start a command, matched case-insensitively.
var CommandWords = []string{"cd", "dir", "ls", "pwd", "echo", "cat", "type"}

// ShortInputMax is the length in characters at or below which input is a command.
const ShortInputMax = 3

// ProseWordCount is the number of words from which input without any flag is treated as prose.
const ProseWordCount = 3

// Interrogatives are leading words or phrases that mark a question, grouped by language.
var Interrogatives = map[string][]string{
	"en": {"how", "what", "why", "where", "when", "can", "could", "should", "would", "is there", "show me"},
	"it": {"come", "cosa", "perché", "perche", "dove", "quando", "quale", "chi", "posso", "puoi", "mostrami"},
	"es": {"cómo", "como", "qué", "que", "por qué", "dónde", "donde", "cuándo", "cuando", "puedo", "puedes"},
}

// NonASCIIThreshold is the share of non-ASCII letters above which input is treated as prose.
const NonASCIIThreshold = 0.3

// Rules implements ports.Classifier.
type Rules struct {
	operators      []string
	prefixes       []string
	commandWords   []string
	interrogatives []string
	shortMax       int
	proseWords     int
	threshold      float64
}

// New builds a classifier from the default tables.
func New() *Rules {
	var words []string
	for _, group := range Interrogatives {
		words = append(words, group...)
	}
	return &Rules{
		operators:      ShellOperators,
		prefixes:       CommandPrefixes,
		commandWords:   CommandWords,
		interrogatives: words,
		shortMax:       ShortInputMax,
		proseWords:     ProseWordCount,
		threshold:      NonASCIIThreshold,
	}
}

// Classify applies the rules in order; the first match wins.
func (r *Rules) Classify(input string) domain.InputClass {
	text := strings.TrimSpace(input)
	if text == "" {
		return domain.ClassCommand
	}
	if r.hasOperator(text) || r.hasCommandPrefix(text) || hasLeadingWord(text, r.commandWords) {
		return domain.ClassCommand
	}
	if utf8.RuneCountInString(text) <= r.shortMax || !strings.ContainsFunc(text, unicode.IsSpace) {
		return domain.ClassCommand
	}
	if r.isProse(text) || strings.Contains(text, "?") || hasLeadingWord(text, r.interrogatives) || r.mostlyNonASCII(text) {
		return domain.ClassNaturalLanguage
	}
	return domain.ClassCommand
}

// ReclassifyOnFailure is used after a command-not-found failure.
func (r *Rules) ReclassifyOnFailure(string) domain.InputClass {
	return domain.ClassNaturalLanguage
}

func (r *Rules) hasOperator(text string) bool {
	for _, op := range r.operators {
		if strings.Contains(text, op) {
			return true
		}
	}
	return false
}

func (r *Rules) hasCommandPrefix(text string) bool {
	for _, prefix := range r.prefixes {
		if strings.HasPrefix(text, prefix) {
			return true
		}
	}
	return false
}

// isProse reports input of several words where no word after the first is a flag.
func (r *Rules) isProse(text string) bool {
	words := strings.Fields(text)
	if len(words) < r.proseWords {
		return false
	}
	for _, word := range words[1:] {
		if strings.HasPrefix(word, "-") {
			return false
		}
	}
	return true
}

// hasLeadingWord matches a word or phrase at the start of text, ending on a word boundary.
func hasLeadingWord(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, word := range words {
		if !strings.HasPrefix(lower, word) {
			continue
		}
		rest := lower[len(word):]
		if rest == "" {
			return true
		}
		next, _ := utf8.DecodeRuneInString(rest)
		if !unicode.IsLetter(next) && !unicode.IsDigit(next) {
			return true
		}
	}
	return false
}

// mostlyNonASCII compares non-ASCII letters against all letters, ignoring
// spaces and punctuation.
func (r *Rules) mostlyNonASCII(text string) bool {
	var letters, wide int
	for _, ch := range text {
		if !unicode.IsLetter(ch) {
			continue
		}
		letters++
		if ch > unicode.MaxASCII {
			wide++
		}
	}
	if letters == 0 {
		return false
	}
	return float64(wide)/float64(letters) >= r.threshold
}

var _ ports.Classifier = (*Rules)(nil)
