package rules

import "github.com/klyr/dotpath/internal/normalize"

type Phase string

type Form string

type MatchType string

const (
	PhaseInput  Phase = "input"
	PhaseResult Phase = "result"
)

const (
	FormRaw        Form = "raw"
	FormCanonical  Form = "canonical"
	FormCompatible Form = "compatible"
)

const (
	MatchRegex  MatchType = "regex"
	MatchAho    MatchType = "aho"
	MatchPrefix MatchType = "prefix"
)

type Rule struct {
	ID      string
	Phase   Phase
	Form    Form
	Score   int
	Tags    []string
	Matcher Matcher
}

type Match struct {
	RuleID   string
	Phase    Phase
	Score    int
	Tags     []string
	Evidence string
}

type Result struct {
	Score   int
	Matches []Match
}

// EvalContext holds the two subjects of one evaluated operation: the
// unevaluated input and the operation output.
type EvalContext struct {
	Input  string
	Result string
	Absent bool
}

func ContextFor(res normalize.Result) EvalContext {
	return EvalContext{Input: res.Input, Result: res.Output, Absent: res.Absent}
}

// Matcher returns true if the input matches and an evidence snippet of at
// most maxEvidence bytes.
type Matcher interface {
	Match(input string) (bool, string)
}

const maxEvidence = 64

func snippet(value string) string {
	if len(value) <= maxEvidence {
		return value
	}
	return value[:maxEvidence]
}
