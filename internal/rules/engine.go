package rules

import "github.com/klyr/dotpath/internal/normalize"

// Engine evaluates rules against an evaluation context.
type Engine struct {
	Rules []Rule
}

func (e *Engine) Evaluate(ctx EvalContext) Result {
	result := Result{}
	if e == nil {
		return result
	}

	for _, rule := range e.Rules {
		subject, ok := selectPhaseInput(ctx, rule.Phase)
		if !ok {
			continue
		}

		matched, evidence := rule.Matcher.Match(applyForm(subject, rule.Form))
		if !matched {
			continue
		}

		result.Score += rule.Score
		result.Matches = append(result.Matches, Match{
			RuleID:   rule.ID,
			Phase:    rule.Phase,
			Score:    rule.Score,
			Tags:     append([]string(nil), rule.Tags...),
			Evidence: evidence,
		})
	}

	return result
}

func selectPhaseInput(ctx EvalContext, phase Phase) (string, bool) {
	switch phase {
	case PhaseInput:
		return ctx.Input, true
	case PhaseResult:
		if ctx.Absent {
			return "", false
		}
		return ctx.Result, true
	default:
		return "", false
	}
}

func applyForm(subject string, form Form) string {
	switch form {
	case FormCanonical:
		return normalize.EvaluatePath(subject)
	case FormCompatible:
		return normalize.CompatiblePath(subject)
	default:
		return subject
	}
}
