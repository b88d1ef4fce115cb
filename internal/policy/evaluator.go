package policy

import (
	"github.com/klyr/dotpath/internal/config"
	"github.com/klyr/dotpath/internal/logging"
	"github.com/klyr/dotpath/internal/normalize"
	"github.com/klyr/dotpath/internal/rules"
)

type Action string

const (
	ActionAllow  Action = "allow"
	ActionBlock  Action = "block"
	ActionShadow Action = "shadow"
)

const (
	ReasonScore     = "score"
	ReasonUnderflow = "underflow"
)

// Decision is the outcome of checking one operation result against a policy.
type Decision struct {
	Action    Action
	Block     bool
	Reason    string
	Score     int
	Threshold int
	Matches   []rules.Match
}

// Evaluate scores res with engine and decides what the policy does with it.
// A nil engine scores zero.
func Evaluate(engine *rules.Engine, pol config.Policy, res normalize.Result) Decision {
	scored := engine.Evaluate(rules.ContextFor(res))

	underflow := pol.DenyUnderflow && res.Ascent > 0
	action, block, reason := DecideAction(pol.Mode, scored.Score, pol.AnomalyThreshold, underflow)

	return Decision{
		Action:    action,
		Block:     block,
		Reason:    reason,
		Score:     scored.Score,
		Threshold: pol.AnomalyThreshold,
		Matches:   scored.Matches,
	}
}

// DecideAction trips on a positive score at or above threshold, or on a
// denied underflow. Shadow mode reports the trip without blocking.
func DecideAction(mode string, score, threshold int, underflow bool) (Action, bool, string) {
	var reason string
	switch {
	case underflow:
		reason = ReasonUnderflow
	case score > 0 && score >= threshold:
		reason = ReasonScore
	default:
		return ActionAllow, false, ""
	}

	switch mode {
	case config.ModeShadow:
		return ActionShadow, false, reason
	case config.ModeEnforce:
		return ActionBlock, true, reason
	default:
		return ActionAllow, false, ""
	}
}

// Annotate copies the decision onto a record.
func (d Decision) Annotate(record *logging.Record) {
	record.Score = d.Score
	record.Threshold = d.Threshold
	record.Action = string(d.Action)
	record.MatchedRules = mapMatches(d.Matches)
}

func mapMatches(matches []rules.Match) []logging.MatchedRule {
	if len(matches) == 0 {
		return nil
	}
	out := make([]logging.MatchedRule, len(matches))
	for i, m := range matches {
		out[i] = logging.MatchedRule{
			ID:       m.RuleID,
			Phase:    string(m.Phase),
			Score:    m.Score,
			Tags:     append([]string(nil), m.Tags...),
			Evidence: m.Evidence,
		}
	}
	return out
}
