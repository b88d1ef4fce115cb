package batch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/klyr/dotpath/internal/config"
	"github.com/klyr/dotpath/internal/logging"
	"github.com/klyr/dotpath/internal/normalize"
	"github.com/klyr/dotpath/internal/policy"
	"github.com/klyr/dotpath/internal/rules"
)

// Runner evaluates cases concurrently. Engine and Sink may be nil.
type Runner struct {
	Engine  *rules.Engine
	Policy  config.Policy
	Sink    logging.Sink
	Workers int

	now func() time.Time
}

type Outcome struct {
	Case     Case
	Result   normalize.Result
	Err      error
	Decision policy.Decision
	// Passed is meaningful only when the case has an expectation.
	Passed bool
	Record logging.Record
}

// Run evaluates cases with at most Workers in flight and returns the
// outcomes in input order. A sink error or ctx cancellation stops
// scheduling; outcomes of cases never run are left zero.
func (r *Runner) Run(ctx context.Context, cases []Case) ([]Outcome, error) {
	outcomes := make([]Outcome, len(cases))

	g, gctx := errgroup.WithContext(ctx)
	workers := r.Workers
	if workers <= 0 {
		workers = config.DefaultBatchWorkers
	}
	g.SetLimit(workers)

	for i, c := range cases {
		if gctx.Err() != nil {
			break
		}
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.evaluate(c)
			if r.Sink != nil {
				return r.Sink.Write(outcomes[i].Record)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, ctx.Err()
}

func (r *Runner) evaluate(c Case) Outcome {
	now := time.Now
	if r.now != nil {
		now = r.now
	}

	start := now()
	out := Outcome{Case: c}
	record := logging.Record{
		Timestamp: start.UTC(),
		ID:        uuid.NewString(),
		Source:    logging.SourceBatch,
		CaseID:    c.ID,
		Mode:      r.Policy.Mode,
		Op:        c.Op,
		Base:      c.Base,
		Path:      c.Path,
		Threshold: r.Policy.AnomalyThreshold,
	}

	req, err := c.request()
	if err == nil {
		out.Result, err = normalize.Apply(req)
	}
	out.Err = err

	if err != nil {
		record.Error = err.Error()
	} else {
		record.Op = string(out.Result.Op)
		record.Result = out.Result.Output
		record.Absent = out.Result.Absent
		record.Ascent = out.Result.Ascent
		out.Decision = policy.Evaluate(r.Engine, r.Policy, out.Result)
		out.Decision.Annotate(&record)
	}

	if c.HasExpectation() {
		out.Passed = check(c, out.Result, err)
		record.Expectation = logging.ExpectationFail
		if out.Passed {
			record.Expectation = logging.ExpectationPass
		}
	}

	record.DurationUS = now().Sub(start).Microseconds()
	out.Record = record
	return out
}

func check(c Case, res normalize.Result, err error) bool {
	switch {
	case c.ExpectInvalid:
		return errors.Is(err, normalize.ErrInvalidArgument)
	case err != nil:
		return false
	case c.ExpectAbsent:
		return res.Absent
	case c.Expect != nil:
		return !res.Absent && res.Output == *c.Expect
	default:
		return true
	}
}

// Failed counts outcomes whose expectation did not hold.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Case.HasExpectation() && !o.Passed {
			n++
		}
	}
	return n
}
