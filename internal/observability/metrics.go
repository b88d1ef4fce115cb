package observability

import (
	"net/http"
	"time"

	"github.com/klyr/dotpath/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK          = "ok"
	OutcomeAbsent      = "absent"
	OutcomeInvalid     = "invalid"
	OutcomeBlocked     = "blocked"
	OutcomeShadowed    = "shadowed"
	OutcomeRateLimited = "rate_limited"
)

type Metrics struct {
	operationsTotal    *prometheus.CounterVec
	underflowsTotal    *prometheus.CounterVec
	blocksTotal        *prometheus.CounterVec
	ruleMatchesTotal   *prometheus.CounterVec
	ratelimitHitsTotal *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "dotpath_operations_total", Help: "Total path operations"},
			[]string{"op", "outcome"},
		),
		underflowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "dotpath_underflows_total", Help: "Operations whose result ascends past its start"},
			[]string{"op"},
		),
		blocksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "dotpath_blocks_total", Help: "Total blocked operations"},
			[]string{"route", "policy", "reason"},
		),
		ruleMatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "dotpath_rule_matches_total", Help: "Total rule matches"},
			[]string{"rule_id", "tag", "phase"},
		),
		ratelimitHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "dotpath_ratelimit_hits_total", Help: "Total rate limit hits"},
			[]string{"route", "policy"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dotpath_request_duration_seconds",
				Help:    "Operation duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"route", "op"},
		),
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.operationsTotal,
		m.underflowsTotal,
		m.blocksTotal,
		m.ruleMatchesTotal,
		m.ratelimitHitsTotal,
		m.requestDuration,
	)

	return m
}

func (m *Metrics) Handler(reg *prometheus.Registry) http.Handler {
	if reg == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Outcome classifies a record for the operations counter.
func Outcome(record logging.Record) string {
	switch {
	case record.RateLimited:
		return OutcomeRateLimited
	case record.Action == "block":
		return OutcomeBlocked
	case record.Action == "shadow":
		return OutcomeShadowed
	case record.Error != "":
		return OutcomeInvalid
	case record.Absent:
		return OutcomeAbsent
	default:
		return OutcomeOK
	}
}

// Observe counts one record. reason labels the block counter and is only
// read when the record was blocked.
func (m *Metrics) Observe(record logging.Record, reason string) {
	if m == nil {
		return
	}

	route := record.RouteID
	policy := record.Policy
	op := record.Op

	m.operationsTotal.WithLabelValues(op, Outcome(record)).Inc()
	m.requestDuration.WithLabelValues(route, op).Observe((time.Duration(record.DurationUS) * time.Microsecond).Seconds())

	if record.Ascent > 0 {
		m.underflowsTotal.WithLabelValues(op).Inc()
	}

	if record.Action == "block" {
		if reason == "" {
			reason = "rule"
		}
		m.blocksTotal.WithLabelValues(route, policy, reason).Inc()
	}

	for _, match := range record.MatchedRules {
		tag := "none"
		if len(match.Tags) > 0 {
			tag = match.Tags[0]
		}
		m.ruleMatchesTotal.WithLabelValues(match.ID, tag, match.Phase).Inc()
	}

	if record.RateLimited {
		m.ratelimitHitsTotal.WithLabelValues(route, policy).Inc()
	}
}
