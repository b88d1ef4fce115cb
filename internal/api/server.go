package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/klyr/dotpath/internal/config"
	"github.com/klyr/dotpath/internal/logging"
	"github.com/klyr/dotpath/internal/normalize"
	"github.com/klyr/dotpath/internal/observability"
	"github.com/klyr/dotpath/internal/policy"
	"github.com/klyr/dotpath/internal/ratelimit"
	"github.com/klyr/dotpath/internal/rules"
)

const HealthPath = "/healthz"

// Server answers path operations over HTTP under each configured route.
type Server struct {
	router   *Router
	policies map[string]config.Policy
	engine   *rules.Engine
	limiter  *ratelimit.Limiter
	sink     logging.Sink
	metrics  *observability.Metrics
	now      func() time.Time
}

type response struct {
	ID           string                `json:"id"`
	Op           normalize.Op          `json:"op"`
	Result       string                `json:"result"`
	Absent       bool                  `json:"absent"`
	Segments     *[]string             `json:"segments,omitempty"`
	Ascent       int                   `json:"ascent"`
	DotPattern   bool                  `json:"dotPattern"`
	Action       string                `json:"action"`
	MatchedRules []logging.MatchedRule `json:"matchedRules,omitempty"`
}

type errorResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	router, err := NewRouter(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := rules.BuildEngine(cfg)
	if err != nil {
		return nil, err
	}

	policies := make(map[string]config.Policy, len(cfg.Policies))
	for name, policyCfg := range cfg.Policies {
		policies[name] = policyCfg
	}

	return &Server{
		router:   router,
		policies: policies,
		engine:   engine,
		limiter:  ratelimit.NewLimiter(),
		now:      time.Now,
	}, nil
}

func (s *Server) SetSink(sink logging.Sink) {
	s.sink = sink
}

func (s *Server) SetMetrics(metrics *observability.Metrics) {
	s.metrics = metrics
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == HealthPath {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
		return
	}

	route, rest, ok := s.router.Match(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	policyCfg, ok := s.policies[route.Policy]
	if !ok {
		http.NotFound(w, r)
		return
	}
	op, err := normalize.ParseOp(rest)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := s.now()
	record := logging.Record{
		Timestamp: start.UTC(),
		ID:        uuid.NewString(),
		Source:    logging.SourceAPI,
		ClientIP:  clientIP(r),
		RouteID:   route.ID,
		Policy:    route.Policy,
		Mode:      policyCfg.Mode,
		Op:        string(op),
		Threshold: policyCfg.AnomalyThreshold,
	}

	if policyCfg.RateLimit.Enabled {
		key := ratelimit.Key(ratelimit.KeyType(policyCfg.RateLimit.Key), route.ID, record.ClientIP, string(op))
		if !s.limiter.Allow(key, policyCfg.RateLimit.RPS, policyCfg.RateLimit.Burst, start) {
			record.RateLimited = true
			record.Action = string(policy.ActionBlock)
			record.StatusCode = rateLimitStatus(policyCfg.RateLimit.StatusCode)
			s.finish(record, start, "ratelimit")
			http.Error(w, "rate limit exceeded", record.StatusCode)
			return
		}
	}

	if max := policyCfg.Limits.MaxBodyBytes; max > 0 {
		if r.ContentLength > max {
			s.reject(w, record, start, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, max)
	}

	in, err := decodeOperands(r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.reject(w, record, start, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.reject(w, record, start, http.StatusBadRequest, err.Error())
		return
	}

	req := in.request(op)
	record.Base = req.Base
	record.Path = req.Path
	if record.Path == nil {
		record.Path = req.Segment
	}
	if err := checkOperandSize(req, policyCfg.Limits.MaxPathBytes); err != nil {
		s.reject(w, record, start, http.StatusRequestEntityTooLarge, err.Error())
		return
	}

	res, err := normalize.Apply(req)
	if err != nil {
		s.reject(w, record, start, http.StatusBadRequest, err.Error())
		return
	}
	record.Result = res.Output
	record.Absent = res.Absent
	record.Ascent = res.Ascent

	decision := policy.Evaluate(s.engine, policyCfg, res)
	decision.Annotate(&record)
	if decision.Block {
		record.StatusCode = blockStatus(policyCfg)
		s.finish(record, start, decision.Reason)
		http.Error(w, policyCfg.Actions.BlockBody, record.StatusCode)
		return
	}

	record.StatusCode = http.StatusOK
	s.finish(record, start, decision.Reason)
	out := response{
		ID:           record.ID,
		Op:           op,
		Result:       res.Output,
		Absent:       res.Absent,
		Ascent:       res.Ascent,
		DotPattern:   res.DotPattern,
		Action:       record.Action,
		MatchedRules: record.MatchedRules,
	}
	// Stack responses always carry segments, even when there are none.
	if op == normalize.OpStack {
		out.Segments = &res.Segments
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) reject(w http.ResponseWriter, record logging.Record, start time.Time, status int, msg string) {
	record.Error = msg
	record.StatusCode = status
	s.finish(record, start, "")
	writeJSON(w, status, errorResponse{ID: record.ID, Error: msg})
}

func (s *Server) finish(record logging.Record, start time.Time, reason string) {
	record.DurationUS = s.now().Sub(start).Microseconds()
	if s.sink != nil {
		if err := s.sink.Write(record); err != nil {
			logging.Diagnostics().Warn("record write failed", "component", "api", "id", record.ID, "err", err)
		}
	}
	s.metrics.Observe(record, reason)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func rateLimitStatus(code int) int {
	if code <= 0 {
		return http.StatusTooManyRequests
	}
	return code
}

func blockStatus(policyCfg config.Policy) int {
	if policyCfg.Actions.BlockStatusCode > 0 {
		return policyCfg.Actions.BlockStatusCode
	}
	return http.StatusForbidden
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
