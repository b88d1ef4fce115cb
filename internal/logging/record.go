package logging

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
)

const maxEvidence = 64

const (
	SourceAPI   = "api"
	SourceBatch = "batch"
)

const (
	ExpectationPass = "pass"
	ExpectationFail = "fail"
)

// Record is written as a single JSON object per evaluated operation.
type Record struct {
	Timestamp    time.Time     `json:"ts"`
	ID           string        `json:"id"`
	Source       string        `json:"source"`
	CaseID       string        `json:"case_id,omitempty"`
	ClientIP     string        `json:"client_ip,omitempty"`
	RouteID      string        `json:"route_id,omitempty"`
	Policy       string        `json:"policy,omitempty"`
	Mode         string        `json:"mode,omitempty"`
	Op           string        `json:"op"`
	Base         *string       `json:"base,omitempty"`
	Path         *string       `json:"path,omitempty"`
	Result       string        `json:"result"`
	Absent       bool          `json:"absent"`
	Ascent       int           `json:"ascent"`
	Error        string        `json:"error,omitempty"`
	Score        int           `json:"score"`
	Threshold    int           `json:"threshold"`
	Action       string        `json:"action"`
	StatusCode   int           `json:"status_code,omitempty"`
	MatchedRules []MatchedRule `json:"matched_rules"`
	RateLimited  bool          `json:"rate_limited"`
	Expectation  string        `json:"expectation,omitempty"`
	DurationUS   int64         `json:"duration_us"`
}

type MatchedRule struct {
	ID       string   `json:"id"`
	Phase    string   `json:"phase"`
	Score    int      `json:"score"`
	Tags     []string `json:"tags"`
	Evidence string   `json:"evidence"`
}

// Sink receives evaluation records.
type Sink interface {
	Write(record Record) error
}

type RecordLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func NewRecordLogger(w io.Writer) *RecordLogger {
	return &RecordLogger{w: w}
}

func OpenRecordLog(path string) (*RecordLogger, func() error, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return NewRecordLogger(file), file.Close, nil
}

func (l *RecordLogger) Write(record Record) error {
	record.MatchedRules = sanitizeMatchedRules(record.MatchedRules)

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = l.w.Write(append(data, '\n'))
	return err
}

// MultiSink writes every record to each sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Write(record Record) error {
	var result *multierror.Error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Write(record); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func sanitizeMatchedRules(rules []MatchedRule) []MatchedRule {
	if len(rules) == 0 {
		return nil
	}
	out := make([]MatchedRule, len(rules))
	for i, rule := range rules {
		out[i] = rule
		if len(rule.Evidence) > maxEvidence {
			out[i].Evidence = rule.Evidence[:maxEvidence]
		}
	}
	return out
}
