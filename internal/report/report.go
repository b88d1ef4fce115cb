package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/klyr/dotpath/internal/logging"
)

const topN = 5

type Summary struct {
	Total           int            `json:"total"`
	Allowed         int            `json:"allowed"`
	Blocked         int            `json:"blocked"`
	Shadowed        int            `json:"shadowed"`
	RateLimited     int            `json:"rate_limited"`
	Absent          int            `json:"absent"`
	Underflow       int            `json:"underflow"`
	Invalid         int            `json:"invalid"`
	ExpectationPass int            `json:"expectation_pass"`
	ExpectationFail int            `json:"expectation_fail"`
	Start           time.Time      `json:"start"`
	End             time.Time      `json:"end"`
	Ops             []CountItem    `json:"ops"`
	TopRules        []CountItem    `json:"top_rules"`
	TopBlocked      []CountItem    `json:"top_blocked"`
	Duration        LatencySummary `json:"duration_us"`
}

type CountItem struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type LatencySummary struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Reader reads JSONL record logs, dropping records older than Since.
type Reader struct {
	Since time.Time
}

func (r *Reader) Read(path string) ([]logging.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return r.Decode(file)
}

func (r *Reader) Decode(in io.Reader) ([]logging.Record, error) {
	var records []logging.Record
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var record logging.Record
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		if !r.Since.IsZero() && record.Timestamp.Before(r.Since) {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func Summarize(records []logging.Record) Summary {
	var summary Summary
	if len(records) == 0 {
		return summary
	}

	summary.Start = records[0].Timestamp
	summary.End = records[0].Timestamp

	opCounts := map[string]int{}
	ruleCounts := map[string]int{}
	blockedCounts := map[string]int{}
	durations := make([]int64, 0, len(records))

	for _, r := range records {
		summary.Total++
		if r.Timestamp.Before(summary.Start) {
			summary.Start = r.Timestamp
		}
		if r.Timestamp.After(summary.End) {
			summary.End = r.Timestamp
		}

		switch r.Action {
		case "allow":
			summary.Allowed++
		case "block":
			summary.Blocked++
			if !r.RateLimited && r.Result != "" {
				blockedCounts[r.Result]++
			}
		case "shadow":
			summary.Shadowed++
		}

		if r.RateLimited {
			summary.RateLimited++
		}
		if r.Absent {
			summary.Absent++
		}
		if r.Ascent > 0 {
			summary.Underflow++
		}
		if r.Error != "" {
			summary.Invalid++
		}
		switch r.Expectation {
		case logging.ExpectationPass:
			summary.ExpectationPass++
		case logging.ExpectationFail:
			summary.ExpectationFail++
		}

		opCounts[r.Op]++
		for _, match := range r.MatchedRules {
			ruleCounts[match.ID]++
		}

		durations = append(durations, r.DurationUS)
	}

	summary.Ops = topCounts(opCounts, len(opCounts))
	summary.TopRules = topCounts(ruleCounts, topN)
	summary.TopBlocked = topCounts(blockedCounts, topN)
	summary.Duration = latencySummary(durations)

	return summary
}

func topCounts(counts map[string]int, n int) []CountItem {
	items := make([]CountItem, 0, len(counts))
	for key, count := range counts {
		items = append(items, CountItem{Key: key, Count: count})
	}
	if len(items) == 0 {
		return nil
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Key < items[j].Key
		}
		return items[i].Count > items[j].Count
	})

	if len(items) > n {
		items = items[:n]
	}
	return items
}

func latencySummary(values []int64) LatencySummary {
	if len(values) == 0 {
		return LatencySummary{}
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return LatencySummary{
		P50: percentile(sorted, 0.50),
		P95: percentile(sorted, 0.95),
		P99: percentile(sorted, 0.99),
	}
}

func percentile(values []int64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	idx := int(float64(len(values)-1) * p)
	if idx < 0 {
		idx = 0
	}
	if idx >= len(values) {
		idx = len(values) - 1
	}
	return float64(values[idx])
}

func count(n int) string {
	return humanize.Comma(int64(n))
}

type line struct {
	label string
	value int
}

func (s Summary) lines() []line {
	return []line{
		{"Total", s.Total},
		{"Allowed", s.Allowed},
		{"Blocked", s.Blocked},
		{"Shadowed", s.Shadowed},
		{"Rate limited", s.RateLimited},
		{"Absent", s.Absent},
		{"Underflow", s.Underflow},
		{"Invalid", s.Invalid},
		{"Expectations passed", s.ExpectationPass},
		{"Expectations failed", s.ExpectationFail},
	}
}

func (s Summary) durationLine() string {
	return fmt.Sprintf("Duration p50/p95/p99 (µs): %s/%s/%s",
		humanize.Commaf(s.Duration.P50), humanize.Commaf(s.Duration.P95), humanize.Commaf(s.Duration.P99))
}

func (s Summary) window() string {
	if s.Total == 0 {
		return "Window: none"
	}
	return fmt.Sprintf("Window: %s to %s (%s)",
		s.Start.UTC().Format(time.RFC3339), s.End.UTC().Format(time.RFC3339), humanize.RelTime(s.Start, s.End, "", "later"))
}

func RenderText(summary Summary) string {
	var b strings.Builder
	for _, l := range summary.lines() {
		fmt.Fprintf(&b, "%s: %s\n", l.label, count(l.value))
	}
	b.WriteString(summary.durationLine())
	b.WriteString("\n")
	b.WriteString(summary.window())
	b.WriteString("\n")

	writeCounts(&b, "Operations", summary.Ops)
	writeCounts(&b, "Top rules", summary.TopRules)
	writeCounts(&b, "Top blocked results", summary.TopBlocked)

	return b.String()
}

func RenderMarkdown(summary Summary) string {
	var b strings.Builder
	b.WriteString("# dotpath report\n\n")
	b.WriteString("## Totals\n\n")
	for _, l := range summary.lines() {
		fmt.Fprintf(&b, "- %s: %s\n", l.label, count(l.value))
	}
	fmt.Fprintf(&b, "- %s\n", summary.durationLine())
	fmt.Fprintf(&b, "- %s\n\n", summary.window())

	writeCountsMarkdown(&b, "Operations", summary.Ops)
	writeCountsMarkdown(&b, "Top rules", summary.TopRules)
	writeCountsMarkdown(&b, "Top blocked results", summary.TopBlocked)

	return b.String()
}

func RenderJSON(summary Summary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}

func writeCounts(b *strings.Builder, title string, items []CountItem) {
	if len(items) == 0 {
		fmt.Fprintf(b, "%s: none\n", title)
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s: %s\n", item.Key, count(item.Count))
	}
}

func writeCountsMarkdown(b *strings.Builder, title string, items []CountItem) {
	b.WriteString("## ")
	b.WriteString(title)
	b.WriteString("\n\n")
	if len(items) == 0 {
		b.WriteString("- none\n\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "- `%s`: %s\n", item.Key, count(item.Count))
	}
	b.WriteString("\n")
}

func WriteOutput(path string, content []byte) error {
	if path == "" {
		_, err := io.Copy(os.Stdout, bytes.NewReader(content))
		return err
	}
	return os.WriteFile(path, content, 0o600)
}
