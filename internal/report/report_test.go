package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klyr/dotpath/internal/logging"
)

func sampleRecords() []logging.Record {
	return []logging.Record{
		{Timestamp: time.Unix(0, 0), Op: "evaluate", Action: "allow", DurationUS: 10, Ascent: 2},
		{Timestamp: time.Unix(1, 0), Op: "evaluate", Action: "block", Result: "/etc/passwd", DurationUS: 30, MatchedRules: []logging.MatchedRule{{ID: "r1"}}},
		{Timestamp: time.Unix(2, 0), Op: "absolute", Action: "shadow", Absent: true, DurationUS: 20, Expectation: logging.ExpectationPass},
		{Timestamp: time.Unix(3, 0), Op: "resolve", Action: "block", RateLimited: true, DurationUS: 5},
		{Timestamp: time.Unix(4, 0), Op: "parent", Error: "parent: path must not be null", Expectation: logging.ExpectationFail, DurationUS: 1},
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleRecords())
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 1, summary.Allowed)
	assert.Equal(t, 2, summary.Blocked)
	assert.Equal(t, 1, summary.Shadowed)
	assert.Equal(t, 1, summary.RateLimited)
	assert.Equal(t, 1, summary.Absent)
	assert.Equal(t, 1, summary.Underflow)
	assert.Equal(t, 1, summary.Invalid)
	assert.Equal(t, 1, summary.ExpectationPass)
	assert.Equal(t, 1, summary.ExpectationFail)

	require.Len(t, summary.TopRules, 1)
	assert.Equal(t, "r1", summary.TopRules[0].Key)
	require.Len(t, summary.TopBlocked, 1, "rate-limited records are not blocked results")
	assert.Equal(t, "/etc/passwd", summary.TopBlocked[0].Key)
	require.Len(t, summary.Ops, 4)
	assert.Equal(t, "evaluate", summary.Ops[0].Key)
	assert.Equal(t, 2, summary.Ops[0].Count)

	assert.InDelta(t, 10, summary.Duration.P50, 0)
	assert.InDelta(t, 20, summary.Duration.P99, 0)
	assert.True(t, summary.Start.Equal(time.Unix(0, 0)), "start %v", summary.Start)
	assert.True(t, summary.End.Equal(time.Unix(4, 0)), "end %v", summary.End)
}

func TestRenderTextUsesGroupedCounts(t *testing.T) {
	text := RenderText(Summary{Total: 12345, Blocked: 1000})
	assert.Contains(t, text, "Total: 12,345\n")
	assert.Contains(t, text, "Blocked: 1,000\n")
	assert.Contains(t, text, "Top rules: none")
}

func TestRenderMarkdown(t *testing.T) {
	md := RenderMarkdown(Summarize(sampleRecords()))
	assert.True(t, strings.HasPrefix(md, "# dotpath report\n"), md)
	assert.Contains(t, md, "- `/etc/passwd`: 1\n")
}

func TestReaderDecode(t *testing.T) {
	input := `{"ts":"2026-01-01T00:00:00Z","id":"old","op":"evaluate","result":"a","action":"allow"}

{"ts":"2026-01-02T00:00:00Z","id":"new","op":"evaluate","result":"b","action":"allow"}
`
	reader := Reader{Since: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	records, err := reader.Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "new", records[0].ID)

	_, err = reader.Decode(strings.NewReader("{broken\n"))
	require.ErrorContains(t, err, "line 1")
}

func TestRenderJSON(t *testing.T) {
	_, err := RenderJSON(Summary{Total: 1})
	require.NoError(t, err)
}
