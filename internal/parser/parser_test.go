package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentrywatch/sentrywatch/internal/model"
)

func TestParseLineAppliesFirstMatchingNonDefaultRule(t *testing.T) {
	rules := []model.ParsingRule{
		{
			Name:    "combined_access_log",
			Pattern: `^(?P<ip_address>\d+\.\d+\.\d+\.\d+) \S+ (?P<user_id>\S+) \[(?P<timestamp>[^\]]+)\] "(?P<event_type>[A-Z]+) (?P<message>[^"]+)" (?P<level>\d{3})`,
		},
		{
			Name:     "legacy_bracketed_log",
			Default:  true,
			Pattern:  `^\[(?P<timestamp>[^\]]+)\]\s+(?P<level>\S+)\s+(?P<ip_address>\S+)\s+user_id=(?P<user_id>\S+)\s+event=(?P<event_type>\S+)(?:\s+details=(?P<details>.*))?$`,
			FieldMap: map[string]string{"details": "message"},
		},
	}
	p := New(nil, rules)

	rec := p.ParseLine(`10.0.0.1 - alice [10/Oct/2023:13:55:36 +0000] "GET /index.html" 200`)
	require.NotNil(t, rec.IPAddress)
	assert.Equal(t, "10.0.0.1", *rec.IPAddress)
	require.NotNil(t, rec.UserID)
	assert.Equal(t, "alice", *rec.UserID)
	require.NotNil(t, rec.EventType)
	assert.Equal(t, "GET", *rec.EventType)
}

func TestParseLineFallsBackToDefaultRule(t *testing.T) {
	rules := []model.ParsingRule{
		{
			Name:    "combined_access_log",
			Pattern: `^(?P<ip_address>\d+\.\d+\.\d+\.\d+) \S+ (?P<user_id>\S+) \[(?P<timestamp>[^\]]+)\] "(?P<event_type>[A-Z]+) (?P<message>[^"]+)" (?P<level>\d{3})`,
		},
		{
			Name:     "legacy_bracketed_log",
			Default:  true,
			Pattern:  `^\[(?P<timestamp>[^\]]+)\]\s+(?P<level>\S+)\s+(?P<ip_address>\S+)\s+user_id=(?P<user_id>\S+)\s+event=(?P<event_type>\S+)(?:\s+details=(?P<details>.*))?$`,
			FieldMap: map[string]string{"details": "message"},
		},
	}
	p := New(nil, rules)

	rec := p.ParseLine(`[2023-10-27T10:00:00Z] INFO 192.168.1.1 user_id=testuser event=login_failed details={"reason":"bad_password"}`)
	require.NotNil(t, rec.IPAddress)
	assert.Equal(t, "192.168.1.1", *rec.IPAddress)
	require.NotNil(t, rec.UserID)
	assert.Equal(t, "testuser", *rec.UserID)
	require.NotNil(t, rec.EventType)
	assert.Equal(t, "login_failed", *rec.EventType)
	require.NotNil(t, rec.Timestamp)
	require.NotNil(t, rec.Message)
	assert.Equal(t, `{"reason":"bad_password"}`, *rec.Message)
}

func TestParseLineKeepsRawTextOnlyWhenNothingMatches(t *testing.T) {
	p := New(nil, nil)
	rec := p.ParseLine("completely unstructured text")
	assert.Equal(t, "completely unstructured text", rec.RawLine)
	assert.Nil(t, rec.IPAddress)
	assert.Nil(t, rec.Timestamp)
}

func TestParseLinesPreservesOrderAndDropsTrailingNewline(t *testing.T) {
	p := New(nil, nil)
	recs := p.ParseLines("line one\nline two\nline three\n")
	require.Len(t, recs, 3)
	assert.Equal(t, "line one", recs[0].RawLine)
	assert.Equal(t, "line three", recs[2].RawLine)
}

func TestParseLinesEmptyContentYieldsNoRecords(t *testing.T) {
	p := New(nil, nil)
	assert.Empty(t, p.ParseLines(""))
	assert.Empty(t, p.ParseLines("\n"))
}

func TestInvalidPatternRuleIsSkippedNotFatal(t *testing.T) {
	rules := []model.ParsingRule{
		{Name: "broken", Pattern: "(unclosed"},
		{Name: "ok", Default: true, Pattern: `^(?P<message>.*)$`},
	}
	p := New(nil, rules)
	rec := p.ParseLine("hello world")
	require.NotNil(t, rec.Message)
	assert.Equal(t, "hello world", *rec.Message)
}

func TestFieldMapRoutesCaptureToMappedName(t *testing.T) {
	rules := []model.ParsingRule{
		{
			Name:     "mapped",
			Pattern:  `^src=(?P<src>\S+)$`,
			FieldMap: map[string]string{"src": "ip_address"},
		},
	}
	p := New(nil, rules)
	rec := p.ParseLine("src=192.168.1.1")
	require.NotNil(t, rec.IPAddress)
	assert.Equal(t, "192.168.1.1", *rec.IPAddress)
}

func TestUnmappedCaptureFallsIntoExtras(t *testing.T) {
	rules := []model.ParsingRule{
		{
			Name:    "custom",
			Pattern: `^session_id=(?P<session_id>\S+)$`,
		},
	}
	p := New(nil, rules)
	rec := p.ParseLine("session_id=abc123")
	require.NotNil(t, rec.Extras)
	assert.Equal(t, "abc123", rec.Extras["session_id"])
}

func TestTimestampFormatsParse(t *testing.T) {
	cases := []string{
		"2024-01-01T00:00:00.000Z",
		"2024-01-01T00:00:00Z",
		"2024-01-01 00:00:00",
		"2024/01/01 00:00:00",
	}
	for _, raw := range cases {
		_, ok := parseTimestamp(raw)
		assert.True(t, ok, "expected %q to parse", raw)
	}
}

func TestTimestampUnrecognizedFormatFails(t *testing.T) {
	_, ok := parseTimestamp("not a timestamp")
	assert.False(t, ok)
}
