package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"logsift/internal/models"
)

// Known log line shapes, most specific first. The access-log pattern goes
// last: its structure is distinct enough that it cannot steal lines meant
// for the earlier rules, while a laxer rule placed first could.
const (
	appLogLayout = "2006-01-02 15:04:05"

	serviceWebServer = "web-server"
)

// formatRule pairs a start-anchored pattern with the extractor that turns
// its submatches into a record.
type formatRule struct {
	name    string
	re      *regexp.Regexp
	extract func(m []string, raw string, now time.Time) models.LogRecord
}

// Parser classifies raw log lines using an ordered, first-match-wins rule
// table. It is stateless across calls and safe for concurrent use.
type Parser struct {
	rules []formatRule
	now   func() time.Time
}

// New returns a Parser with the built-in rule table.
func New() *Parser {
	return &Parser{rules: defaultRules(), now: time.Now}
}

// Parse converts one raw line into a fully populated record. It is total:
// any input, however malformed, yields a valid record. Lines matching no
// rule come back with level UNKNOWN and service "unrecognized".
func (p *Parser) Parse(raw string) models.LogRecord {
	now := p.now()
	for _, r := range p.rules {
		if m := r.re.FindStringSubmatch(raw); m != nil {
			return r.extract(m, raw, now)
		}
	}
	return models.LogRecord{
		Timestamp: now,
		Level:     models.LevelUnknown,
		Service:   models.ServiceUnrecognized,
		Message:   strings.TrimSpace(raw),
		Host:      models.HostUnknown,
		RawLine:   raw,
	}
}

// ParseBatch parses every non-blank line, preserving input order.
// Blank/whitespace-only lines are dropped without producing a record.
func (p *Parser) ParseBatch(lines []string) []models.LogRecord {
	out := make([]models.LogRecord, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, p.Parse(line))
	}
	return out
}

func defaultRules() []formatRule {
	return []formatRule{
		{
			// 2024-12-01 03:17:44 ERROR payment-svc - DB conn failed
			name:    "app",
			re:      regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}:\d{2})\s+(ERROR|WARN|INFO|DEBUG)\s+(\S+)\s+-\s+(.+)`),
			extract: extractAppLog,
		},
		{
			// Dec  1 03:17:44 prod-server-01 nginx[1234]: upstream timed out
			name:    "syslog",
			re:      regexp.MustCompile(`^(\w+\s+\d+\s+[\d:]+)\s+(\S+)\s+(\w+)(?:\[\d+\])?: (.+)`),
			extract: extractSyslog,
		},
		{
			// [WARNING] disk low
			name:    "bracketed",
			re:      regexp.MustCompile(`^\[(ERROR|WARN|WARNING|INFO|DEBUG)\]\s+(.+)`),
			extract: extractBracketed,
		},
		{
			// 192.168.1.1 - - [01/Dec/2024:03:17:44 +0000] "GET /api HTTP/1.1" 500 1234
			name:    "access",
			re:      regexp.MustCompile(`^(\S+) \S+ \S+ \[([^\]]+)\] "(\S+) (\S+)[^"]*" (\d+)`),
			extract: extractAccessLog,
		},
	}
}

func extractAppLog(m []string, raw string, now time.Time) models.LogRecord {
	// The pattern constrains the digits, so parse failure is unexpected;
	// if it happens anyway the line survives with processing time.
	ts, err := time.Parse(appLogLayout, m[1])
	if err != nil {
		ts = now
	}
	return models.LogRecord{
		Timestamp: ts,
		Level:     strings.ToUpper(m[2]),
		Service:   m[3],
		Message:   strings.TrimSpace(m[4]),
		Host:      models.HostUnknown,
		RawLine:   raw,
	}
}

func extractSyslog(m []string, raw string, now time.Time) models.LogRecord {
	// Syslog timestamps carry no year, so the matched date token is not
	// trusted; processing time is used instead. The format also has no
	// level field: everything is INFO.
	return models.LogRecord{
		Timestamp: now,
		Level:     models.LevelInfo,
		Service:   m[3],
		Message:   strings.TrimSpace(m[4]),
		Host:      m[2],
		RawLine:   raw,
	}
}

func extractBracketed(m []string, raw string, now time.Time) models.LogRecord {
	level := strings.ToUpper(m[1])
	if level == "WARNING" {
		level = models.LevelWarn
	}
	return models.LogRecord{
		Timestamp: now,
		Level:     level,
		Service:   models.ServiceUnknown,
		Message:   strings.TrimSpace(m[2]),
		Host:      models.HostUnknown,
		RawLine:   raw,
	}
}

func extractAccessLog(m []string, raw string, now time.Time) models.LogRecord {
	status, _ := strconv.Atoi(m[5])
	var level string
	switch {
	case status >= 500:
		level = models.LevelError
	case status >= 400:
		level = models.LevelWarn
	default:
		level = models.LevelInfo
	}
	return models.LogRecord{
		Timestamp: now,
		Level:     level,
		Service:   serviceWebServer,
		Message:   fmt.Sprintf("%s %s → HTTP %d", m[3], m[4], status),
		Host:      m[1],
		RawLine:   raw,
	}
}
