package nginx

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// logPattern matches the nginx ingress controller access-log format:
// remote_addr - user [time_local] "request" status body_bytes_sent
// "referer" "user_agent" request_length request_time [upstream_name]
// [upstream_alternative] upstream_addr upstream_response_length
// upstream_response_time upstream_status request_id
var logPattern = regexp.MustCompile(
	`^` +
		`(?P<remote_addr>\S+)\s+\S+\s+\S+\s+` +
		`\[(?P<time_local>[^\]]+)\]\s+` +
		`"(?P<request>[^"]*)"\s+` +
		`(?P<status>\d{3})\s+` +
		`(?P<body_bytes_sent>\S+)\s+` +
		`"(?P<http_referer>[^"]*)"\s+` +
		`"(?P<http_user_agent>[^"]*)"\s+` +
		`(?P<request_length>\S+)\s+` +
		`(?P<request_time>\S+)\s+` +
		`\[(?P<upstream_name>[^\]]*)\]\s+` +
		`\[(?P<upstream_alternative>[^\]]*)\]\s+` +
		`(?P<upstream_addr>\S+)\s+` +
		`(?P<upstream_response_length>\S+)\s+` +
		`(?P<upstream_response_time>\S+)\s+` +
		`(?P<upstream_status>\S+)\s+` +
		`(?P<request_id>\S+)` +
		`$`,
)

// timeLayout matches stamps like 26/Apr/2021:21:20:17 +0000
const timeLayout = "02/Jan/2006:15:04:05 -0700"

// ErrFormat is returned when a line does not match the expected log format.
var ErrFormat = errors.New("line does not match ingress log format")

// FormatError wraps ErrFormat with the offending line and its number.
type FormatError struct {
	Line int
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d does not match ingress log format: %s", e.Line, e.Text)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

var groupIndex = buildGroupIndex()

func buildGroupIndex() map[string]int {
	idx := make(map[string]int)
	for i, name := range logPattern.SubexpNames() {
		if name != "" {
			idx[name] = i
		}
	}
	return idx
}

// ParseLine parses a single access-log line into an Entry.
// It returns ErrFormat when the line does not match the grammar.
func ParseLine(line string) (*Entry, error) {
	m := logPattern.FindStringSubmatch(line)
	if m == nil {
		return nil, ErrFormat
	}
	g := func(name string) string { return m[groupIndex[name]] }

	e := &Entry{
		RemoteAddr:             g("remote_addr"),
		TimeLocal:              g("time_local"),
		HTTPReferer:            g("http_referer"),
		HTTPUserAgent:          g("http_user_agent"),
		UpstreamName:           g("upstream_name"),
		UpstreamAlternative:    g("upstream_alternative"),
		UpstreamAddr:           g("upstream_addr"),
		UpstreamStatusRaw:      g("upstream_status"),
		RequestID:              g("request_id"),
		Status:                 safeInt(g("status")),
		BodyBytesSent:          safeInt64(g("body_bytes_sent")),
		RequestLength:          safeInt64(g("request_length")),
		RequestTime:            safeFloat(g("request_time")),
		UpstreamResponseLength: safeInt64(g("upstream_response_length")),
		UpstreamResponseTime:   safeFloat(g("upstream_response_time")),
	}

	if isDigits(e.UpstreamStatusRaw) {
		e.UpstreamStatus = safeInt(e.UpstreamStatusRaw)
	}

	t, err := time.Parse(timeLayout, e.TimeLocal)
	if err != nil {
		return nil, fmt.Errorf("bad timestamp %q: %w", e.TimeLocal, err)
	}
	e.Time = t.UTC()

	e.Method, e.URI, e.Path, e.Query, e.Proto = SplitRequest(g("request"))
	e.QueryKeysCount = countQueryKeys(e.Query)

	return e, nil
}

// safeInt converts a numeric token, treating "-" and "" as absent.
func safeInt(s string) *int {
	if s == "-" || s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func safeInt64(s string) *int64 {
	if s == "-" || s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &v
}

func safeFloat(s string) *float64 {
	if s == "-" || s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsBlank reports whether a raw log line holds nothing but whitespace.
// Blank lines are skipped rather than counted as bad.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}
