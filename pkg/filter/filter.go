package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/logtools/ingressparse/pkg/nginx"
)

// Filter selects access-log entries. Zero-value fields match everything,
// so an empty Filter keeps every entry.
type Filter struct {
	Statuses     []int
	Methods      []string
	PathContains string
	IPs          []string
	Since        *time.Time
	Until        *time.Time
}

// Matches reports whether the entry passes every configured predicate.
func (f *Filter) Matches(e *nginx.Entry) bool {
	if len(f.Statuses) > 0 && !containsInt(f.Statuses, e.StatusValue()) {
		return false
	}
	if len(f.Methods) > 0 && !containsString(f.Methods, e.Method) {
		return false
	}
	if f.PathContains != "" && !strings.Contains(e.Path, f.PathContains) {
		return false
	}
	if len(f.IPs) > 0 && !containsString(f.IPs, e.RemoteAddr) {
		return false
	}
	if f.Since != nil && !e.Time.IsZero() && e.Time.Before(*f.Since) {
		return false
	}
	if f.Until != nil && !e.Time.IsZero() && e.Time.After(*f.Until) {
		return false
	}
	return true
}

// IsEmpty reports whether the filter has no predicates configured.
func (f *Filter) IsEmpty() bool {
	return len(f.Statuses) == 0 && len(f.Methods) == 0 && f.PathContains == "" &&
		len(f.IPs) == 0 && f.Since == nil && f.Until == nil
}

// ParseTimeUTC parses an RFC3339-style timestamp for --since/--until.
// A trailing "Z" is accepted and a stamp without a zone is taken as UTC.
func ParseTimeUTC(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q (want RFC3339, e.g. 2021-04-26T21:20:00Z)", s)
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
