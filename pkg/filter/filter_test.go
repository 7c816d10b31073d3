package filter

import (
	"testing"
	"time"

	"github.com/logtools/ingressparse/pkg/nginx"
)

func entry(status int, method, path, ip string, ts time.Time) *nginx.Entry {
	return &nginx.Entry{
		RemoteAddr: ip,
		Method:     method,
		Path:       path,
		Status:     &status,
		Time:       ts,
	}
}

func TestFilterMatches(t *testing.T) {
	ts := time.Date(2021, 4, 26, 21, 20, 0, 0, time.UTC)
	e := entry(200, "GET", "/api/items", "10.0.0.1", ts)

	var empty Filter
	if !empty.Matches(e) {
		t.Fatal("empty filter should match everything")
	}

	f := Filter{Statuses: []int{200, 404}}
	if !f.Matches(e) {
		t.Error("status 200 should match [200 404]")
	}
	f = Filter{Statuses: []int{500}}
	if f.Matches(e) {
		t.Error("status 200 should not match [500]")
	}

	f = Filter{Methods: []string{"POST"}}
	if f.Matches(e) {
		t.Error("GET should not match [POST]")
	}

	f = Filter{PathContains: "items"}
	if !f.Matches(e) {
		t.Error("path filter should match substring")
	}
	f = Filter{PathContains: "users"}
	if f.Matches(e) {
		t.Error("path filter should reject non-substring")
	}

	f = Filter{IPs: []string{"10.0.0.1"}}
	if !f.Matches(e) {
		t.Error("ip filter should match")
	}

	before := ts.Add(-time.Minute)
	after := ts.Add(time.Minute)
	f = Filter{Since: &after}
	if f.Matches(e) {
		t.Error("entry before since should not match")
	}
	f = Filter{Since: &before, Until: &after}
	if !f.Matches(e) {
		t.Error("entry inside window should match")
	}
	f = Filter{Until: &before}
	if f.Matches(e) {
		t.Error("entry after until should not match")
	}
}

func TestFilterNilStatus(t *testing.T) {
	e := &nginx.Entry{RemoteAddr: "10.0.0.1"}
	f := Filter{Statuses: []int{200}}
	if f.Matches(e) {
		t.Error("entry without status should not match a status filter")
	}
}

func TestParseTimeUTC(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2021-04-26T21:20:00Z", time.Date(2021, 4, 26, 21, 20, 0, 0, time.UTC)},
		{"2021-04-26T23:20:00+02:00", time.Date(2021, 4, 26, 21, 20, 0, 0, time.UTC)},
		{"2021-04-26T21:20:00", time.Date(2021, 4, 26, 21, 20, 0, 0, time.UTC)},
		{"2021-04-26", time.Date(2021, 4, 26, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTimeUTC(tt.in)
		if err != nil {
			t.Errorf("ParseTimeUTC(%q) failed: %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseTimeUTC(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseTimeUTC("yesterday"); err == nil {
		t.Error("ParseTimeUTC should reject garbage")
	}
	if _, err := ParseTimeUTC(""); err == nil {
		t.Error("ParseTimeUTC should reject empty input")
	}
}
