package stats

import (
	"testing"
	"time"

	"github.com/logtools/ingressparse/pkg/nginx"
)

func entry(status int, method, path string, bytes int64, reqTime float64, ts time.Time) *nginx.Entry {
	return &nginx.Entry{
		RemoteAddr:    "10.0.0.1",
		Method:        method,
		Path:          path,
		Status:        &status,
		BodyBytesSent: &bytes,
		RequestTime:   &reqTime,
		Time:          ts,
	}
}

func TestAggregate(t *testing.T) {
	base := time.Date(2021, 4, 26, 21, 20, 0, 0, time.UTC)
	entries := []*nginx.Entry{
		entry(200, "GET", "/a", 100, 0.1, base),
		entry(200, "GET", "/a", 200, 0.3, base.Add(time.Second)),
		entry(404, "POST", "/b", 50, 0.2, base.Add(2*time.Second)),
	}

	s := Aggregate(entries, 2, 10)

	if s.TotalEntries != 3 || s.BadLines != 2 {
		t.Errorf("totals = %d/%d", s.TotalEntries, s.BadLines)
	}
	if s.ByStatus[200] != 2 || s.ByStatus[404] != 1 {
		t.Errorf("by_status = %v", s.ByStatus)
	}
	if s.ByMethod["GET"] != 2 || s.ByMethod["POST"] != 1 {
		t.Errorf("by_method = %v", s.ByMethod)
	}
	if s.TotalBodyBytes != 350 {
		t.Errorf("total_body_bytes = %d", s.TotalBodyBytes)
	}
	if s.MaxRequestTime != 0.3 {
		t.Errorf("max_request_time = %f", s.MaxRequestTime)
	}
	if avg := s.AvgRequestTime; avg < 0.19 || avg > 0.21 {
		t.Errorf("avg_request_time = %f", avg)
	}
	if s.FirstSeen != "2021-04-26T21:20:00Z" || s.LastSeen != "2021-04-26T21:20:02Z" {
		t.Errorf("first/last = %q/%q", s.FirstSeen, s.LastSeen)
	}

	if len(s.TopPaths) != 2 || s.TopPaths[0].Path != "/a" || s.TopPaths[0].Count != 2 {
		t.Errorf("top_paths = %v", s.TopPaths)
	}
}

func TestAggregateTopN(t *testing.T) {
	base := time.Date(2021, 4, 26, 21, 20, 0, 0, time.UTC)
	var entries []*nginx.Entry
	for _, p := range []string{"/a", "/b", "/c"} {
		entries = append(entries, entry(200, "GET", p, 1, 0.1, base))
	}
	s := Aggregate(entries, 0, 2)
	if len(s.TopPaths) != 2 {
		t.Errorf("top paths = %v, want 2 rows", s.TopPaths)
	}
	// Ties break alphabetically for stable output.
	if s.TopPaths[0].Path != "/a" || s.TopPaths[1].Path != "/b" {
		t.Errorf("tie break order = %v", s.TopPaths)
	}
}

func TestAggregateEmpty(t *testing.T) {
	s := Aggregate(nil, 0, 10)
	if s.TotalEntries != 0 || s.AvgRequestTime != 0 || len(s.TopPaths) != 0 {
		t.Errorf("empty aggregate = %+v", s)
	}
}
