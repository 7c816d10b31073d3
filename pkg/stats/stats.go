// Package stats aggregates parsed access-log entries into a summary
// suitable for table, JSON, or YAML rendering.
package stats

import (
	"sort"

	"github.com/logtools/ingressparse/pkg/nginx"
)

// PathCount is one row of the top-paths breakdown.
type PathCount struct {
	Path  string `json:"path" yaml:"path"`
	Count int    `json:"count" yaml:"count"`
}

// Summary aggregates one pass over a log file.
type Summary struct {
	TotalEntries int `json:"total_entries" yaml:"total_entries"`
	BadLines     int `json:"skipped_bad_lines" yaml:"skipped_bad_lines"`

	ByStatus map[int]int    `json:"by_status" yaml:"by_status"`
	ByMethod map[string]int `json:"by_method" yaml:"by_method"`
	ByIP     map[string]int `json:"by_ip" yaml:"by_ip"`

	TopPaths []PathCount `json:"top_paths" yaml:"top_paths"`

	TotalBodyBytes int64 `json:"total_body_bytes" yaml:"total_body_bytes"`

	AvgRequestTime float64 `json:"avg_request_time_seconds" yaml:"avg_request_time_seconds"`
	MaxRequestTime float64 `json:"max_request_time_seconds" yaml:"max_request_time_seconds"`

	AvgUpstreamTime float64 `json:"avg_upstream_time_seconds" yaml:"avg_upstream_time_seconds"`

	FirstSeen string `json:"first_seen,omitempty" yaml:"first_seen,omitempty"`
	LastSeen  string `json:"last_seen,omitempty" yaml:"last_seen,omitempty"`
}

// Aggregate builds a Summary from parsed entries. topN bounds the
// top-paths list; values below 1 fall back to 10.
func Aggregate(entries []*nginx.Entry, badLines, topN int) *Summary {
	if topN < 1 {
		topN = 10
	}
	s := &Summary{
		TotalEntries: len(entries),
		BadLines:     badLines,
		ByStatus:     make(map[int]int),
		ByMethod:     make(map[string]int),
		ByIP:         make(map[string]int),
	}

	pathCounts := make(map[string]int)
	var reqTimeSum, upTimeSum float64
	var reqTimeN, upTimeN int

	for _, e := range entries {
		if e.Status != nil {
			s.ByStatus[*e.Status]++
		}
		if e.Method != "" {
			s.ByMethod[e.Method]++
		}
		s.ByIP[e.RemoteAddr]++
		if e.Path != "" {
			pathCounts[e.Path]++
		}
		if e.BodyBytesSent != nil {
			s.TotalBodyBytes += *e.BodyBytesSent
		}
		if e.RequestTime != nil {
			reqTimeSum += *e.RequestTime
			reqTimeN++
			if *e.RequestTime > s.MaxRequestTime {
				s.MaxRequestTime = *e.RequestTime
			}
		}
		if e.UpstreamResponseTime != nil {
			upTimeSum += *e.UpstreamResponseTime
			upTimeN++
		}
		if !e.Time.IsZero() {
			ts := e.TimeUTC()
			if s.FirstSeen == "" || ts < s.FirstSeen {
				s.FirstSeen = ts
			}
			if ts > s.LastSeen {
				s.LastSeen = ts
			}
		}
	}

	if reqTimeN > 0 {
		s.AvgRequestTime = reqTimeSum / float64(reqTimeN)
	}
	if upTimeN > 0 {
		s.AvgUpstreamTime = upTimeSum / float64(upTimeN)
	}

	s.TopPaths = topPaths(pathCounts, topN)
	return s
}

func topPaths(counts map[string]int, n int) []PathCount {
	out := make([]PathCount, 0, len(counts))
	for p, c := range counts {
		out = append(out, PathCount{Path: p, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Path < out[j].Path
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
