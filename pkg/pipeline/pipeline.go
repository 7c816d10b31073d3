// Package pipeline runs the read -> parse -> filter -> sort -> limit pass
// shared by the parse, stats, and import commands.
package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/logtools/ingressparse/pkg/filter"
	"github.com/logtools/ingressparse/pkg/nginx"
)

// Sort keys accepted by --sort-by.
const (
	SortByTime         = "time_utc"
	SortByStatus       = "status"
	SortByRequestTime  = "request_time"
	SortByBodyBytes    = "body_bytes_sent"
	SortByUpstreamTime = "upstream_response_time"
)

// SortKeys lists the accepted --sort-by values, default first.
var SortKeys = []string{SortByTime, SortByStatus, SortByRequestTime, SortByBodyBytes, SortByUpstreamTime}

// ErrInputNotFound marks a missing or unreadable input file. The command
// layer maps it to exit code 2.
var ErrInputNotFound = errors.New("input not found")

// NoLimit disables row truncation.
const NoLimit = -1

// Options configures a single pipeline pass.
type Options struct {
	Filter filter.Filter
	Strict bool
	SortBy string
	Desc   bool
	Limit  int // NoLimit keeps everything; 0 keeps nothing
}

// Result is the outcome of one pass over a log stream.
type Result struct {
	Entries  []*nginx.Entry
	BadLines int
	Lines    int // non-blank lines seen
}

// OpenInput opens the input path, with "-" selecting standard input.
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
	}
	return f, nil
}

// Run parses the stream and applies filtering, sorting, and the row limit.
// In strict mode the first malformed line aborts the pass with a
// *nginx.FormatError; otherwise malformed lines are counted and skipped.
func Run(r io.Reader, opts Options) (*Result, error) {
	if opts.SortBy == "" {
		opts.SortBy = SortByTime
	}
	keyFn, ok := sortKeyFuncs[opts.SortBy]
	if !ok {
		return nil, fmt.Errorf("unknown sort key %q (valid: %v)", opts.SortBy, SortKeys)
	}

	res := &Result{}

	scanner := bufio.NewScanner(r)
	// Ingress lines with long user agents or URIs can exceed the default
	// token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if nginx.IsBlank(line) {
			continue
		}
		res.Lines++

		entry, err := nginx.ParseLine(line)
		if err != nil {
			res.BadLines++
			if opts.Strict {
				return nil, &nginx.FormatError{Line: lineNo, Text: line}
			}
			continue
		}
		if opts.Filter.Matches(entry) {
			res.Entries = append(res.Entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	sort.SliceStable(res.Entries, func(i, j int) bool {
		a, b := keyFn(res.Entries[i]), keyFn(res.Entries[j])
		if opts.Desc {
			return a > b
		}
		return a < b
	})

	if opts.Limit != NoLimit && opts.Limit >= 0 && opts.Limit < len(res.Entries) {
		res.Entries = res.Entries[:opts.Limit]
	}
	return res, nil
}

// Sort key extractors. Absent numeric values sort below any real value,
// and timestamps compare by epoch nanoseconds.
var sortKeyFuncs = map[string]func(*nginx.Entry) float64{
	SortByTime: func(e *nginx.Entry) float64 {
		return float64(e.Time.UnixNano())
	},
	SortByStatus: func(e *nginx.Entry) float64 {
		if e.Status == nil {
			return -1
		}
		return float64(*e.Status)
	},
	SortByRequestTime: func(e *nginx.Entry) float64 {
		if e.RequestTime == nil {
			return -1
		}
		return *e.RequestTime
	},
	SortByBodyBytes: func(e *nginx.Entry) float64 {
		if e.BodyBytesSent == nil {
			return -1
		}
		return float64(*e.BodyBytesSent)
	},
	SortByUpstreamTime: func(e *nginx.Entry) float64 {
		if e.UpstreamResponseTime == nil {
			return -1
		}
		return *e.UpstreamResponseTime
	},
}

// ValidSortKey reports whether s is an accepted --sort-by value.
func ValidSortKey(s string) bool {
	_, ok := sortKeyFuncs[s]
	return ok
}
