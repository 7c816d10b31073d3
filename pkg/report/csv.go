// Package report writes parsed access-log entries to their export formats.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/logtools/ingressparse/pkg/nginx"
)

// CSVHeader is the fixed column set of the CSV export. Order matters:
// downstream consumers key on these positions.
var CSVHeader = []string{
	"remote_addr",
	"time_local",
	"time_utc",
	"method",
	"uri",
	"path",
	"proto",
	"status",
	"body_bytes_sent",
	"http_referer",
	"http_user_agent",
	"request_length",
	"request_time",
	"upstream_name",
	"upstream_alternative",
	"upstream_addr",
	"upstream_response_length",
	"upstream_response_time",
	"upstream_status",
	"request_id",
	"query_keys_count",
}

// OpenOutput opens the output path for writing, creating parent
// directories as needed. "-" selects standard output.
func OpenOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating output %s: %w", path, err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// WriteCSV writes the header and one row per entry. Absent numeric
// values become empty cells; the upstream status column keeps its raw
// token so non-numeric markers like "-" survive the round trip.
func WriteCSV(w io.Writer, entries []*nginx.Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write(csvRow(e)); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(e *nginx.Entry) []string {
	return []string{
		e.RemoteAddr,
		e.TimeLocal,
		e.TimeUTC(),
		e.Method,
		e.URI,
		e.Path,
		e.Proto,
		intCell(e.Status),
		int64Cell(e.BodyBytesSent),
		e.HTTPReferer,
		e.HTTPUserAgent,
		int64Cell(e.RequestLength),
		floatCell(e.RequestTime),
		e.UpstreamName,
		e.UpstreamAlternative,
		e.UpstreamAddr,
		int64Cell(e.UpstreamResponseLength),
		floatCell(e.UpstreamResponseTime),
		e.UpstreamStatusRaw,
		e.RequestID,
		strconv.Itoa(e.QueryKeysCount),
	}
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func int64Cell(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	s := strconv.FormatFloat(*v, 'g', -1, 64)
	// Whole values keep a decimal point: 0 exports as "0.0".
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Summary is the one-line success message printed after an export.
func Summary(parsed, skipped int, output string) string {
	return fmt.Sprintf("OK: parsed=%d rows, skipped_bad_lines=%d, output=%s", parsed, skipped, output)
}
