package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/logtools/ingressparse/pkg/nginx"
)

func testEntry() *nginx.Entry {
	status := 200
	bytesSent := int64(1234)
	reqTime := 0.005
	return &nginx.Entry{
		RemoteAddr:        "10.0.0.1",
		TimeLocal:         "26/Apr/2021:21:20:17 +0000",
		Time:              time.Date(2021, 4, 26, 21, 20, 17, 0, time.UTC),
		Method:            "GET",
		URI:               "/x?a=1",
		Path:              "/x",
		Query:             "a=1",
		Proto:             "HTTP/1.1",
		Status:            &status,
		BodyBytesSent:     &bytesSent,
		HTTPReferer:       "-",
		HTTPUserAgent:     "curl/8.0",
		RequestTime:       &reqTime,
		UpstreamName:      "backend",
		UpstreamAddr:      "10.0.0.9:80",
		UpstreamStatusRaw: "200",
		RequestID:         "rid1",
		QueryKeysCount:    1,
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []*nginx.Entry{testEntry()}); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want header + 1 row", len(records))
	}

	header := records[0]
	if len(header) != len(CSVHeader) {
		t.Fatalf("header has %d columns, want %d", len(header), len(CSVHeader))
	}
	if header[0] != "remote_addr" || header[len(header)-1] != "query_keys_count" {
		t.Errorf("unexpected header boundaries: %q ... %q", header[0], header[len(header)-1])
	}

	row := records[1]
	if row[2] != "2021-04-26T21:20:17Z" {
		t.Errorf("time_utc = %q", row[2])
	}
	if row[7] != "200" || row[8] != "1234" {
		t.Errorf("status/body_bytes = %q/%q", row[7], row[8])
	}
	if row[12] != "0.005" {
		t.Errorf("request_time = %q", row[12])
	}
	if row[20] != "1" {
		t.Errorf("query_keys_count = %q", row[20])
	}
}

func TestWriteCSVWholeValuedFloats(t *testing.T) {
	e := testEntry()
	whole := 2.0
	zero := 0.0
	e.RequestTime = &whole
	e.UpstreamResponseTime = &zero

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []*nginx.Entry{e}); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	row := records[1]
	if row[12] != "2.0" {
		t.Errorf("request_time = %q, want 2.0", row[12])
	}
	if row[17] != "0.0" {
		t.Errorf("upstream_response_time = %q, want 0.0", row[17])
	}
}

func TestWriteCSVNullCells(t *testing.T) {
	e := testEntry()
	e.Status = nil
	e.BodyBytesSent = nil
	e.RequestTime = nil
	e.UpstreamStatusRaw = "-"

	var buf bytes.Buffer
	if err := WriteCSV(&buf, []*nginx.Entry{e}); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading CSV back: %v", err)
	}
	row := records[1]
	if row[7] != "" || row[8] != "" || row[12] != "" {
		t.Errorf("absent numerics should be empty cells: %q %q %q", row[7], row[8], row[12])
	}
	if row[18] != "-" {
		t.Errorf("upstream_status keeps its raw token, got %q", row[18])
	}
}

func TestOpenOutputCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.csv")
	w, err := OpenOutput(path)
	if err != nil {
		t.Fatalf("OpenOutput failed: %v", err)
	}
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output missing: %v", err)
	}
}

func TestSummary(t *testing.T) {
	got := Summary(42, 3, "out.csv")
	want := "OK: parsed=42 rows, skipped_bad_lines=3, output=out.csv"
	if got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}
