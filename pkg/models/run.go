package models

import "time"

// ImportRun records one `ingressparse import` invocation: which file was
// ingested, when, and with what outcome. Entries hang off the run ID.
type ImportRun struct {
	ID         string    `json:"id" yaml:"id"`
	Source     string    `json:"source" yaml:"source"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	EntryCount int       `json:"entry_count" yaml:"entry_count"`
	BadLines   int       `json:"skipped_bad_lines" yaml:"skipped_bad_lines"`
}
