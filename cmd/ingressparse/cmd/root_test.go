package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/logtools/ingressparse/pkg/nginx"
	"github.com/logtools/ingressparse/pkg/pipeline"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, ExitOK},
		{"generic", errors.New("boom"), ExitFailure},
		{"missing input", fmt.Errorf("open: %w", pipeline.ErrInputNotFound), ExitNoInput},
		{"strict violation", &nginx.FormatError{Line: 3, Text: "junk"}, ExitStrictParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestFilterFlagsBuild(t *testing.T) {
	f := filterFlags{
		statuses: []int{200, 404},
		methods:  []string{"GET"},
		since:    "2021-04-26T21:20:00Z",
	}
	built, err := f.build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(built.Statuses) != 2 || built.Since == nil {
		t.Errorf("built filter = %+v", built)
	}

	f.since = "garbage"
	if _, err := f.build(); err == nil {
		t.Error("build should reject a bad --since")
	}
}
