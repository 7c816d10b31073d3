package cmd

import (
	"github.com/spf13/cobra"

	"github.com/logtools/ingressparse/pkg/filter"
)

// filterFlags is the filter flag set shared by parse, stats, and import.
type filterFlags struct {
	statuses     []int
	methods      []string
	pathContains string
	ips          []string
	since        string
	until        string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&f.statuses, "status", nil, "keep only these HTTP statuses, e.g. --status 200,404")
	cmd.Flags().StringSliceVar(&f.methods, "method", nil, "keep only these methods, e.g. --method GET,POST")
	cmd.Flags().StringVar(&f.pathContains, "path-contains", "", "keep only rows where path contains substring")
	cmd.Flags().StringSliceVar(&f.ips, "ip", nil, "keep only these client IPs")
	cmd.Flags().StringVar(&f.since, "since", "", "start time (UTC) like 2021-04-26T21:20:00Z")
	cmd.Flags().StringVar(&f.until, "until", "", "end time (UTC) like 2021-04-26T21:30:00Z")
}

func (f *filterFlags) build() (filter.Filter, error) {
	out := filter.Filter{
		Statuses:     f.statuses,
		Methods:      f.methods,
		PathContains: f.pathContains,
		IPs:          f.ips,
	}
	if f.since != "" {
		t, err := filter.ParseTimeUTC(f.since)
		if err != nil {
			return out, err
		}
		out.Since = &t
	}
	if f.until != "" {
		t, err := filter.ParseTimeUTC(f.until)
		if err != nil {
			return out, err
		}
		out.Until = &t
	}
	return out, nil
}
