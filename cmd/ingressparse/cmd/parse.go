package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/logtools/ingressparse/pkg/pipeline"
	"github.com/logtools/ingressparse/pkg/report"
)

var (
	parseInput   string
	parseOutput  string
	parseFilters filterFlags
	parseSortBy  string
	parseDesc    bool
	parseLimit   int
	parseStrict  bool
)

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse an access log and export it to CSV",
	Long: `Parse an nginx ingress access log, optionally filter, sort, and limit
the rows, and write the result as CSV.

Use "-" as the input to read standard input, or as the output to write
the CSV to standard output.`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseInput, "input", "i", "", "path to nginx log file, or - for stdin (required)")
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "", "path to output CSV file, or - for stdout (required)")
	parseCmd.MarkFlagRequired("input")
	parseCmd.MarkFlagRequired("output")

	parseFilters.register(parseCmd)

	parseCmd.Flags().StringVar(&parseSortBy, "sort-by", pipeline.SortByTime,
		fmt.Sprintf("sort output by column (one of %v)", pipeline.SortKeys))
	parseCmd.Flags().BoolVar(&parseDesc, "desc", false, "sort descending")
	parseCmd.Flags().IntVar(&parseLimit, "limit", pipeline.NoLimit, "write only first N rows after filtering/sorting")
	parseCmd.Flags().BoolVar(&parseStrict, "strict", false, "fail if any line doesn't match the expected format")
}

func runParse(cmd *cobra.Command, args []string) error {
	log := newLogger()

	f, err := parseFilters.build()
	if err != nil {
		return err
	}

	in, err := pipeline.OpenInput(parseInput)
	if err != nil {
		return err
	}
	defer in.Close()

	res, err := pipeline.Run(in, pipeline.Options{
		Filter: f,
		Strict: parseStrict,
		SortBy: parseSortBy,
		Desc:   parseDesc,
		Limit:  parseLimit,
	})
	if err != nil {
		return err
	}
	log.Debug("parse pass complete", map[string]interface{}{
		"lines":   res.Lines,
		"rows":    len(res.Entries),
		"skipped": res.BadLines,
	})

	out, err := report.OpenOutput(parseOutput)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(out, res.Entries); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	// Keep the summary off stdout when the CSV itself goes there.
	summary := report.Summary(len(res.Entries), res.BadLines, parseOutput)
	if parseOutput == "-" {
		fmt.Fprintln(os.Stderr, summary)
	} else {
		fmt.Println(summary)
	}
	return nil
}
