package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/logtools/ingressparse/pkg/pipeline"
	"github.com/logtools/ingressparse/pkg/stats"
)

var (
	statsInput   string
	statsFilters filterFlags
	statsStrict  bool
	statsTopN    int
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate an access log into a summary",
	Long: `Parse an nginx ingress access log and print aggregate statistics:
totals, status and method breakdowns, top paths, and latency figures.
Filters narrow the aggregation the same way they narrow a parse.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().StringVarP(&statsInput, "input", "i", "", "path to nginx log file, or - for stdin (required)")
	statsCmd.MarkFlagRequired("input")
	statsFilters.register(statsCmd)
	statsCmd.Flags().BoolVar(&statsStrict, "strict", false, "fail if any line doesn't match the expected format")
	statsCmd.Flags().IntVar(&statsTopN, "top", 10, "number of paths in the top-paths breakdown")
}

func runStats(cmd *cobra.Command, args []string) error {
	f, err := statsFilters.build()
	if err != nil {
		return err
	}

	in, err := pipeline.OpenInput(statsInput)
	if err != nil {
		return err
	}
	defer in.Close()

	res, err := pipeline.Run(in, pipeline.Options{
		Filter: f,
		Strict: statsStrict,
		Limit:  pipeline.NoLimit,
	})
	if err != nil {
		return err
	}

	summary := stats.Aggregate(res.Entries, res.BadLines, statsTopN)

	switch outputFormat {
	case "json":
		out, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(out))
	case "yaml":
		out, err := yaml.Marshal(summary)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Print(string(out))
	default:
		renderStatsTables(summary)
	}
	return nil
}

func renderStatsTables(s *stats.Summary) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")
	table.Append("Entries", strconv.Itoa(s.TotalEntries))
	table.Append("Skipped bad lines", strconv.Itoa(s.BadLines))
	table.Append("Total body bytes", strconv.FormatInt(s.TotalBodyBytes, 10))
	table.Append("Avg request time", fmt.Sprintf("%.4fs", s.AvgRequestTime))
	table.Append("Max request time", fmt.Sprintf("%.4fs", s.MaxRequestTime))
	table.Append("Avg upstream time", fmt.Sprintf("%.4fs", s.AvgUpstreamTime))
	if s.FirstSeen != "" {
		table.Append("First seen", s.FirstSeen)
		table.Append("Last seen", s.LastSeen)
	}
	table.Render()

	if len(s.ByStatus) > 0 {
		fmt.Println()
		table = tablewriter.NewWriter(os.Stdout)
		table.Header("Status", "Count")
		for _, status := range sortedIntKeys(s.ByStatus) {
			table.Append(strconv.Itoa(status), strconv.Itoa(s.ByStatus[status]))
		}
		table.Render()
	}

	if len(s.ByMethod) > 0 {
		fmt.Println()
		table = tablewriter.NewWriter(os.Stdout)
		table.Header("Method", "Count")
		for _, method := range sortedStringKeys(s.ByMethod) {
			table.Append(method, strconv.Itoa(s.ByMethod[method]))
		}
		table.Render()
	}

	if len(s.TopPaths) > 0 {
		fmt.Println()
		table = tablewriter.NewWriter(os.Stdout)
		table.Header("Path", "Hits")
		for _, pc := range s.TopPaths {
			table.Append(pc.Path, strconv.Itoa(pc.Count))
		}
		table.Render()
	}
}

func sortedIntKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func sortedStringKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
