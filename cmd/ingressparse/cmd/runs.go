package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/logtools/ingressparse/pkg/store"
)

var (
	runsDBType string
	runsDSN    string
)

// runsCmd represents the runs command
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored import runs",
	Long:  `List the import runs recorded in the database, newest first.`,
	RunE:  runRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsDBType, "db", "", "database type: sqlite, postgres, or memory (default from config)")
	runsCmd.Flags().StringVar(&runsDSN, "dsn", "", "database path (sqlite) or connection string (postgres)")
}

func runRuns(cmd *cobra.Command, args []string) error {
	db, err := store.New(storeConfig(runsDBType, runsDSN))
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns()
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		out, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(out))
	case "yaml":
		out, err := yaml.Marshal(runs)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Print(string(out))
	default:
		if len(runs) == 0 {
			fmt.Println("No import runs stored")
			return nil
		}
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("ID", "Source", "Created", "Entries", "Bad Lines")
		for _, run := range runs {
			table.Append(
				run.ID,
				run.Source,
				run.CreatedAt.Format(time.RFC3339),
				strconv.Itoa(run.EntryCount),
				strconv.Itoa(run.BadLines),
			)
		}
		table.Render()
	}
	return nil
}
