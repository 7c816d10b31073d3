package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/logtools/ingressparse/pkg/logging"
	"github.com/logtools/ingressparse/pkg/nginx"
	"github.com/logtools/ingressparse/pkg/pipeline"
	"github.com/logtools/ingressparse/pkg/store"
)

// Process exit codes. The container's exit status is bound 1:1 to these,
// so orchestrators can distinguish bad invocations from bad input.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitNoInput     = 2
	ExitStrictParse = 3
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string
	logJSON      bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ingressparse",
	Short: "Parse nginx ingress access logs",
	Long: `ingressparse parses nginx ingress-controller access logs and exports
them to CSV, aggregates them into summaries, or loads them into a
database for querying over a read-only HTTP API.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps an Execute error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, pipeline.ErrInputNotFound) {
		return ExitNoInput
	}
	if errors.Is(err, nginx.ErrFormat) {
		return ExitStrictParse
	}
	return ExitFailure
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ingressparse/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "output format for stats and runs: table, json, or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log in JSON format")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(ExitFailure)
		}
		viper.AddConfigPath(filepath.Join(home, ".ingressparse"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ingressparse")
	viper.AutomaticEnv()

	viper.SetDefault("db.type", "sqlite")
	viper.SetDefault("db.path", "ingressparse.db")
	viper.SetDefault("serve.addr", ":8080")
	viper.SetDefault("serve.rate_limit", 50.0)
	viper.SetDefault("serve.rate_burst", 100)

	// Missing config file is fine; defaults and env cover everything.
	_ = viper.ReadInConfig()
}

// newLogger builds the logger configured by the global flags.
func newLogger() *logging.Logger {
	return logging.NewLogger(logging.ParseLevel(logLevel), logJSON)
}

// storeConfig assembles the store configuration from viper, letting the
// --db and --dsn flags of individual commands override the file/env.
func storeConfig(dbType, dsn string) store.Config {
	cfg := store.Config{
		Type: viper.GetString("db.type"),
		DSN:  viper.GetString("db.dsn"),
		Path: viper.GetString("db.path"),
	}
	if dbType != "" {
		cfg.Type = dbType
	}
	if dsn != "" {
		cfg.DSN = dsn
		cfg.Path = dsn
	}
	return cfg
}
