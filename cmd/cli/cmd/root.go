// Package cmd provides the CLI commands for trade-quote.
package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"trade-quote/internal/config"
	"trade-quote/internal/errors"
	"trade-quote/internal/logging"
)

// Exit codes
const (
	exitOK       = 0
	exitFailure  = 1
	exitInput    = 2
	exitCalc     = 3
	exitInternal = 4
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "trade-quote",
	Short: "Calculate cross-border B2B sales quotes",
	Long: `trade-quote turns a multi-product quote into purchase, logistics, duty,
financing, COGS, sales and VAT figures per product, plus quote totals.

Examples:
  trade-quote calculate quote.json
  trade-quote calculate --format json --phases quote.json
  trade-quote tables --check tables.hcl`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	err := rootCmd.Execute()
	defer logging.Sync()
	if err == nil {
		return exitOK
	}
	printError(err)
	return exitCode(err)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.trade-quote/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func initConfig() {
	cfg, err := config.LoadWithEnv(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(exitInput)
	}
	config.Set(cfg)

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// exitCode maps the first domain error type to a process exit code
func exitCode(err error) int {
	e, ok := errors.As(err)
	if !ok {
		return exitFailure
	}
	switch e.Type {
	case errors.TypeValidation, errors.TypeInput, errors.TypeConfig:
		return exitInput
	case errors.TypeUnknownDerivedKey, errors.TypeDivisionGuard, errors.TypeRateUnknown:
		return exitCalc
	case errors.TypeInternal, errors.TypeTierMismatch:
		return exitInternal
	default:
		return exitFailure
	}
}

// printError writes each combined error on its own line with its context
func printError(err error) {
	for _, single := range multierr.Errors(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", single)
		e, ok := errors.As(single)
		if !ok || len(e.Context) == 0 {
			continue
		}
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%v", k, e.Context[k])
		}
		fmt.Fprintf(os.Stderr, "  %s\n", strings.Join(parts, " "))
	}
}
