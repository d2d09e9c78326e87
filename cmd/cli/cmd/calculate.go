// Package cmd - calculate command
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trade-quote/core/input"
	"trade-quote/core/lookup"
	"trade-quote/core/output"
	"trade-quote/core/pipeline"
	"trade-quote/internal/config"
	"trade-quote/internal/errors"
	"trade-quote/internal/logging"
)

var (
	outputFormat string
	tablesFile   string
	workers      int
	showPhases   bool
	noColor      bool
)

// calculateCmd represents the calculate command
var calculateCmd = &cobra.Command{
	Use:   "calculate <file>",
	Short: "Calculate a quote from a JSON input file",
	Long: `Validate a quote, run every calculation stage for every product and
print the result.

Use "-" to read the quote from standard input.

Examples:
  trade-quote calculate quote.json
  trade-quote calculate --format json quote.json
  trade-quote calculate --phases --tables tables.hcl quote.json
  cat quote.json | trade-quote calculate -`,
	Args: cobra.ExactArgs(1),
	RunE: runCalculate,
}

func init() {
	calculateCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (cli, json); default from config")
	calculateCmd.Flags().StringVarP(&tablesFile, "tables", "t", "", "HCL lookup table file; default from config or embedded tables")
	calculateCmd.Flags().IntVarP(&workers, "workers", "w", 0, "per-product worker pool size; default from config")
	calculateCmd.Flags().BoolVarP(&showPhases, "phases", "p", false, "show every stage of every product")
	calculateCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Get()
	settings := resolveCalculateSettings(cmd, cfg)

	runID := uuid.New()
	logger := logging.Named("cli").With(zap.String("run_id", runID.String()))

	formatter, ok := output.NewRegistry().GetFormatter(settings.format)
	if !ok {
		return errors.Config(fmt.Sprintf("unknown output format %q", settings.format), nil)
	}

	tables, err := lookup.Load(settings.tablesPath)
	if err != nil {
		return err
	}

	env, err := input.Load(args[0])
	if err != nil {
		return err
	}
	logger.Debug("quote input loaded",
		zap.String("source", env.Source.Type.String()),
		zap.String("path", env.Source.Path),
		zap.String("sha256", env.Source.Hash.Hex()),
		zap.Int("products", len(env.Products)),
		zap.String("tables", tables.Source()),
	)

	engine := pipeline.New(tables,
		pipeline.WithWorkers(settings.workers),
		pipeline.WithLogger(logger.Named("engine")),
	)
	result, err := engine.Calculate(ctx, env.Request(cfg.Admin))
	if err != nil {
		logger.Debug("calculation failed", zap.Error(err))
		return err
	}

	return formatter.Render(cmd.OutOrStdout(), result, output.Options{
		ShowPhases: settings.showPhases,
		NoColor:    settings.noColor,
	})
}

type calculateSettings struct {
	format     output.Format
	tablesPath string
	workers    int
	showPhases bool
	noColor    bool
}

// resolveCalculateSettings lets explicit flags win over config
func resolveCalculateSettings(cmd *cobra.Command, cfg *config.Config) calculateSettings {
	s := calculateSettings{
		format:     output.Format(cfg.Output.DefaultFormat),
		tablesPath: cfg.Tables.Path,
		workers:    cfg.Engine.Workers,
		showPhases: cfg.Output.ShowPhases,
		noColor:    cfg.Output.NoColor,
	}
	flags := cmd.Flags()
	if flags.Changed("format") {
		s.format = output.Format(outputFormat)
	}
	if flags.Changed("tables") {
		s.tablesPath = tablesFile
	}
	if flags.Changed("workers") {
		s.workers = workers
	}
	if flags.Changed("phases") {
		s.showPhases = showPhases
	}
	if flags.Changed("no-color") {
		s.noColor = noColor
	}
	return s
}
