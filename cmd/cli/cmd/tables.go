// Package cmd - tables command
package cmd

import (
	"github.com/spf13/cobra"

	"trade-quote/core/lookup"
	"trade-quote/core/ui"
	"trade-quote/internal/config"
)

var (
	checkFile     string
	tablesNoColor bool
)

// tablesCmd prints or checks lookup tables
var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "Print or check the derived-variable lookup tables",
	Long: `Print the lookup tables used to derive seller region, origin VAT,
internal markup and destination VAT.

Without flags the configured table file (or the embedded defaults) is printed.
With --check the given HCL file is parsed and validated.

Examples:
  trade-quote tables
  trade-quote tables --check tables.hcl`,
	Args: cobra.NoArgs,
	RunE: runTables,
}

func init() {
	tablesCmd.Flags().StringVar(&checkFile, "check", "", "HCL table file to validate")
	tablesCmd.Flags().BoolVar(&tablesNoColor, "no-color", false, "disable colored output")
}

func runTables(cmd *cobra.Command, args []string) error {
	path := config.Get().Tables.Path
	if checkFile != "" {
		path = checkFile
	}

	tables, err := lookup.Load(path)
	if err != nil {
		return err
	}

	out := ui.NewWriter(cmd.OutOrStdout(), tablesNoColor || config.Get().Output.NoColor)
	if checkFile != "" {
		out.Success("%s: %d sellers, %d origins, %d markup rows, %d destinations",
			tables.Source(), len(tables.Sellers()), len(tables.Origins()), tables.MarkupCount(), len(tables.Destinations()))
		return nil
	}
	printTables(out, tables)
	return nil
}

func printTables(out *ui.Writer, tables *lookup.Tables) {
	out.Info("source: %s", tables.Source())

	out.Header("Sellers")
	sellers := out.NewTable("Seller", "Region")
	for _, s := range tables.Sellers() {
		sellers.AddRow(s[0], s[1])
	}
	sellers.Render()

	out.Header("Supplier countries")
	origins := out.NewTable("Country", "VAT", "Price excl. VAT").AlignRight(1)
	for _, o := range tables.Origins() {
		excl := "no"
		if o.PriceExcludesVAT {
			excl = "yes"
		}
		origins.AddRow(o.Country, o.VATRate.String(), excl)
	}
	origins.Render()

	out.Header("Destination VAT")
	dest := out.NewTable("Region", "Rate", "Changeover", "New rate").AlignRight(1, 3)
	for _, d := range tables.Destinations() {
		changeover, next := "-", "-"
		if !d.ChangeoverDate.IsZero() {
			changeover = d.ChangeoverDate.Format("2006-01-02")
			next = d.ChangeoverRate.String()
		}
		dest.AddRow(string(d.Region), d.Rate.String(), changeover, next)
	}
	dest.Render()

	out.Info("internal markup rows: %d", tables.MarkupCount())
}
