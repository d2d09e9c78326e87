// Package cmd - version command
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trade-quote/core/pipeline"
)

// Version is set at build time with -ldflags "-X trade-quote/cmd/cli/cmd.Version=..."
var Version = "0.1.0"

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "trade-quote version %s\n", Version)
		fmt.Fprintf(cmd.OutOrStdout(), "stages: %s\n", strings.Join(pipeline.StageNames(), ", "))
	},
}
