// Package main is the entry point for the trade-quote CLI.
package main

import (
	"os"

	"trade-quote/cmd/cli/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
