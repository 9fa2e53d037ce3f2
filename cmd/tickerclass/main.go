// Package main is the entry point for the tickerclass CLI.
package main

import (
	"fmt"
	"os"

	"github.com/StephanAkkerman/ticker-classifier/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
