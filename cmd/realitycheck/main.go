// Package main is the entry point for the Reality Check CLI.
package main

import (
	"os"

	"github.com/factchecker/realitycheck/cmd/realitycheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
