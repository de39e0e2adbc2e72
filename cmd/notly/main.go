// Package main provides the entry point for the notly CLI.
package main

import (
	"os"

	"github.com/noureldenadel/notly/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
