// Package main is the entry point for the parley application.
package main

import (
	"fmt"
	"os"

	"github.com/pondside/parley/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
