// Package main provides the entry point for the siteindex CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/siteindex/cmd/siteindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
