// Package main provides the entry point for the typeindex CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/typeindex/cmd/typeindex/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
