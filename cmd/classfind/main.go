// Package main provides the entry point for the classfind CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/classfind/cmd/classfind/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
