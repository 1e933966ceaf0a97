// Package main provides the entry point for the codeassist CLI.
package main

import (
	"fmt"
	"os"

	"github.com/codeassist-ai/codeassist/cmd/codeassist/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
