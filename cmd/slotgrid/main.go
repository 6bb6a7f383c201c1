// Package main provides the entry point for the slotgrid CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Sumatoshi-tech/slotgrid/cmd/slotgrid/commands"
	"github.com/Sumatoshi-tech/slotgrid/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := commands.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
