// Package main provides the CLI for LeapLineage.
package main

import (
	"fmt"
	"os"

	"github.com/leapstack-labs/leaplineage/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
