// Package cli provides the command-line interface for LeapLineage.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaplineage/internal/cli/commands"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "leaplineage",
		Short: "LeapLineage - Lineage reporting for LeapSQL runs",
		Long: `LeapLineage reports run and column-level lineage from LeapSQL
pipeline runs to a metadata catalog.

It wraps the run's notification stream, correlates job evaluations into
runs, and emits START, COMPLETE, and FAIL lineage events.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Lineage reporting for LeapSQL
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./leaplineage.yaml)")

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewDoctorCommand(&cfgFile))

	return rootCmd
}
