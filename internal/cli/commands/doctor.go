package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leaplineage/internal/client"
	"github.com/leapstack-labs/leaplineage/internal/config"
)

// NewDoctorCommand creates the doctor command, which checks that the
// configured catalog is reachable.
func NewDoctorCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check catalog connectivity",
		Long: `Load the lineage configuration and verify that the metadata
catalog is reachable with the configured credentials.`,
		Example: `  # Check the catalog configured in leaplineage.yaml
  leaplineage doctor

  # Check an explicit config file
  leaplineage doctor --config ./conf/leaplineage.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgFile, config.Config{})
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Catalog URL:  %s\n", cfg.URL)
			_, _ = fmt.Fprintf(out, "Namespace:    %s\n", cfg.Namespace)
			if cfg.APIKey != "" {
				_, _ = fmt.Fprintln(out, "Auth:         bearer token configured")
			} else {
				_, _ = fmt.Fprintln(out, "Auth:         none")
			}

			c := client.New(client.Config{URL: cfg.URL, APIKey: cfg.APIKey})
			if err := c.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("catalog unreachable: %w", err)
			}
			_, _ = fmt.Fprintln(out, "Catalog:      reachable")
			return nil
		},
	}
}
