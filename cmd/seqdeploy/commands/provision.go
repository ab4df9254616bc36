package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/kzgceremony/seqdeploy/cmd/seqdeploy/handlers"
)

// Provision returns the command that manages Hetzner Cloud resources.
//
// Environment variables:
//
//	HCLOUD_TOKEN: Hetzner Cloud API token (required)
func Provision() *cobra.Command {
	var status, destroy bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create the firewall and volumes on Hetzner Cloud",
		Long: `Create or update a firewall admitting the manifest's public TCP ports and
one volume per mount on Hetzner Cloud. Volumes are grown but never shrunk.

Environment variables:

  HCLOUD_TOKEN:       Hetzner Cloud API token (required)
  HCLOUD_LOCATION:    Volume location (default: fsn1)
  HCLOUD_VOLUME_SIZE: Volume size in GB (default: 10)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if status && destroy {
				return errors.New("--status and --destroy are mutually exclusive")
			}
			mode := handlers.ProvisionApply
			switch {
			case status:
				mode = handlers.ProvisionStatus
			case destroy:
				mode = handlers.ProvisionDestroy
			}
			return handlers.Provision(cmd.Context(), configPath, mode)
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "Show which resources exist without changing anything")
	cmd.Flags().BoolVar(&destroy, "destroy", false, "Delete the resources")

	return cmd
}
