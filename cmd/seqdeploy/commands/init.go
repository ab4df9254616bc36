package commands

import (
	"github.com/spf13/cobra"

	"github.com/kzgceremony/seqdeploy/cmd/seqdeploy/handlers"
	"github.com/kzgceremony/seqdeploy/internal/manifest"
)

// Init returns the command that creates a new manifest.
func Init() *cobra.Command {
	var (
		defaults bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a manifest interactively",
		Long: `Create a manifest for the sequencer by answering a few questions.

The manifest is written to --config, or fly.toml in the current directory.
With --defaults, the public sequencer's descriptor is written without asking.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath
			if path == "" {
				path = manifest.DefaultFilename
			}
			return handlers.Init(cmd.Context(), path, defaults, force)
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, "Write the default manifest without the wizard")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}
