// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument parsing,
// flag binding, and validation. Command execution is delegated to handler
// functions in the handlers package.
package commands

import (
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/kzgceremony/seqdeploy/internal/logging"
)

// Global flags shared by all subcommands.
var (
	configPath string
	verbose    bool
)

// Root returns the root command for the seqdeploy CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "seqdeploy",
		Short:         "Manage deployments of the KZG ceremony sequencer",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log := logging.New(logging.Options{
				Development: verbose || logging.DevelopmentFromEnv(),
				Output:      cmd.ErrOrStderr(),
			})
			cmd.SetContext(logr.NewContext(cmd.Context(), log))
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to manifest file (default: fly.toml in the current or a parent directory)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	// Manifest commands
	cmd.AddCommand(Init())
	cmd.AddCommand(Validate())
	cmd.AddCommand(Fmt())
	cmd.AddCommand(Convert())
	cmd.AddCommand(Diff())
	cmd.AddCommand(Env())
	cmd.AddCommand(Secrets())
	cmd.AddCommand(Render())

	// Deployment commands
	cmd.AddCommand(Run())
	cmd.AddCommand(Probe())
	cmd.AddCommand(Release())
	cmd.AddCommand(Provision())

	// Utility commands
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
