package commands

import (
	"github.com/spf13/cobra"

	"github.com/kzgceremony/seqdeploy/cmd/seqdeploy/handlers"
)

// Secrets returns the command group for secret digests.
func Secrets() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secrets",
		Short: "Manage secret digests in the manifest",
		Long: `Manage the [secrets] table of the manifest.

The manifest records only a digest of each secret value, so that changes can
be detected without storing credentials. Values are read from a local YAML
file mapping names to values and are never written anywhere.`,
	}

	cmd.AddCommand(secretsList(), secretsImport(), secretsVerify())

	return cmd
}

func secretsList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared secrets and their digests",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.SecretsList(configPath)
		},
	}
}

func secretsImport() *cobra.Command {
	var prune, dryRun, force bool

	cmd := &cobra.Command{
		Use:   "import VALUES",
		Short: "Record the digests of local secret values",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return handlers.SecretsImport(configPath, args[0], prune, dryRun, force)
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Remove secrets that have no value in the file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show changes without writing the manifest")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Rewrite the manifest even if unknown keys are dropped")

	return cmd
}

func secretsVerify() *cobra.Command {
	return &cobra.Command{
		Use:   "verify VALUES",
		Short: "Check local secret values against the recorded digests",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return handlers.SecretsVerify(configPath, args[0])
		},
	}
}
