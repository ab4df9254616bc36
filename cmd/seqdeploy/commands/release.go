package commands

import (
	"github.com/spf13/cobra"

	"github.com/kzgceremony/seqdeploy/cmd/seqdeploy/handlers"
)

// Release returns the command group for the S3 release store.
func Release() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Store and retrieve manifest releases in S3",
		Long: `Store and retrieve manifest releases in an S3-compatible bucket.

Each release is the canonical TOML of a validated manifest, stored under
<app>/releases/<unix time>-<digest>.toml.

Environment variables:

  S3_BUCKET:     Bucket name (required)
  S3_ACCESS_KEY: Access key (required)
  S3_SECRET_KEY: Secret key (required)
  S3_ENDPOINT:   Endpoint URL (default: Hetzner Object Storage fsn1)
  S3_REGION:     Region (default: fsn1)`,
	}

	cmd.AddCommand(releasePush(), releaseList(), releaseGet())

	return cmd
}

func releasePush() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Store the manifest as a new release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ReleasePush(cmd.Context(), configPath, keep)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", 0, "Delete all but the newest N releases after pushing (0 keeps all)")

	return cmd
}

func releaseList() *cobra.Command {
	var app string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List releases, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.ReleaseList(cmd.Context(), configPath, app)
		},
	}

	cmd.Flags().StringVar(&app, "app", "", "App name (default: from the manifest)")

	return cmd
}

func releaseGet() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get KEY|latest",
		Short: "Download a release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.ReleaseGet(cmd.Context(), configPath, args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file; the format follows its extension (default: TOML on stdout)")

	return cmd
}
