package commands

import (
	"github.com/spf13/cobra"

	"github.com/kzgceremony/seqdeploy/cmd/seqdeploy/handlers"
	"github.com/kzgceremony/seqdeploy/internal/render"
)

// Validate returns the command that checks a manifest.
func Validate() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the manifest and the sequencer environment",
		Long: `Check the manifest for structural errors and the sequencer environment
contract: every variable the service needs must be set inline or as a secret,
credentials must be secrets, and inline values must parse.

Unknown keys and unknown variables are reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Validate(configPath, strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}

// Fmt returns the command that rewrites a manifest canonically.
func Fmt() *cobra.Command {
	var check, force bool

	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Rewrite the manifest in canonical form",
		Long: `Rewrite the manifest in canonical form.

Keys seqdeploy does not model would be dropped by the rewrite, so a manifest
containing them is refused unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Fmt(configPath, check, force)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Exit with an error instead of rewriting if the file is not canonical")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Rewrite even if unknown keys are dropped")

	return cmd
}

// Convert returns the command that re-encodes a manifest.
func Convert() *cobra.Command {
	var to, output string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert the manifest to TOML, YAML or JSON",
		Example: `  seqdeploy convert --to yaml
  seqdeploy convert -c fly.toml --to json -o fly.json`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Convert(configPath, to, output)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target format: toml, yaml or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// Diff returns the command that compares two manifests.
func Diff() *cobra.Command {
	return &cobra.Command{
		Use:   "diff A B",
		Short: "Compare two manifests after defaults are applied",
		Long: `Compare two manifests after defaults are applied. Files may be in
different formats. Exits non-zero when they differ.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return handlers.Diff(args[0], args[1])
		},
	}
}

// Env returns the command that shows the effective sequencer environment.
func Env() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Show the environment the sequencer will run with",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Env(configPath, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}

// Render returns the command that renders Kubernetes objects.
func Render() *cobra.Command {
	var (
		opts   render.Options
		output string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the manifest as Kubernetes objects",
		Long: `Render the manifest as a ConfigMap, PersistentVolumeClaims, a Deployment
and a LoadBalancer Service. Secret values are referenced from a Secret that
must exist in the target namespace.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return handlers.Render(configPath, opts, output)
		},
	}

	cmd.Flags().StringVarP(&opts.Namespace, "namespace", "n", "", "Namespace of the rendered objects")
	cmd.Flags().StringVar(&opts.StorageClass, "storage-class", "", "Storage class of the volume claims")
	cmd.Flags().StringVar(&opts.VolumeSize, "volume-size", "", "Size of each volume claim (default: 10Gi)")
	cmd.Flags().StringVar(&opts.SecretName, "secret-name", "", "Secret holding the secret values (default: <app>-secrets)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
