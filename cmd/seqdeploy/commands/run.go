package commands

import (
	"github.com/spf13/cobra"

	"github.com/kzgceremony/seqdeploy/cmd/seqdeploy/handlers"
)

// Run returns the command that runs the manifest locally in Docker.
func Run() *cobra.Command {
	var opts handlers.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the manifest locally in Docker",
		Long: `Run the manifest's image in the local Docker engine with its environment,
secrets, volumes and shutdown settings. Internal and metrics ports are
published on 127.0.0.1. The container is removed on exit.

Environment variables:

  DOCKER_HOST: Docker engine address (default: auto-detected socket)`,
		Example: `  seqdeploy run --values secrets.yaml
  seqdeploy run --values secrets.yaml -p 8080:18080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), configPath, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ValuesPath, "values", "", "YAML file with secret values")
	cmd.Flags().StringSliceVarP(&opts.Publish, "publish", "p", nil, "Publish a container port on another host port (container:host)")
	cmd.Flags().BoolVar(&opts.Pull, "pull", false, "Pull the image even if it is present")

	return cmd
}

// Probe returns the command that checks a running deployment.
func Probe() *cobra.Command {
	var opts handlers.ProbeOptions

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check the public ports and metrics of a deployment",
		Long: `Check a deployment from the outside: force-https ports must redirect,
TLS ports must complete a handshake and answer HTTP, and the metrics endpoint
must serve the Prometheus text format.

With --watch, checks repeat until interrupted. With --listen, probe results
are exposed as Prometheus metrics.`,
		Example: `  seqdeploy probe --host seq.ceremony.ethereum.org
  seqdeploy probe --host seq.ceremony.ethereum.org --watch --listen :9100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Probe(cmd.Context(), configPath, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "Host name or address of the deployment")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Repeat checks until interrupted")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "Time between rounds in watch mode (default: PROBE_WATCH_INTERVAL)")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "Serve probe metrics on this address")
	cmd.Flags().BoolVarP(&opts.Insecure, "insecure", "k", false, "Skip TLS certificate verification")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output in JSON format")
	_ = cmd.MarkFlagRequired("host")

	return cmd
}
