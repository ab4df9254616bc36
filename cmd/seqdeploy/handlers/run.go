package handlers

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/docker/docker/client"

	"github.com/kzgceremony/seqdeploy/internal/local"
	"github.com/kzgceremony/seqdeploy/internal/probe"
	"github.com/kzgceremony/seqdeploy/internal/secrets"
	"github.com/kzgceremony/seqdeploy/internal/ui/tui"
)

// Factory function variables for run - can be replaced in tests.
var (
	newDockerClient = func() (client.APIClient, error) {
		s, err := loadSettings()
		if err != nil {
			return nil, err
		}
		return local.NewClient(s.Docker)
	}
)

// RunOptions are the flags of the run command.
type RunOptions struct {
	ValuesPath string
	// Publish entries are container:host port pairs.
	Publish []string
	Pull    bool
}

// Run starts the manifest's image in the local Docker engine and streams
// its logs until interrupted or the container exits.
func Run(ctx context.Context, configPath string, opts RunOptions) error {
	m, _, err := loadManifest(configPath)
	if err != nil {
		return err
	}

	publish, err := parsePublish(opts.Publish)
	if err != nil {
		return err
	}

	var values map[string]string
	if opts.ValuesPath != "" {
		values, err = secrets.LoadValues(opts.ValuesPath)
		if err != nil {
			return err
		}
		if problems := secrets.Verify(m, values); len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintf(out, "  %s secret %s: %s\n", tui.Warn(), p.Name, p.Reason)
			}
		}
	}

	cli, err := newDockerClient()
	if err != nil {
		return fmt.Errorf("failed to create docker client: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "Starting %s (%s)\n", m.App, m.Build.Image)
	runner := local.Runner(cli, m, local.Options{
		Values:  values,
		Publish: publish,
		Pull:    opts.Pull,
		OnReady: func(results []probe.Result) {
			for _, r := range results {
				fmt.Fprintf(out, "  %s %s %s\n", tui.Mark(r.OK()), r.Target.Name, tui.Dim(r.Target.Address))
			}
			fmt.Fprintf(out, "%s is ready. Press Ctrl+C to stop.\n", m.App)
		},
	})

	err = runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// parsePublish parses container:host port pairs. A bare port publishes the
// container port on the same host port.
func parsePublish(specs []string) (local.Publish, error) {
	publish := local.Publish{}
	for _, spec := range specs {
		containerPart, hostPart, found := strings.Cut(spec, ":")
		if !found {
			hostPart = containerPart
		}
		containerPort, err := strconv.Atoi(containerPart)
		if err != nil || containerPort < 1 || containerPort > 65535 {
			return nil, fmt.Errorf("invalid --publish %q: container port must be 1-65535", spec)
		}
		hostPort, err := strconv.Atoi(hostPart)
		if err != nil || hostPort < 1 || hostPort > 65535 {
			return nil, fmt.Errorf("invalid --publish %q: host port must be 1-65535", spec)
		}
		publish[containerPort] = hostPort
	}
	return publish, nil
}
