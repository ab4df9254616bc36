package local

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/go-logr/logr"
	"github.com/matgreaves/run"
	"github.com/matgreaves/run/onexit"

	"github.com/kzgceremony/seqdeploy/internal/config"
	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/probe"
	"github.com/kzgceremony/seqdeploy/internal/util/naming"
)

// Options configures a local run.
type Options struct {
	// Values holds the plaintext secret values injected into the container.
	Values map[string]string
	// Publish remaps container ports to host ports.
	Publish Publish
	// Pull forces an image pull even when the image is present.
	Pull bool
	// Stdout and Stderr receive the container logs. Default to the process streams.
	Stdout io.Writer
	Stderr io.Writer
	// Timeouts bounds readiness. Defaults to config.LoadTimeouts().
	Timeouts *config.Timeouts
	// OnReady is called once every readiness check passed.
	OnReady func([]probe.Result)
}

func (o *Options) setDefaults() {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Timeouts == nil {
		o.Timeouts = config.LoadTimeouts()
	}
}

// Runner returns a run.Runner that starts the container and, in parallel,
// waits for it to become ready. It returns when the container exits, the
// readiness check fails, or ctx is cancelled; the container is removed in
// every case.
func Runner(cli client.APIClient, m *manifest.Manifest, opts Options) run.Runner {
	opts.setDefaults()
	cfg, hostCfg, err := containerConfig(m, opts)
	if err != nil {
		return run.Func(func(context.Context) error {
			return fmt.Errorf("app %q: %w", m.App, err)
		})
	}

	return run.Group{
		"container": containerRunner(cli, naming.Container(m.App), cfg, hostCfg, opts),
		"ready": run.Sequence{
			readyRunner(m, opts),
			run.Idle,
		},
	}
}

func containerRunner(cli client.APIClient, name string, cfg *container.Config, hostCfg *container.HostConfig, opts Options) run.Runner {
	return run.Func(func(ctx context.Context) error {
		log := logr.FromContextOrDiscard(ctx).WithValues("container", name)

		if _, err := cli.Ping(ctx); err != nil {
			return fmt.Errorf("cannot connect to Docker daemon (is Docker running?): %w", err)
		}

		if err := ensureImage(ctx, cli, cfg.Image, opts.Pull); err != nil {
			return err
		}

		// A container left behind by a previous run would block the name.
		if err := cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true}); err != nil && !client.IsErrNotFound(err) {
			return fmt.Errorf("remove stale container %s: %w", name, err)
		}

		resp, err := cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, name)
		if err != nil {
			return fmt.Errorf("create container: %w", err)
		}
		containerID := resp.ID
		log.V(1).Info("container created", "id", containerID)

		cancelOnexit, _ := onexit.OnExitF("docker rm -f %s", containerID)

		defer func() {
			// ctx may already be cancelled.
			cleanCtx := context.Background()
			timeout := stopTimeout(cfg)
			if err := cli.ContainerStop(cleanCtx, containerID, container.StopOptions{Signal: cfg.StopSignal, Timeout: &timeout}); err != nil {
				log.V(1).Info("stop failed", "error", err.Error())
			}
			if err := cli.ContainerRemove(cleanCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
				log.Info("remove failed", "error", err.Error())
				return
			}
			if cancelOnexit != nil {
				cancelOnexit()
			}
		}()

		if err := cli.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
			return fmt.Errorf("start container: %w", err)
		}
		log.Info("container started", "image", cfg.Image)

		logReader, err := cli.ContainerLogs(ctx, containerID, container.LogsOptions{
			ShowStdout: true,
			ShowStderr: true,
			Follow:     true,
		})
		if err != nil {
			return fmt.Errorf("attach logs: %w", err)
		}

		logDone := make(chan struct{})
		go func() {
			defer close(logDone)
			_, _ = stdcopy.StdCopy(opts.Stdout, opts.Stderr, logReader)
			_ = logReader.Close()
		}()

		waitCh, errCh := cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)

		select {
		case result := <-waitCh:
			<-logDone
			if result.StatusCode != 0 {
				return fmt.Errorf("container exited with code %d", result.StatusCode)
			}
			return nil
		case err := <-errCh:
			<-logDone
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("container wait: %w", err)
		case <-ctx.Done():
			<-logDone
			return ctx.Err()
		}
	})
}

// ensureImage pulls ref when forced or when the engine does not have it.
func ensureImage(ctx context.Context, cli client.APIClient, ref string, force bool) error {
	if !force {
		_, _, err := cli.ImageInspectWithRaw(ctx, ref)
		if err == nil {
			return nil
		}
		if !client.IsErrNotFound(err) {
			return fmt.Errorf("docker inspect %s: %w", ref, err)
		}
	}

	rc, err := cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("docker pull %s: %w", ref, err)
	}
	defer func() {
		_ = rc.Close()
	}()
	// The pull is not complete until the response body is drained.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("docker pull %s: read response: %w", ref, err)
	}
	return nil
}

// stopTimeout returns the seconds the engine waits after the stop signal.
func stopTimeout(cfg *container.Config) int {
	if cfg.StopTimeout != nil {
		return *cfg.StopTimeout
	}
	return 10
}

func readyRunner(m *manifest.Manifest, opts Options) run.Runner {
	return run.Func(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, opts.Timeouts.Ready)
		defer cancel()

		prober := probe.New(m.App,
			probe.WithTimeouts(opts.Timeouts),
			probe.WithRetries(readyRetries(opts.Timeouts)))
		results := prober.Run(ctx, ReadyTargets(m, opts.Publish))
		if failed := probe.Failed(results); len(failed) > 0 {
			return fmt.Errorf("not ready after %s: %s: %w",
				opts.Timeouts.Ready, failed[0].Target.Name, failed[0].Err)
		}

		logr.FromContextOrDiscard(ctx).Info("ready", "checks", len(results))
		if opts.OnReady != nil {
			opts.OnReady(results)
		}
		return nil
	})
}

// readyRetries allows enough attempts to cover the ready timeout; the
// context deadline stops the loop first.
func readyRetries(t *config.Timeouts) int {
	if t.RetryInitialDelay <= 0 {
		return t.RetryMaxAttempts
	}
	n := int(t.Ready / t.RetryInitialDelay)
	return max(n, t.RetryMaxAttempts)
}

// ReadyTargets derives the checks for a local run. There is no edge in
// front of the container, so internal ports are checked directly: over
// HTTP when any of the service's public ports terminates HTTP, otherwise as
// a TCP connect. UDP services are skipped.
func ReadyTargets(m *manifest.Manifest, publish Publish) []probe.Target {
	addr := func(port int) string {
		return fmt.Sprintf("%s:%d", HostIP, publish.HostPort(port))
	}

	var targets []probe.Target
	seen := map[int]bool{}
	for _, svc := range m.Services {
		if svc.Protocol == manifest.ProtocolUDP || seen[svc.InternalPort] {
			continue
		}
		seen[svc.InternalPort] = true

		kind := probe.KindTCP
		for _, p := range svc.Ports {
			if p.HasHandler(manifest.HandlerHTTP) {
				kind = probe.KindHTTP
				break
			}
		}
		targets = append(targets, probe.Target{
			Name:    fmt.Sprintf("internal:%d", svc.InternalPort),
			Kind:    kind,
			Port:    svc.InternalPort,
			Address: addr(svc.InternalPort),
		})
	}

	if m.Metrics != nil {
		targets = append(targets, probe.Target{
			Name:    fmt.Sprintf("metrics:%d", m.Metrics.Port),
			Kind:    probe.KindMetrics,
			Port:    m.Metrics.Port,
			Address: addr(m.Metrics.Port),
			Path:    m.Metrics.Path,
		})
	}
	return targets
}

