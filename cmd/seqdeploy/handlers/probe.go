package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"

	"github.com/kzgceremony/seqdeploy/internal/config"
	"github.com/kzgceremony/seqdeploy/internal/probe"
	"github.com/kzgceremony/seqdeploy/internal/ui/tui"
)

// Factory function variables for probe - can be replaced in tests.
var (
	newProber = func(app string, t *config.Timeouts, insecure bool) *probe.Prober {
		opts := []probe.Option{probe.WithTimeouts(t)}
		if insecure {
			opts = append(opts, probe.WithInsecureTLS())
		}
		return probe.New(app, opts...)
	}

	runWatchTUI = tui.RunWatchTUI
)

// ProbeOptions are the flags of the probe command.
type ProbeOptions struct {
	Host     string
	Watch    bool
	Interval time.Duration
	// Listen serves the probe metrics on this address while watching.
	Listen   string
	Insecure bool
	JSON     bool
}

// probeEntry is one result in --json output.
type probeEntry struct {
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	OK       bool    `json:"ok"`
	Status   int     `json:"status,omitempty"`
	Families int     `json:"families,omitempty"`
	Seconds  float64 `json:"seconds"`
	Error    string  `json:"error,omitempty"`
}

// Probe checks a deployment's public ports and metrics endpoint.
func Probe(ctx context.Context, configPath string, opts ProbeOptions) error {
	m, _, err := loadManifest(configPath)
	if err != nil {
		return err
	}
	if opts.Host == "" {
		return errors.New("--host is required")
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}
	if opts.Interval <= 0 {
		opts.Interval = s.Timeouts.WatchInterval
	}

	prober := newProber(m.App, &s.Timeouts, opts.Insecure)
	targets := probe.Targets(m, opts.Host, nil)

	if opts.Listen != "" {
		stop, err := serveMetrics(ctx, opts.Listen, prober.Handler())
		if err != nil {
			return err
		}
		defer stop()
	}

	if !opts.Watch {
		results := prober.Run(ctx, targets)
		if err := printResults(results, opts.JSON); err != nil {
			return err
		}
		if failed := probe.Failed(results); len(failed) > 0 {
			return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	round := func(ctx context.Context) []probe.Result {
		return prober.Run(ctx, targets)
	}

	if !opts.JSON && isInteractiveTTY() {
		final, err := runWatchTUI(ctx, round, m.App, opts.Host, opts.Interval)
		if err != nil {
			return err
		}
		if final.Rounds > 0 && !final.Healthy() {
			return errors.New("last probe round had failures")
		}
		return nil
	}

	return probeWatch(ctx, round, opts)
}

// probeWatch prints each round until ctx is cancelled.
func probeWatch(ctx context.Context, round tui.RoundFunc, opts ProbeOptions) error {
	ticker := time.NewTicker(opts.Interval)
	defer ticker.Stop()

	for {
		results := round(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if !opts.JSON {
			fmt.Fprintf(out, "%s\n", tui.Dim(time.Now().Format(time.RFC3339)))
		}
		if err := printResults(results, opts.JSON); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printResults(results []probe.Result, jsonOutput bool) error {
	if jsonOutput {
		entries := make([]probeEntry, 0, len(results))
		for _, r := range results {
			e := probeEntry{
				Name:     r.Target.Name,
				Address:  r.Target.Address,
				OK:       r.OK(),
				Status:   r.Status,
				Families: r.Families,
				Seconds:  r.Duration.Seconds(),
			}
			if r.Err != nil {
				e.Error = r.Err.Error()
			}
			entries = append(entries, e)
		}
		b, err := json.Marshal(entries)
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		fmt.Fprintln(out, string(b))
		return nil
	}

	for _, r := range results {
		line := fmt.Sprintf("  %s %-16s %s", tui.Mark(r.OK()), r.Target.Name, tui.Dim(r.Duration.Round(time.Millisecond).String()))
		if r.Err != nil {
			line += " " + r.Err.Error()
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

// serveMetrics serves h at /metrics on addr until the returned func is called.
func serveMetrics(ctx context.Context, addr string, h http.Handler) (func(), error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	// Surface immediate bind failures.
	select {
	case err := <-errCh:
		return nil, fmt.Errorf("failed to serve metrics on %s: %w", addr, err)
	case <-time.After(100 * time.Millisecond):
	}

	logr.FromContextOrDiscard(ctx).Info("serving probe metrics", "addr", addr)
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}, nil
}
