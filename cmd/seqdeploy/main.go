// Package main is the entry point for the seqdeploy CLI.
//
// seqdeploy manages the deployment manifest of the KZG ceremony sequencer:
// it validates the manifest against the sequencer's environment contract,
// keeps secret digests in sync, renders Kubernetes objects, runs the image
// locally in Docker, probes live deployments, stores releases in S3 and
// provisions Hetzner Cloud resources.
//
// For detailed usage information, run:
//
//	seqdeploy --help
package main

import (
	"fmt"
	"os"

	"github.com/kzgceremony/seqdeploy/cmd/seqdeploy/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
