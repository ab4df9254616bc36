package sequencer

import (
	"github.com/kzgceremony/seqdeploy/internal/manifest"
)

// Deployment constants of the public ceremony sequencer.
const (
	DefaultApp      = "kzg-ceremony-sequencer"
	DefaultImage    = "ghcr.io/ethereum/kzg-ceremony-sequencer:latest"
	DefaultVolume   = "kzg_ceremony_data"
	DataDir         = "/data"
	InternalPort    = 8080
	MetricsPort     = 9998
	PublicCallbacks = "https://seq.ceremony.ethereum.org/auth/callback/"
)

// DefaultManifest returns the descriptor the public sequencer is deployed
// with. Secrets are declared with manifest.UnsetDigest until imported.
func DefaultManifest() *manifest.Manifest {
	secrets := make(map[string]string)
	for _, v := range contract {
		if v.Source == SourceSecret {
			secrets[v.Name] = manifest.UnsetDigest
		}
	}

	return &manifest.Manifest{
		App:         DefaultApp,
		KillSignal:  manifest.SignalINT,
		KillTimeout: manifest.Seconds(30),
		Build:       manifest.Build{Image: DefaultImage},
		Mounts:      manifest.MountList{{Source: DefaultVolume, Destination: DataDir}},
		Env: map[string]string{
			Verbose:               "3",
			GHRedirectURL:         PublicCallbacks + "github",
			ETHRedirectURL:        PublicCallbacks + "eth",
			ETHMinNonce:           "4",
			MultiContribution:     "false",
			ComputeDeadline:       "180",
			LobbyCheckinFrequency: "30",
			LobbyCheckinTolerance: "15",
		},
		Secrets: secrets,
		Experimental: &manifest.Experimental{
			AutoRollback: true,
		},
		Metrics: &manifest.Metrics{Port: MetricsPort, Path: manifest.DefaultMetricsPath},
		Services: []manifest.Service{{
			InternalPort: InternalPort,
			Protocol:     manifest.ProtocolTCP,
			Concurrency: &manifest.Concurrency{
				Type:      manifest.ConcurrencyConnections,
				SoftLimit: 20,
				HardLimit: 25,
			},
			Ports: []manifest.Port{
				{Port: 80, Handlers: []manifest.Handler{manifest.HandlerHTTP}, ForceHTTPS: true},
				{Port: 443, Handlers: []manifest.Handler{manifest.HandlerTLS, manifest.HandlerHTTP}},
			},
			TCPChecks: []manifest.TCPCheck{{
				Interval:    manifest.Seconds(15),
				Timeout:     manifest.Seconds(2),
				GracePeriod: manifest.Seconds(1),
			}},
		}},
	}
}
