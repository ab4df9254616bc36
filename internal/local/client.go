package local

import (
	"os"
	"path/filepath"

	"github.com/docker/docker/client"

	"github.com/kzgceremony/seqdeploy/internal/config"
)

// NewClient creates a Docker client. An explicit host in cfg wins; otherwise
// DOCKER_HOST is honoured and, when unset, common Docker Desktop and Colima
// socket paths are probed.
func NewClient(cfg config.Docker) (*client.Client, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}

	switch {
	case cfg.Host != "":
		opts = append(opts, client.WithHost(cfg.Host))
	case os.Getenv("DOCKER_HOST") == "":
		if sock := findSocket(socketCandidates()); sock != "" {
			opts = append(opts, client.WithHost("unix://"+sock))
		}
	}

	return client.NewClientWithOpts(opts...)
}

func socketCandidates() []string {
	candidates := []string{"/var/run/docker.sock"}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".docker", "run", "docker.sock"),
			filepath.Join(home, ".colima", "default", "docker.sock"),
		)
	}
	return candidates
}

// findSocket returns the first existing path, or "".
func findSocket(candidates []string) string {
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
