package local

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/go-connections/nat"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/util/labels"
	"github.com/kzgceremony/seqdeploy/internal/util/naming"
)

// HostIP is the interface published ports are bound to.
const HostIP = "127.0.0.1"

// Publish maps container ports to host ports. Ports missing from the map
// are published on the same host port.
type Publish map[int]int

// HostPort returns the host port for a container port.
func (p Publish) HostPort(containerPort int) int {
	if hp, ok := p[containerPort]; ok && hp > 0 {
		return hp
	}
	return containerPort
}

// Environment returns the container's KEY=VALUE list, sorted by key: the
// inline env plus the local value of every secret the manifest names.
func Environment(m *manifest.Manifest, values map[string]string) ([]string, error) {
	env := maps.Clone(m.Env)
	if env == nil {
		env = map[string]string{}
	}

	var errs []error
	for _, name := range m.SecretNames() {
		v, ok := values[name]
		if !ok {
			errs = append(errs, fmt.Errorf("secret %s has no local value", name))
			continue
		}
		env[name] = v
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out, nil
}

// containerPorts lists every port the container listens on: each service's
// internal port with its protocol, then the metrics port.
func containerPorts(m *manifest.Manifest) []nat.Port {
	var ports []nat.Port
	add := func(port int, proto manifest.Protocol) {
		if proto == "" {
			proto = manifest.ProtocolTCP
		}
		p := nat.Port(fmt.Sprintf("%d/%s", port, proto))
		if !slices.Contains(ports, p) {
			ports = append(ports, p)
		}
	}
	for _, svc := range m.Services {
		add(svc.InternalPort, svc.Protocol)
	}
	if m.Metrics != nil {
		add(m.Metrics.Port, manifest.ProtocolTCP)
	}
	return ports
}

// buildPortBindings binds each container port to the loopback interface.
func buildPortBindings(m *manifest.Manifest, publish Publish) (nat.PortMap, nat.PortSet) {
	portBindings := make(nat.PortMap)
	exposedPorts := make(nat.PortSet)
	for _, p := range containerPorts(m) {
		exposedPorts[p] = struct{}{}
		portBindings[p] = []nat.PortBinding{{
			HostIP:   HostIP,
			HostPort: strconv.Itoa(publish.HostPort(p.Int())),
		}}
	}
	return portBindings, exposedPorts
}

// buildMounts backs each manifest mount with a named Docker volume.
func buildMounts(m *manifest.Manifest) []mount.Mount {
	mounts := make([]mount.Mount, 0, len(m.Mounts))
	for _, mnt := range m.Mounts {
		mounts = append(mounts, mount.Mount{
			Type:   mount.TypeVolume,
			Source: naming.LocalVolume(m.App, mnt.Source),
			Target: mnt.Destination,
		})
	}
	return mounts
}

// containerConfig builds the create request for m.
func containerConfig(m *manifest.Manifest, opts Options) (*container.Config, *container.HostConfig, error) {
	env, err := Environment(m, opts.Values)
	if err != nil {
		return nil, nil, err
	}

	portBindings, exposedPorts := buildPortBindings(m, opts.Publish)

	cfg := &container.Config{
		Image:        m.Build.Image,
		Env:          env,
		ExposedPorts: exposedPorts,
		Labels:       labels.NewLabelBuilder(m.App).WithComponent(labels.ComponentLocal).Build(),
	}
	if m.KillSignal != "" {
		cfg.StopSignal = string(m.KillSignal)
	}
	if m.KillTimeout.Duration > 0 {
		timeout := int(m.KillTimeout.Seconds())
		cfg.StopTimeout = &timeout
	}

	hostCfg := &container.HostConfig{
		PortBindings: portBindings,
		Mounts:       buildMounts(m),
	}
	return cfg, hostCfg, nil
}
