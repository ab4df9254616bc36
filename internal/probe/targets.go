package probe

import (
	"fmt"
	"net"
	"strconv"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
)

// Kind selects how a target is checked.
type Kind string

const (
	// KindRedirect expects a 3xx response pointing at an https:// location.
	KindRedirect Kind = "redirect"
	// KindHTTPS expects a TLS handshake followed by any HTTP response.
	KindHTTPS Kind = "https"
	// KindHTTP expects any HTTP response.
	KindHTTP Kind = "http"
	// KindTCP expects the port to accept a connection.
	KindTCP Kind = "tcp"
	// KindMetrics expects a parseable Prometheus text exposition.
	KindMetrics Kind = "metrics"
)

// Target is one check against the deployment.
type Target struct {
	Name string
	Kind Kind
	// Port is the public port as declared in the manifest.
	Port int
	// Address is host:port actually dialled.
	Address string
	// Path is requested for HTTP-based kinds.
	Path string
}

// URL returns the request URL for HTTP-based kinds.
func (t Target) URL() string {
	scheme := "http"
	if t.Kind == KindHTTPS {
		scheme = "https"
	}
	path := t.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s://%s%s", scheme, t.Address, path)
}

// Targets derives the checks for m against host. ports remaps manifest
// ports to the ports actually reachable, e.g. when a local run publishes
// 8080 on a random host port; unmapped ports are used as declared.
func Targets(m *manifest.Manifest, host string, ports map[int]int) []Target {
	addr := func(port int) string {
		if mapped, ok := ports[port]; ok {
			port = mapped
		}
		return net.JoinHostPort(host, strconv.Itoa(port))
	}

	var out []Target
	for _, svc := range m.Services {
		for _, p := range svc.Ports {
			t := Target{Port: p.Port, Address: addr(p.Port)}
			switch {
			case p.ForceHTTPS:
				t.Kind = KindRedirect
			case p.HasHandler(manifest.HandlerTLS) && p.HasHandler(manifest.HandlerHTTP):
				t.Kind = KindHTTPS
			case p.HasHandler(manifest.HandlerHTTP):
				t.Kind = KindHTTP
			default:
				t.Kind = KindTCP
			}
			t.Name = fmt.Sprintf("%s:%d", t.Kind, p.Port)
			out = append(out, t)
		}
	}

	if m.Metrics != nil {
		out = append(out, Target{
			Name:    fmt.Sprintf("metrics:%d", m.Metrics.Port),
			Kind:    KindMetrics,
			Port:    m.Metrics.Port,
			Address: addr(m.Metrics.Port),
			Path:    m.Metrics.Path,
		})
	}
	return out
}
