package manifest

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	t.Parallel()
	require.NoError(t, validManifest().Validate())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(m *Manifest)
		wantErr string
	}{
		{"missing app", func(m *Manifest) { m.App = "" }, "app is required"},
		{"app not dns safe", func(m *Manifest) { m.App = "My_App" }, "must be DNS-safe"},
		{"app leading digit", func(m *Manifest) { m.App = "1abc" }, "must start with a lowercase letter"},
		{"app single letter", func(m *Manifest) { m.App = "a" }, "at least 2 characters"},
		{"missing image", func(m *Manifest) { m.Build.Image = "" }, "build.image is required"},
		{"bad image", func(m *Manifest) { m.Build.Image = "Not A Ref" }, "not a valid image reference"},
		{"bad signal", func(m *Manifest) { m.KillSignal = "SIGHUP" }, "kill_signal must be one of"},
		{"negative timeout", func(m *Manifest) { m.KillTimeout = Duration{-time.Second} }, "kill_timeout must be between"},
		{"timeout too long", func(m *Manifest) { m.KillTimeout = Duration{time.Hour} }, "kill_timeout must be between"},
		{"env and secret overlap", func(m *Manifest) { m.Env["GH_CLIENT_ID"] = "x" }, `"GH_CLIENT_ID" is also defined as a secret`},
		{"bad env name", func(m *Manifest) { m.Env["1BAD"] = "x" }, "not a valid variable name"},
		{"empty digest", func(m *Manifest) { m.Secrets["TOKEN"] = "" }, "empty digest"},
		{"non-hex digest", func(m *Manifest) { m.Secrets["TOKEN"] = "zz" }, "digest must be hex"},
		{"mount without source", func(m *Manifest) { m.Mounts[0].Source = "" }, "source is required"},
		{"relative mount", func(m *Manifest) { m.Mounts[0].Destination = "data" }, "must be an absolute path"},
		{"duplicate mount", func(m *Manifest) {
			m.Mounts = append(m.Mounts, Mount{Source: "other", Destination: "/data/"})
		}, "mounted more than once"},
		{"no services", func(m *Manifest) { m.Services = nil }, "at least one service is required"},
		{"no port mapping", func(m *Manifest) { m.Services[0].Ports = nil }, "at least one service port mapping is required"},
		{"zero internal port", func(m *Manifest) { m.Services[0].InternalPort = 0 }, "internal_port must be 1-65535"},
		{"bad protocol", func(m *Manifest) { m.Services[0].Protocol = "sctp" }, "protocol must be tcp or udp"},
		{"external port out of range", func(m *Manifest) { m.Services[0].Ports[0].Port = 70000 }, "port must be 1-65535"},
		{"duplicate external port", func(m *Manifest) { m.Services[0].Ports[1].Port = 80 }, "already bound"},
		{"empty handlers", func(m *Manifest) { m.Services[0].Ports[1].Handlers = nil }, "handlers must not be empty"},
		{"unsupported handler", func(m *Manifest) { m.Services[0].Ports[1].Handlers = []Handler{"grpc"} }, "unsupported handler"},
		{"http before tls", func(m *Manifest) {
			m.Services[0].Ports[1].Handlers = []Handler{HandlerHTTP, HandlerTLS}
		}, "tls must come before http"},
		{"force https without http", func(m *Manifest) {
			m.Services[0].Ports[1].ForceHTTPS = true
			m.Services[0].Ports[1].Handlers = []Handler{HandlerTLS}
		}, "force_https requires the http handler"},
		{"soft above hard", func(m *Manifest) {
			m.Services[0].Concurrency = &Concurrency{Type: ConcurrencyConnections, SoftLimit: 30, HardLimit: 25}
		}, "exceeds hard_limit"},
		{"metrics collides", func(m *Manifest) { m.Metrics.Port = 8080 }, "collides with a service internal_port"},
		{"metrics path", func(m *Manifest) { m.Metrics.Path = "metrics" }, "metrics.path must start with '/'"},
		{"allowed public port", func(m *Manifest) {
			m.Experimental = &Experimental{AllowedPublicPorts: []int{0}}
		}, "allowed_public_ports"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := validManifest()
			tt.mutate(m)

			err := m.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	m := &Manifest{}
	err := m.Validate()
	require.Error(t, err)

	var joined interface{ Unwrap() []error }
	require.True(t, errors.As(err, &joined))
	assert.GreaterOrEqual(t, len(joined.Unwrap()), 3)

	msg := err.Error()
	for _, want := range []string{"app is required", "build.image is required", "at least one service is required"} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %q", want, msg)
	}
}

func TestValidateHandlerChain(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateHandlerChain([]Handler{HandlerTLS, HandlerHTTP}))
	assert.NoError(t, validateHandlerChain([]Handler{HandlerProxyProto}))
	assert.Error(t, validateHandlerChain([]Handler{HandlerHTTP, HandlerHTTP}))
	assert.Error(t, validateHandlerChain([]Handler{HandlerTLS, HandlerPGTLS}))
}
