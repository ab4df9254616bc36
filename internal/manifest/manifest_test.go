package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SequencerManifest(t *testing.T) {
	t.Parallel()

	m, err := Load(filepath.Join("testdata", "fly.toml"))
	require.NoError(t, err)

	assert.Equal(t, "kzg-ceremony-sequencer", m.App)
	assert.Equal(t, SignalINT, m.KillSignal)
	assert.Equal(t, 30*time.Second, m.KillTimeout.Duration)
	assert.Equal(t, "ghcr.io/ethereum/kzg-ceremony-sequencer:latest", m.Build.Image)

	require.Len(t, m.Mounts, 1)
	assert.Equal(t, Mount{Source: "kzg_ceremony_data", Destination: "/data"}, m.Mounts[0])

	assert.Len(t, m.Env, 8)
	assert.Equal(t, "180", m.Env["COMPUTE_DEADLINE"])
	assert.Equal(t, []string{"ETH_CLIENT_ID", "ETH_CLIENT_SECRET", "ETH_RPC_URL", "GH_CLIENT_ID", "GH_CLIENT_SECRET"}, m.SecretNames())

	require.NotNil(t, m.Experimental)
	assert.True(t, m.Experimental.AutoRollback)
	assert.Empty(t, m.Experimental.AllowedPublicPorts)

	require.NotNil(t, m.Metrics)
	assert.Equal(t, Metrics{Port: 9998, Path: "/metrics"}, *m.Metrics)

	require.Len(t, m.Services, 1)
	svc := m.Services[0]
	assert.Equal(t, 8080, svc.InternalPort)
	assert.Equal(t, ProtocolTCP, svc.Protocol)
	require.Len(t, svc.Ports, 2)
	assert.Equal(t, Port{Port: 80, Handlers: []Handler{HandlerHTTP}, ForceHTTPS: true}, svc.Ports[0])
	assert.Equal(t, Port{Port: 443, Handlers: []Handler{HandlerTLS, HandlerHTTP}}, svc.Ports[1])
	require.Len(t, svc.TCPChecks, 1)
	assert.Equal(t, 15*time.Second, svc.TCPChecks[0].Interval.Duration)
	assert.Equal(t, time.Second, svc.TCPChecks[0].GracePeriod.Duration)

	assert.Equal(t, []int{80, 443}, m.PublicPorts())
	assert.Equal(t, []int{8080}, m.InternalPorts())
}

func TestDecode_ReportsUnknownKeys(t *testing.T) {
	t.Parallel()

	data, err := os.ReadFile(filepath.Join("testdata", "fly.toml"))
	require.NoError(t, err)

	_, unknown, err := Decode(data, FormatTOML)
	require.NoError(t, err)

	assert.Contains(t, unknown, "processes")
	found := false
	for _, key := range unknown {
		if strings.Contains(key, "script_checks") {
			found = true
		}
	}
	assert.True(t, found, "expected script_checks to be reported, got %v", unknown)
}

func TestDecode_ReportsUnknownKeysYAML(t *testing.T) {
	t.Parallel()

	data := []byte("app: demo\nbuild:\n  image: nginx:1.27\nhttp_service:\n  internal_port: 8080\n")

	m, unknown, err := Decode(data, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, "demo", m.App)
	assert.Equal(t, []string{"http_service"}, unknown)

	_, unknown, err = Decode([]byte(`{"app":"demo","build":{"image":"nginx:1.27"}}`), FormatJSON)
	require.NoError(t, err)
	assert.Empty(t, unknown)
}

func TestParse_MountListForms(t *testing.T) {
	t.Parallel()

	t.Run("single table", func(t *testing.T) {
		t.Parallel()
		m, err := Parse([]byte("app = \"a\"\n[mounts]\nsource = \"data\"\ndestination = \"/data\"\n"), FormatTOML)
		require.NoError(t, err)
		assert.Equal(t, MountList{{Source: "data", Destination: "/data"}}, m.Mounts)
	})

	t.Run("array of tables", func(t *testing.T) {
		t.Parallel()
		src := "app = \"a\"\n[[mounts]]\nsource = \"one\"\ndestination = \"/one\"\n[[mounts]]\nsource = \"two\"\ndestination = \"/two\"\n"
		m, err := Parse([]byte(src), FormatTOML)
		require.NoError(t, err)
		assert.Equal(t, MountList{{Source: "one", Destination: "/one"}, {Source: "two", Destination: "/two"}}, m.Mounts)
	})

	t.Run("yaml list keeps order", func(t *testing.T) {
		t.Parallel()
		m, err := Load(filepath.Join("testdata", "multi-mount.yaml"))
		require.NoError(t, err)
		require.Len(t, m.Mounts, 2)
		assert.Equal(t, "data", m.Mounts[0].Source)
		assert.Equal(t, "cache", m.Mounts[1].Source)
	})

	t.Run("json single object", func(t *testing.T) {
		t.Parallel()
		m, err := Parse([]byte(`{"app":"a","mounts":{"source":"data","destination":"/data"}}`), FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, MountList{{Source: "data", Destination: "/data"}}, m.Mounts)
	})

	t.Run("non-string mount value", func(t *testing.T) {
		t.Parallel()
		_, err := Parse([]byte("app = \"a\"\n[mounts]\nsource = 1\n"), FormatTOML)
		assert.Error(t, err)
	})
}

func TestDuration_Decoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     string
		format  Format
		want    time.Duration
		wantErr bool
	}{
		{"integer seconds", "kill_timeout = 30", FormatTOML, 30 * time.Second, false},
		{"duration string", `kill_timeout = "1m30s"`, FormatTOML, 90 * time.Second, false},
		{"numeric string", `kill_timeout = "45"`, FormatTOML, 45 * time.Second, false},
		{"json seconds", `{"kill_timeout": 12}`, FormatJSON, 12 * time.Second, false},
		{"seconds overflow", "kill_timeout = 36028797018963968", FormatTOML, 0, true},
		{"negative seconds overflow", "kill_timeout = -36028797018963968", FormatTOML, 0, true},
		{"numeric string overflow", `kill_timeout = "36028797018963968"`, FormatTOML, 0, true},
		{"float overflow", "kill_timeout = 1e30", FormatTOML, 0, true},
		{"json overflow", `{"kill_timeout": 36028797018963968}`, FormatJSON, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m, err := Parse([]byte(tt.src), tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.KillTimeout.Duration)
		})
	}

	_, err := Parse([]byte(`kill_timeout = "soon"`), FormatTOML)
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	original, err := LoadWithoutValidation(filepath.Join("testdata", "fly.toml"))
	require.NoError(t, err)

	for _, format := range []Format{FormatTOML, FormatYAML, FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			data, err := Marshal(original, format)
			require.NoError(t, err)

			decoded, err := Parse(data, format)
			require.NoError(t, err)

			assert.True(t, Equivalent(original, decoded), "round trip changed the manifest:\n%s", Diff(original, decoded))
		})
	}
}

func TestRoundTrip_PreservesListOrder(t *testing.T) {
	t.Parallel()

	m := validManifest()
	m.Mounts = MountList{{Source: "b", Destination: "/b"}, {Source: "a", Destination: "/a"}}
	m.Services[0].Ports = []Port{
		{Port: 443, Handlers: []Handler{HandlerTLS, HandlerHTTP}},
		{Port: 80, Handlers: []Handler{HandlerHTTP}, ForceHTTPS: true},
	}

	data, err := Marshal(m, FormatTOML)
	require.NoError(t, err)
	decoded, err := Parse(data, FormatTOML)
	require.NoError(t, err)

	assert.Equal(t, "b", decoded.Mounts[0].Source)
	assert.Equal(t, 443, decoded.Services[0].Ports[0].Port)
	assert.Equal(t, 80, decoded.Services[0].Ports[1].Port)
}

func TestEquivalent(t *testing.T) {
	t.Parallel()

	a := validManifest()
	b := a.Clone()
	assert.True(t, Equivalent(a, b))
	assert.Empty(t, Diff(a, b))

	b.Env = map[string]string{}
	a.Env = nil
	assert.True(t, Equivalent(a, b), "nil and empty env should be equivalent")

	b.Services[0].Ports[0].Port = 8443
	assert.False(t, Equivalent(a, b))
	assert.Contains(t, Diff(a, b), "8443")
}

func TestClone_IsDeep(t *testing.T) {
	t.Parallel()

	a := validManifest()
	b := a.Clone()

	b.Env["NEW"] = "x"
	b.Services[0].Ports[0].Handlers[0] = HandlerTLS
	b.Metrics.Port = 1
	b.Mounts[0].Source = "other"

	assert.NotContains(t, a.Env, "NEW")
	assert.Equal(t, HandlerHTTP, a.Services[0].Ports[0].Handlers[0])
	assert.Equal(t, 9998, a.Metrics.Port)
	assert.Equal(t, "data", a.Mounts[0].Source)
}

func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"fly.toml", "fly.yaml", "fly.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(validManifest(), path))

		loaded, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, "sequencer", loaded.App, name)
	}
}

func TestFindFileFrom(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, DefaultFilename), []byte("app = \"x\"\n"), 0o600))

	path, err := findFileFrom(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, DefaultFilename), path)
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatTOML, FormatFromPath("fly.toml"))
	assert.Equal(t, FormatYAML, FormatFromPath("deploy.YML"))
	assert.Equal(t, FormatJSON, FormatFromPath("/tmp/app.json"))
	assert.Equal(t, FormatTOML, FormatFromPath("manifest"))

	f, err := ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("ini")
	assert.Error(t, err)
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	m := &Manifest{
		Services: []Service{{InternalPort: 8080, Concurrency: &Concurrency{HardLimit: 2}}},
		Metrics:  &Metrics{Port: 9998},
	}
	m.ApplyDefaults()

	assert.Equal(t, SignalINT, m.KillSignal)
	assert.Equal(t, DefaultKillTimeout, m.KillTimeout.Duration)
	assert.Equal(t, ProtocolTCP, m.Services[0].Protocol)
	assert.Equal(t, ConcurrencyConnections, m.Services[0].Concurrency.Type)
	assert.Equal(t, "/metrics", m.Metrics.Path)
}

func TestSignal(t *testing.T) {
	t.Parallel()

	assert.True(t, SignalINT.IsValid())
	assert.True(t, SignalINT.Graceful())
	assert.False(t, SignalKILL.Graceful())
	assert.False(t, Signal("SIGHUP").IsValid())
}

// validManifest returns a small manifest that passes validation.
func validManifest() *Manifest {
	return &Manifest{
		App:         "sequencer",
		KillSignal:  SignalINT,
		KillTimeout: Seconds(30),
		Build:       Build{Image: "ghcr.io/ethereum/kzg-ceremony-sequencer:latest"},
		Mounts:      MountList{{Source: "data", Destination: "/data"}},
		Env:         map[string]string{"VERBOSE": "3"},
		Secrets:     map[string]string{"GH_CLIENT_ID": "0123456789abcdef"},
		Metrics:     &Metrics{Port: 9998, Path: "/metrics"},
		Services: []Service{{
			InternalPort: 8080,
			Protocol:     ProtocolTCP,
			Ports: []Port{
				{Port: 80, Handlers: []Handler{HandlerHTTP}, ForceHTTPS: true},
				{Port: 443, Handlers: []Handler{HandlerTLS, HandlerHTTP}},
			},
		}},
	}
}
