package handlers

import (
	"context"
	"testing"

	hcloudgo "github.com/hetznercloud/hcloud-go/v2/hcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kzgceremony/seqdeploy/internal/config"
	"github.com/kzgceremony/seqdeploy/internal/platform/hcloud"
	"github.com/kzgceremony/seqdeploy/internal/sequencer"
)

// infraMock keeps resources in memory.
type infraMock struct {
	firewalls map[string]*hcloudgo.Firewall
	volumes   map[string]*hcloudgo.Volume
}

func newInfraMock() *infraMock {
	return &infraMock{
		firewalls: map[string]*hcloudgo.Firewall{},
		volumes:   map[string]*hcloudgo.Volume{},
	}
}

func (m *infraMock) EnsureFirewall(_ context.Context, name string, rules []hcloudgo.FirewallRule, labels map[string]string) (*hcloudgo.Firewall, error) {
	fw := &hcloudgo.Firewall{Name: name, Rules: rules, Labels: labels}
	m.firewalls[name] = fw
	return fw, nil
}

func (m *infraMock) DeleteFirewall(_ context.Context, name string) error {
	delete(m.firewalls, name)
	return nil
}

func (m *infraMock) GetFirewall(_ context.Context, name string) (*hcloudgo.Firewall, error) {
	return m.firewalls[name], nil
}

func (m *infraMock) EnsureVolume(_ context.Context, name string, sizeGB int, _ string, labels map[string]string) (*hcloudgo.Volume, error) {
	v := &hcloudgo.Volume{Name: name, Size: sizeGB, Labels: labels}
	m.volumes[name] = v
	return v, nil
}

func (m *infraMock) DeleteVolume(_ context.Context, name string) error {
	delete(m.volumes, name)
	return nil
}

func (m *infraMock) GetVolume(_ context.Context, name string) (*hcloudgo.Volume, error) {
	return m.volumes[name], nil
}

func stubInfra(t *testing.T, infra hcloud.InfrastructureManager) {
	t.Helper()
	orig := newInfraClient
	newInfraClient = func(token string, _ *config.Timeouts) hcloud.InfrastructureManager {
		assert.Equal(t, "test-token", token)
		return infra
	}
	t.Cleanup(func() { newInfraClient = orig })
}

func TestProvision_Lifecycle(t *testing.T) {
	buf := captureOutput(t)
	stubSettings(t, testSettings())
	infra := newInfraMock()
	stubInfra(t, infra)

	path := writeManifest(t, sequencer.DefaultManifest(), "fly.toml")
	ctx := context.Background()

	require.NoError(t, Provision(ctx, path, ProvisionApply))
	assert.Contains(t, buf.String(), "tcp 80,443")
	require.Len(t, infra.firewalls, 1)
	require.Len(t, infra.volumes, 1)
	assert.Contains(t, infra.volumes, "kzg-ceremony-sequencer-kzg-ceremony-data")

	buf.Reset()
	require.NoError(t, Provision(ctx, path, ProvisionStatus))
	assert.Contains(t, buf.String(), "10 GB")

	buf.Reset()
	require.NoError(t, Provision(ctx, path, ProvisionDestroy))
	assert.Empty(t, infra.firewalls)
	assert.Empty(t, infra.volumes)

	buf.Reset()
	require.NoError(t, Provision(ctx, path, ProvisionStatus))
	assert.Contains(t, buf.String(), "missing")
}

func TestProvision_RequiresToken(t *testing.T) {
	captureOutput(t)
	s := testSettings()
	s.HCloud.Token = ""
	stubSettings(t, s)

	path := writeManifest(t, sequencer.DefaultManifest(), "fly.toml")
	err := Provision(context.Background(), path, ProvisionApply)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HCLOUD_TOKEN")
}
