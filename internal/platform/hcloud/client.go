package hcloud

import (
	"context"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// FirewallManager defines the interface for managing firewalls.
type FirewallManager interface {
	EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error)
	DeleteFirewall(ctx context.Context, name string) error
	GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error)
}

// VolumeManager defines the interface for managing block volumes.
type VolumeManager interface {
	EnsureVolume(ctx context.Context, name string, sizeGB int, location string, labels map[string]string) (*hcloud.Volume, error)
	DeleteVolume(ctx context.Context, name string) error
	GetVolume(ctx context.Context, name string) (*hcloud.Volume, error)
}

// InfrastructureManager combines all infrastructure interfaces.
type InfrastructureManager interface {
	FirewallManager
	VolumeManager
}

var _ InfrastructureManager = (*RealClient)(nil)
