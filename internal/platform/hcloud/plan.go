package hcloud

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/kzgceremony/seqdeploy/internal/manifest"
	"github.com/kzgceremony/seqdeploy/internal/util/labels"
	"github.com/kzgceremony/seqdeploy/internal/util/naming"
)

// Plan is the set of Hetzner resources an app needs.
type Plan struct {
	App      string
	Location string
	Firewall FirewallPlan
	Volumes  []VolumePlan
}

// FirewallPlan describes the app firewall.
type FirewallPlan struct {
	Name string
	// Ports are opened for TCP, UDPPorts for UDP.
	Ports    []int
	UDPPorts []int
	Labels   map[string]string
}

// Rules returns the inbound rules admitting the planned ports.
func (f FirewallPlan) Rules() []hcloud.FirewallRule {
	return append(
		InboundRules(hcloud.FirewallRuleProtocolTCP, f.Ports),
		InboundRules(hcloud.FirewallRuleProtocolUDP, f.UDPPorts)...)
}

// VolumePlan describes the volume backing one mount.
type VolumePlan struct {
	Name   string
	Source string
	SizeGB int
	Labels map[string]string
}

// NewPlan derives the resources for m: a firewall admitting every public
// port with its service's protocol and one volume of sizeGB per mount.
// Experimental allowed public ports are opened for TCP.
func NewPlan(m *manifest.Manifest, location string, sizeGB int) *Plan {
	tcp, udp := publicPortsByProtocol(m)
	p := &Plan{
		App:      m.App,
		Location: location,
		Firewall: FirewallPlan{
			Name:     naming.Firewall(m.App),
			Ports:    tcp,
			UDPPorts: udp,
			Labels:   labels.NewLabelBuilder(m.App).WithComponent(labels.ComponentFirewall).Build(),
		},
	}
	for _, mnt := range m.Mounts {
		p.Volumes = append(p.Volumes, VolumePlan{
			Name:   naming.Volume(m.App, mnt.Source),
			Source: mnt.Source,
			SizeGB: max(sizeGB, MinVolumeSize),
			Labels: labels.NewLabelBuilder(m.App).
				WithComponent(labels.ComponentVolume).
				WithVolume(naming.DNSLabel(mnt.Source)).
				Build(),
		})
	}
	return p
}

func publicPortsByProtocol(m *manifest.Manifest) (tcp, udp []int) {
	for _, svc := range m.Services {
		for _, port := range svc.Ports {
			if svc.Protocol == manifest.ProtocolUDP {
				if !slices.Contains(udp, port.Port) {
					udp = append(udp, port.Port)
				}
			} else if !slices.Contains(tcp, port.Port) {
				tcp = append(tcp, port.Port)
			}
		}
	}
	if m.Experimental != nil {
		for _, port := range m.Experimental.AllowedPublicPorts {
			if !slices.Contains(tcp, port) {
				tcp = append(tcp, port)
			}
		}
	}
	return tcp, udp
}

// Apply ensures every resource in the plan, firewall first.
func (p *Plan) Apply(ctx context.Context, infra InfrastructureManager) error {
	if _, err := infra.EnsureFirewall(ctx, p.Firewall.Name, p.Firewall.Rules(), p.Firewall.Labels); err != nil {
		return fmt.Errorf("firewall %s: %w", p.Firewall.Name, err)
	}
	for _, v := range p.Volumes {
		if _, err := infra.EnsureVolume(ctx, v.Name, v.SizeGB, p.Location, v.Labels); err != nil {
			return fmt.Errorf("volume %s: %w", v.Name, err)
		}
	}
	return nil
}

// Destroy deletes every resource in the plan. It continues past failures
// and returns them joined.
func (p *Plan) Destroy(ctx context.Context, infra InfrastructureManager) error {
	var errs []error
	for _, v := range p.Volumes {
		if err := infra.DeleteVolume(ctx, v.Name); err != nil {
			errs = append(errs, fmt.Errorf("volume %s: %w", v.Name, err))
		}
	}
	if err := infra.DeleteFirewall(ctx, p.Firewall.Name); err != nil {
		errs = append(errs, fmt.Errorf("firewall %s: %w", p.Firewall.Name, err))
	}
	return errors.Join(errs...)
}

// Status reports which planned resources exist.
type Status struct {
	Firewall *hcloud.Firewall
	Volumes  map[string]*hcloud.Volume
}

// Inspect looks up every planned resource. Missing resources are nil.
func (p *Plan) Inspect(ctx context.Context, infra InfrastructureManager) (*Status, error) {
	fw, err := infra.GetFirewall(ctx, p.Firewall.Name)
	if err != nil {
		return nil, fmt.Errorf("firewall %s: %w", p.Firewall.Name, err)
	}
	s := &Status{Firewall: fw, Volumes: make(map[string]*hcloud.Volume, len(p.Volumes))}
	for _, v := range p.Volumes {
		vol, err := infra.GetVolume(ctx, v.Name)
		if err != nil {
			return nil, fmt.Errorf("volume %s: %w", v.Name, err)
		}
		s.Volumes[v.Name] = vol
	}
	return s, nil
}
