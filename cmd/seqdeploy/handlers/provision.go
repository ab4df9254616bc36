package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/kzgceremony/seqdeploy/internal/config"
	"github.com/kzgceremony/seqdeploy/internal/platform/hcloud"
	"github.com/kzgceremony/seqdeploy/internal/ui/tui"
)

// Factory function variables for provision - can be replaced in tests.
var (
	newInfraClient = func(token string, t *config.Timeouts) hcloud.InfrastructureManager {
		return hcloud.NewRealClient(token, hcloud.WithTimeouts(t))
	}
)

// ProvisionMode selects what provision does.
type ProvisionMode int

const (
	// ProvisionApply creates or updates the resources.
	ProvisionApply ProvisionMode = iota
	// ProvisionStatus only reports what exists.
	ProvisionStatus
	// ProvisionDestroy deletes the resources.
	ProvisionDestroy
)

// Provision manages the Hetzner Cloud firewall and volumes of the app.
func Provision(ctx context.Context, configPath string, mode ProvisionMode) error {
	m, _, err := loadManifest(configPath)
	if err != nil {
		return err
	}

	s, err := loadSettings()
	if err != nil {
		return err
	}
	if err := s.RequireHCloud(); err != nil {
		return err
	}

	infra := newInfraClient(s.HCloud.Token, &s.Timeouts)
	plan := hcloud.NewPlan(m, s.HCloud.Location, s.HCloud.VolumeSize)

	switch mode {
	case ProvisionStatus:
		return provisionStatus(ctx, infra, plan)
	case ProvisionDestroy:
		fmt.Fprintf(out, "Destroying resources of %s\n", m.App)
		if err := plan.Destroy(ctx, infra); err != nil {
			return err
		}
		fmt.Fprintln(out, "Resources deleted.")
		return nil
	default:
		fmt.Fprintf(out, "Provisioning %s in %s\n", m.App, plan.Location)
		if err := plan.Apply(ctx, infra); err != nil {
			return err
		}
		printPlan(plan)
		return nil
	}
}

func printPlan(plan *hcloud.Plan) {
	fmt.Fprintf(out, "  %s firewall %s %s\n", tui.Mark(true), plan.Firewall.Name, tui.Dim(firewallPorts(plan.Firewall)))
	for _, v := range plan.Volumes {
		fmt.Fprintf(out, "  %s volume %s %s\n", tui.Mark(true), v.Name, tui.Dim(fmt.Sprintf("%d GB", v.SizeGB)))
	}
}

func provisionStatus(ctx context.Context, infra hcloud.InfrastructureManager, plan *hcloud.Plan) error {
	status, err := plan.Inspect(ctx, infra)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, tui.Title("Resources of "+plan.App))
	fmt.Fprintf(out, "  %s firewall %s\n", tui.Mark(status.Firewall != nil), plan.Firewall.Name)
	for _, v := range plan.Volumes {
		vol := status.Volumes[v.Name]
		detail := "missing"
		if vol != nil {
			detail = fmt.Sprintf("%d GB", vol.Size)
		}
		fmt.Fprintf(out, "  %s volume %s %s\n", tui.Mark(vol != nil), v.Name, tui.Dim(detail))
	}
	return nil
}

func firewallPorts(f hcloud.FirewallPlan) string {
	ports := "tcp " + joinPorts(f.Ports)
	if len(f.UDPPorts) > 0 {
		ports += " udp " + joinPorts(f.UDPPorts)
	}
	return ports
}

func joinPorts(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ",")
}
