package hcloud

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"
)

// anywhere admits every IPv4 and IPv6 source.
var anywhere = []string{"0.0.0.0/0", "::/0"}

// InboundRules returns one inbound rule per port for protocol, open to any
// source.
func InboundRules(protocol hcloud.FirewallRuleProtocol, ports []int) []hcloud.FirewallRule {
	sources := make([]net.IPNet, 0, len(anywhere))
	for _, s := range anywhere {
		_, n, err := net.ParseCIDR(s)
		if err == nil {
			sources = append(sources, *n)
		}
	}

	rules := make([]hcloud.FirewallRule, 0, len(ports))
	for _, p := range ports {
		rules = append(rules, hcloud.FirewallRule{
			Description: hcloud.Ptr(fmt.Sprintf("Allow incoming %s %d", strings.ToUpper(string(protocol)), p)),
			Direction:   hcloud.FirewallRuleDirectionIn,
			Protocol:    protocol,
			Port:        hcloud.Ptr(strconv.Itoa(p)),
			SourceIPs:   sources,
		})
	}
	return rules
}

// EnsureFirewall ensures that a firewall exists with exactly the given rules.
// Rules of an existing firewall are replaced.
func (c *RealClient) EnsureFirewall(ctx context.Context, name string, rules []hcloud.FirewallRule, labels map[string]string) (*hcloud.Firewall, error) {
	return (&EnsureOperation[*hcloud.Firewall, hcloud.FirewallCreateOpts, hcloud.FirewallSetRulesOpts]{
		Name:         name,
		ResourceType: "firewall",
		Get:          c.client.Firewall.Get,
		Create:       c.createFirewall,
		Update:       c.client.Firewall.SetRules,
		CreateOptsMapper: func() hcloud.FirewallCreateOpts {
			return hcloud.FirewallCreateOpts{
				Name:   name,
				Rules:  rules,
				Labels: labels,
			}
		},
		UpdateOptsMapper: func(_ *hcloud.Firewall) hcloud.FirewallSetRulesOpts {
			return hcloud.FirewallSetRulesOpts{
				Rules: rules,
			}
		},
	}).Execute(ctx, c)
}

func (c *RealClient) createFirewall(ctx context.Context, opts hcloud.FirewallCreateOpts) (*CreateResult[*hcloud.Firewall], *hcloud.Response, error) {
	res, resp, err := c.client.Firewall.Create(ctx, opts)
	if err != nil {
		return nil, resp, err
	}
	return &CreateResult[*hcloud.Firewall]{
		Resource: res.Firewall,
		Actions:  res.Actions,
	}, resp, nil
}

// DeleteFirewall deletes the firewall with the given name.
func (c *RealClient) DeleteFirewall(ctx context.Context, name string) error {
	return (&DeleteOperation[*hcloud.Firewall]{
		Name:         name,
		ResourceType: "firewall",
		Get:          c.client.Firewall.Get,
		Delete:       c.client.Firewall.Delete,
	}).Execute(ctx, c)
}

// GetFirewall returns the firewall with the given name, or nil.
func (c *RealClient) GetFirewall(ctx context.Context, name string) (*hcloud.Firewall, error) {
	fw, _, err := c.client.Firewall.Get(ctx, name)
	return fw, err
}
