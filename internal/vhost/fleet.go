package vhost

import (
	"fmt"
	"os"

	"github.com/aniketpanse/hornetd/internal/config"
)

// Fleet is the read-only-after-startup set of virtual hosts, keyed by
// hostname.
type Fleet map[string]*VirtualHost

// Build constructs every vhost named in cfg, creating vhostsDir if
// needed and recovering IPs from any prior run found there.
func Build(cfg *config.Config, vhostsDir string, createFS bool) (Fleet, error) {
	if err := os.MkdirAll(vhostsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create vhosts dir %s: %w", vhostsDir, err)
	}

	existing, err := ListVhostsDir(vhostsDir)
	if err != nil {
		return nil, err
	}

	fleet := make(Fleet, len(cfg.VhostParams))
	for _, params := range cfg.VhostParams {
		host, err := New(params, cfg.Network, vhostsDir, existing, createFS)
		if err != nil {
			return nil, err
		}
		fleet[host.Hostname] = host
		existing = append(existing, fmt.Sprintf("%s_%s", host.Hostname, host.IPAddress))
	}
	return fleet, nil
}

// ByIP reverse-looks-up a vhost by its assigned IP address.
func (f Fleet) ByIP(ip string) (*VirtualHost, bool) {
	for _, host := range f {
		if host.IPAddress == ip {
			return host, true
		}
	}
	return nil, false
}
