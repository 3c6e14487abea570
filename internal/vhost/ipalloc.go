package vhost

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/aniketpanse/hornetd/internal/config"
)

// assignIP runs a three-step IP assignment: use the configured IP if
// it's in range, else recover a prior run's IP from an existing
// "<hostname>_<ip>" directory under vhostsDir, else pick a random usable
// address. A vhost's sandbox directory name is its allocation record —
// no separate state file is kept.
func assignIP(params config.VhostParams, network *config.Network, vhostsDir string, existing []string) (string, error) {
	if params.IPAddress != nil && *params.IPAddress != "" && network.Contains(*params.IPAddress) {
		return *params.IPAddress, nil
	}

	prefix := params.Hostname + "_"
	for _, name := range existing {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		ip := strings.TrimPrefix(name, prefix)
		if network.Contains(ip) {
			return ip, nil
		}
	}

	return randomUsableIP(network, existing)
}

// vhostRoot returns the on-disk sandbox directory for a given hostname/IP
// pair, e.g. <vhostsDir>/test02_192.168.0.5.
func vhostRoot(vhostsDir, hostname, ip string) string {
	return filepath.Join(vhostsDir, fmt.Sprintf("%s_%s", hostname, ip))
}

// ListVhostsDir returns the entry names directly under vhostsDir, used to
// recover prior-run IP assignments. Missing directories are treated as
// empty (first run).
func ListVhostsDir(vhostsDir string) ([]string, error) {
	entries, err := os.ReadDir(vhostsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func randomUsableIP(network *config.Network, taken []string) (string, error) {
	count := network.UsableCount()
	if count <= 0 {
		return "", fmt.Errorf("network %s has no usable host addresses", network.CIDR)
	}
	takenIPs := make(map[string]bool, len(taken))
	for _, name := range taken {
		if idx := strings.LastIndex(name, "_"); idx != -1 {
			takenIPs[name[idx+1:]] = true
		}
	}

	// Try a handful of random draws before falling back to a linear scan,
	// guaranteeing uniqueness within a single run even on a near-full network.
	for attempt := 0; attempt < 32; attempt++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(count)))
		if err != nil {
			return "", err
		}
		candidate := network.UsableAt(int(n.Int64()))
		if !takenIPs[candidate] {
			return candidate, nil
		}
	}
	for i := 0; i < count; i++ {
		candidate := network.UsableAt(i)
		if !takenIPs[candidate] {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("network %s has no free host addresses left", network.CIDR)
}
