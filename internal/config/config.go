// Package config loads and validates hornetd's working-directory
// configuration: the fleet of virtual hosts to emulate, the network they
// live on, and where the SSH host key and audit database live.
//
// If working_dir/config.json is absent, the bundled default is copied
// there first so the operator gets a working fleet out of the box.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/aniketpanse/hornetd/data"
)

// VhostParams is one entry of the virtual_hosts array in config.json.
type VhostParams struct {
	Hostname    string            `json:"hostname"`
	IPAddress   *string           `json:"ip_address"`
	Default     bool              `json:"default,omitempty"`
	Env         map[string]string `json:"env"`
	ValidLogins map[string]string `json:"valid_logins"`
}

type networkParams struct {
	NetworkIP string `json:"network_ip"`
	DNSServer string `json:"dns_server"`
	Gateway   string `json:"gateway"`
}

type rawConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	KeyFile      string        `json:"key_file"`
	Database     string        `json:"database"`
	Network      networkParams `json:"network"`
	VirtualHosts []VhostParams `json:"virtual_hosts"`
}

// Config is the fully parsed, validated, immutable-after-load
// configuration for one hornetd process.
type Config struct {
	Host            string
	Port            int
	KeyFile         string
	Database        string
	Network         *Network
	VhostParams     []VhostParams
	DefaultHostname string
}

// Load reads workingDir/config.json, copying the bundled default there
// first if it does not yet exist, and returns a validated Config.
func Load(workingDir string) (*Config, error) {
	configPath := filepath.Join(workingDir, "config.json")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, data.DefaultConfigJSON, 0o644); err != nil {
			return nil, fmt.Errorf("copy default config to %s: %w", configPath, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", configPath, err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")
	v.SetEnvPrefix("HORNETD")
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}

	// The struct is decoded straight from the file bytes with
	// encoding/json rather than through viper's mapstructure path, so the
	// json tags apply (an "ip_address" of null, like an absent key, leaves
	// VhostParams.IPAddress nil); viper still owns locating the file and
	// the env var overlay for host and port below.
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", configPath, err)
	}
	var rc rawConfig
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", configPath, err)
	}
	if v.IsSet("host") {
		rc.Host = v.GetString("host")
	}
	if v.IsSet("port") {
		rc.Port = v.GetInt("port")
	}

	if len(rc.VirtualHosts) == 0 {
		return nil, fmt.Errorf("config %s: virtual_hosts must not be empty", configPath)
	}

	network, err := NewNetwork(rc.Network.NetworkIP, rc.Network.Gateway, rc.Network.DNSServer)
	if err != nil {
		return nil, err
	}

	defaultHostname := ""
	seen := make(map[string]bool, len(rc.VirtualHosts))
	for _, p := range rc.VirtualHosts {
		if seen[p.Hostname] {
			return nil, fmt.Errorf("config %s: duplicate hostname %q", configPath, p.Hostname)
		}
		seen[p.Hostname] = true
		if p.Default {
			defaultHostname = p.Hostname
		}
	}
	if defaultHostname == "" {
		defaultHostname = rc.VirtualHosts[0].Hostname
	}

	return &Config{
		Host:            rc.Host,
		Port:            rc.Port,
		KeyFile:         rc.KeyFile,
		Database:        rc.Database,
		Network:         network,
		VhostParams:     rc.VirtualHosts,
		DefaultHostname: defaultHostname,
	}, nil
}
