package config

import (
	"encoding/binary"
	"fmt"
	"net"
)

// Network describes the CIDR block a virtual-host fleet is carved out of,
// along with its configured gateway and DNS server, plus the derived broadcast address and dotted netmask Go's net package
// doesn't hand back for free.
type Network struct {
	CIDR      string
	Gateway   string
	DNSServer string

	ipNet     *net.IPNet
	networkID uint32
	broadcast uint32
	netmask   string
}

// NewNetwork parses a CIDR string (e.g. "192.168.0.0/24") and derives the
// broadcast address and dotted netmask.
func NewNetwork(cidr, gateway, dnsServer string) (*Network, error) {
	ip, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid network CIDR %q: %w", cidr, err)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("network CIDR %q is not IPv4", cidr)
	}

	maskBits, _ := ipNet.Mask.Size()
	networkID := binary.BigEndian.Uint32(ipNet.IP.To4())
	hostBits := uint32(32 - maskBits)
	var broadcast uint32
	if hostBits >= 32 {
		broadcast = networkID
	} else {
		broadcast = networkID | ((1 << hostBits) - 1)
	}

	netmaskIP := net.IP(ipNet.Mask).To4()
	if netmaskIP == nil {
		netmaskIP = net.CIDRMask(maskBits, 32)
	}

	return &Network{
		CIDR:      cidr,
		Gateway:   gateway,
		DNSServer: dnsServer,
		ipNet:     ipNet,
		networkID: networkID,
		broadcast: broadcast,
		netmask:   netmaskIP.String(),
	}, nil
}

// Netmask returns the dotted-quad netmask, e.g. "255.255.255.0".
func (n *Network) Netmask() string { return n.netmask }

// Broadcast returns the dotted-quad broadcast address.
func (n *Network) Broadcast() string { return uint32ToIP(n.broadcast).String() }

// Contains reports whether ip lies in the network's usable range
// [network+1 .. broadcast-1], excluding the network and broadcast
// addresses themselves.
func (n *Network) Contains(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	ip4 := parsed.To4()
	if ip4 == nil {
		return false
	}
	v := binary.BigEndian.Uint32(ip4)
	return v > n.networkID && v < n.broadcast
}

// UsableRange returns the first and last usable host addresses.
func (n *Network) UsableRange() (first, last string) {
	return uint32ToIP(n.networkID + 1).String(), uint32ToIP(n.broadcast - 1).String()
}

// UsableCount returns how many host addresses are usable.
func (n *Network) UsableCount() int {
	if n.broadcast <= n.networkID+1 {
		return 0
	}
	return int(n.broadcast-n.networkID) - 1
}

// UsableAt returns the i'th usable address (0-indexed).
func (n *Network) UsableAt(i int) string {
	return uint32ToIP(n.networkID + 1 + uint32(i)).String()
}

func uint32ToIP(v uint32) net.IP {
	b := make(net.IP, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}
