package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNetworkDerivesBroadcastAndNetmask(t *testing.T) {
	n, err := NewNetwork("192.168.0.0/24", "192.168.0.1", "8.8.8.8")
	require.NoError(t, err)

	assert.Equal(t, "255.255.255.0", n.Netmask())
	assert.Equal(t, "192.168.0.255", n.Broadcast())
}

func TestNetworkContainsExcludesNetworkAndBroadcast(t *testing.T) {
	n, err := NewNetwork("192.168.0.0/24", "192.168.0.1", "8.8.8.8")
	require.NoError(t, err)

	assert.False(t, n.Contains("192.168.0.0"))
	assert.False(t, n.Contains("192.168.0.255"))
	assert.True(t, n.Contains("192.168.0.1"))
	assert.True(t, n.Contains("192.168.0.254"))
	assert.False(t, n.Contains("10.0.0.1"))
	assert.False(t, n.Contains("not-an-ip"))
}

func TestNetworkUsableRangeAndCount(t *testing.T) {
	n, err := NewNetwork("192.168.0.0/24", "192.168.0.1", "8.8.8.8")
	require.NoError(t, err)

	first, last := n.UsableRange()
	assert.Equal(t, "192.168.0.1", first)
	assert.Equal(t, "192.168.0.254", last)
	assert.Equal(t, 254, n.UsableCount())
	assert.Equal(t, "192.168.0.1", n.UsableAt(0))
	assert.Equal(t, "192.168.0.254", n.UsableAt(253))
}

func TestNewNetworkRejectsNonIPv4AndMalformedCIDR(t *testing.T) {
	_, err := NewNetwork("not-a-cidr", "", "")
	assert.Error(t, err)

	_, err = NewNetwork("2001:db8::/32", "", "")
	assert.Error(t, err)
}

func TestNetworkUsableCountForPointToPointLink(t *testing.T) {
	n, err := NewNetwork("192.168.0.0/31", "", "")
	require.NoError(t, err)
	assert.Equal(t, 0, n.UsableCount())
}
