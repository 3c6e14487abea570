package sshfront

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrGenerateHostKeyGeneratesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hornet_rsa_key")

	signer, err := LoadOrGenerateHostKey(path)
	require.NoError(t, err)
	assert.NotNil(t, signer)
	assert.FileExists(t, path)
}

func TestLoadOrGenerateHostKeyReusesExistingKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hornet_rsa_key")

	first, err := LoadOrGenerateHostKey(path)
	require.NoError(t, err)

	second, err := LoadOrGenerateHostKey(path)
	require.NoError(t, err)

	assert.Equal(t, first.PublicKey().Marshal(), second.PublicKey().Marshal())
}
