package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolvePathKeepsAbsolutePathUnchanged(t *testing.T) {
	workingDir = "/tmp/hornet-test"
	assert.Equal(t, "/etc/hornetd.db", resolvePath("/etc/hornetd.db"))
}

func TestResolvePathJoinsRelativePathAgainstWorkingDir(t *testing.T) {
	workingDir = "/tmp/hornet-test"
	assert.Equal(t, filepath.Join("/tmp/hornet-test", "hornet.db"), resolvePath("hornet.db"))
}
