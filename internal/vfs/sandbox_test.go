package vfs

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T) *SandboxedFS {
	t.Helper()
	fsys, err := New(t.TempDir(), false, nil)
	require.NoError(t, err)
	return fsys
}

func TestNormalizeConfinesToRoot(t *testing.T) {
	fsys := newTestFS(t)

	sysPath, err := fsys.GetSysPath("/a/b/c")
	require.NoError(t, err)
	assert.True(t, len(sysPath) > len(fsys.Root()))
}

func TestNormalizeRejectsBackReferenceEscape(t *testing.T) {
	fsys := newTestFS(t)

	_, err := fsys.GetSysPath("../../../../etc/passwd")
	assert.True(t, errors.Is(err, ErrBackReference))
}

func TestNormalizeHonorsInRangeBackReferences(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.MakeDir("/a/b"))

	sysPath, err := fsys.GetSysPath("/a/b/../c")
	require.NoError(t, err)
	assert.Contains(t, sysPath, "/a/c")
}

func TestCreateAndReadFileRoundTrip(t *testing.T) {
	fsys := newTestFS(t)

	n, err := fsys.WriteFile("/greeting.txt", bytes.NewBufferString("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	data, err := fsys.ReadFile("/greeting.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestExistsIsFileIsDir(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.MakeDir("/etc"))
	_, err := fsys.WriteFile("/etc/motd", bytes.NewBufferString("hi"))
	require.NoError(t, err)

	assert.True(t, fsys.Exists("/etc"))
	assert.True(t, fsys.IsDir("/etc"))
	assert.False(t, fsys.IsFile("/etc"))
	assert.True(t, fsys.IsFile("/etc/motd"))
	assert.False(t, fsys.Exists("/nope"))
}

func TestListDirSorted(t *testing.T) {
	fsys := newTestFS(t)
	require.NoError(t, fsys.MakeDir("/d"))
	for _, name := range []string{"c", "a", "b"} {
		_, err := fsys.WriteFile("/d/"+name, bytes.NewBufferString(""))
		require.NoError(t, err)
	}

	entries, err := fsys.ListDir("/d")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, entries)
}

func TestPreCreateSeedsDirectories(t *testing.T) {
	fsys, err := New(t.TempDir(), true, []string{"/etc", "/var", "/bin"})
	require.NoError(t, err)

	assert.True(t, fsys.IsDir("/etc"))
	assert.True(t, fsys.IsDir("/var"))
	assert.True(t, fsys.IsDir("/bin"))
}
