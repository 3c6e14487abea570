package command

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aniketpanse/hornetd/internal/config"
	"github.com/aniketpanse/hornetd/internal/vhost"
)

// fakeTerminal is an in-memory Terminal double: lines are appended to
// a slice, UpdateLine overwrites the slice's last entry, and Interrupted
// is driven directly by the test.
type fakeTerminal struct {
	lines       []string
	updates     int
	interrupted bool
}

func (f *fakeTerminal) WriteLine(s string)  { f.lines = append(f.lines, s) }
func (f *fakeTerminal) WriteError(s string) { f.lines = append(f.lines, s) }
func (f *fakeTerminal) UpdateLine(s string) {
	f.updates++
	if len(f.lines) == 0 {
		f.lines = append(f.lines, s)
		return
	}
	f.lines[len(f.lines)-1] = s
}
func (f *fakeTerminal) Interrupted() bool { return f.interrupted }

func (f *fakeTerminal) joined() string { return strings.Join(f.lines, "\n") }

func testNetwork(t *testing.T) *config.Network {
	t.Helper()
	n, err := config.NewNetwork("192.168.0.0/24", "192.168.0.1", "8.8.8.8")
	require.NoError(t, err)
	return n
}

func testContext(t *testing.T) (*Context, *fakeTerminal) {
	t.Helper()
	network := testNetwork(t)
	ip := "192.168.0.232"
	params := config.VhostParams{
		Hostname:    "test02",
		IPAddress:   &ip,
		Default:     true,
		Env:         map[string]string{"HOME": "/home/testuser", "PATH": "/usr/bin:/bin"},
		ValidLogins: map[string]string{"testuser": "testpassword"},
	}
	host, err := vhost.New(params, network, t.TempDir(), nil, true)
	require.NoError(t, err)
	host.Login("testuser")

	term := &fakeTerminal{}
	fleet := vhost.Fleet{"test02": host}
	return &Context{Host: host, Fleet: fleet, Network: network, Term: term}, term
}

func TestEchoNoArgsPrintsEmptyLine(t *testing.T) {
	ctx, term := testContext(t)
	Echo(nil, ctx)
	assert.Equal(t, []string{""}, term.lines)
}

func TestEchoExpandsEnvVariable(t *testing.T) {
	ctx, term := testContext(t)
	Echo([]string{"$HOME"}, ctx)
	assert.Equal(t, []string{"/home/testuser"}, term.lines)
}

func TestEchoMissingEnvVariableIsEmpty(t *testing.T) {
	ctx, term := testContext(t)
	Echo([]string{"$NOPE"}, ctx)
	assert.Equal(t, []string{""}, term.lines)
}

func TestEchoJoinsLiteralTokens(t *testing.T) {
	ctx, term := testContext(t)
	Echo([]string{"hello", "world"}, ctx)
	assert.Equal(t, []string{"hello world"}, term.lines)
}

func TestEchoStarExpandsWorkingDirListing(t *testing.T) {
	ctx, term := testContext(t)
	_, err := ctx.Host.FS.WriteFile("/a.txt", strings.NewReader(""))
	require.NoError(t, err)
	_, err = ctx.Host.FS.WriteFile("/b.txt", strings.NewReader(""))
	require.NoError(t, err)

	Echo([]string{"*"}, ctx)
	assert.Contains(t, term.joined(), "a.txt")
	assert.Contains(t, term.joined(), "b.txt")
}

func TestPwdPrintsWorkingPath(t *testing.T) {
	ctx, term := testContext(t)
	ctx.Host.SetWorkingPath("/home/testuser")
	Pwd(nil, ctx)
	assert.Equal(t, []string{"/home/testuser"}, term.lines)
}

func TestPwdRejectsArguments(t *testing.T) {
	ctx, term := testContext(t)
	Pwd([]string{"extra"}, ctx)
	assert.Contains(t, term.lines[0], "too many arguments")
}

func TestCdNoArgsResetsToRoot(t *testing.T) {
	ctx, _ := testContext(t)
	ctx.Host.SetWorkingPath("/etc")
	Cd(nil, ctx)
	assert.Equal(t, "/", ctx.Host.WorkingPath())
}

func TestCdIntoExistingDirectory(t *testing.T) {
	ctx, _ := testContext(t)
	require.NoError(t, ctx.Host.FS.MakeDir("/etc"))
	Cd([]string{"etc"}, ctx)
	assert.Equal(t, "/etc", ctx.Host.WorkingPath())
}

func TestCdMissingDirectoryReportsError(t *testing.T) {
	ctx, term := testContext(t)
	Cd([]string{"nowhere"}, ctx)
	assert.Contains(t, term.lines[0], "No such file or directory")
	assert.Equal(t, "/", ctx.Host.WorkingPath())
}

func TestCdBackReferenceEscapeFallsBackToRoot(t *testing.T) {
	ctx, _ := testContext(t)
	Cd([]string{"../../../../etc/passwd"}, ctx)
	assert.Equal(t, "/", ctx.Host.WorkingPath())
}

func TestLsEmptyDirectoryPrintsNothing(t *testing.T) {
	ctx, term := testContext(t)
	require.NoError(t, ctx.Host.FS.MakeDir("/empty"))
	Ls([]string{"/empty"}, ctx)
	assert.Equal(t, []string{""}, term.lines)
}

func TestLsListsFilesInGivenDirectory(t *testing.T) {
	ctx, term := testContext(t)
	require.NoError(t, ctx.Host.FS.MakeDir("/stage"))
	_, err := ctx.Host.FS.WriteFile("/stage/one.txt", strings.NewReader("x"))
	require.NoError(t, err)
	_, err = ctx.Host.FS.WriteFile("/stage/two.txt", strings.NewReader("y"))
	require.NoError(t, err)

	Ls([]string{"/stage"}, ctx)
	assert.Equal(t, "one.txt two.txt", term.joined())
}

func TestLsAllIncludesDotEntries(t *testing.T) {
	ctx, term := testContext(t)
	Ls([]string{"-a"}, ctx)
	assert.Contains(t, term.joined(), ".")
	assert.Contains(t, term.joined(), "..")
}

func TestLsMissingPathReportsError(t *testing.T) {
	ctx, term := testContext(t)
	Ls([]string{"/does/not/exist"}, ctx)
	assert.Contains(t, term.joined(), "cannot access")
}

func TestLsDirectoryFlagShowsDirNameNotContents(t *testing.T) {
	ctx, term := testContext(t)
	require.NoError(t, ctx.Host.FS.MakeDir("/etc"))
	_, err := ctx.Host.FS.WriteFile("/etc/motd", strings.NewReader("hi"))
	require.NoError(t, err)

	Ls([]string{"-d", "/etc"}, ctx)
	assert.Equal(t, "/etc", term.joined())
}

func TestIfconfigEth0RendersSubstitutedStanza(t *testing.T) {
	ctx, term := testContext(t)
	Ifconfig([]string{"eth0"}, ctx)
	out := term.joined()
	assert.Contains(t, out, "eth0")
	assert.Contains(t, out, "inet addr:192.168.0.232")
	assert.Contains(t, out, "Bcast:192.168.0.255")
	assert.Contains(t, out, "Mask:255.255.255.0")
}

func TestIfconfigUnknownDeviceReportsError(t *testing.T) {
	ctx, term := testContext(t)
	Ifconfig([]string{"eth9"}, ctx)
	assert.Contains(t, term.joined(), "Device not found")
}

func TestIfconfigWithFlagsRefusesPermission(t *testing.T) {
	ctx, term := testContext(t)
	Ifconfig([]string{"eth0", "up"}, ctx)
	assert.Contains(t, term.joined(), "Operation not permitted")
}

func TestUnameNoArgsPrintsKernelOnly(t *testing.T) {
	ctx, term := testContext(t)
	Uname(nil, ctx)
	assert.Equal(t, []string{"Linux"}, term.lines)
}

func TestUnameDashAPrintsAllEightFieldsInFixedOrder(t *testing.T) {
	ctx, term := testContext(t)
	Uname([]string{"-a"}, ctx)
	assert.Equal(t, "Linux test02 3.13.0-37-generic #64-Ubuntu SMP Mon Sep 22 21:30:01 UTC 2014 i686 i686 i686 GNU/Linux", term.joined())
}

func TestUnameRespectsFixedFieldOrderRegardlessOfFlagOrder(t *testing.T) {
	ctx, term := testContext(t)
	Uname([]string{"-m", "-s"}, ctx)
	assert.Equal(t, "Linux i686", term.joined())
}

func TestUnameInvalidOptionReportsError(t *testing.T) {
	ctx, term := testContext(t)
	Uname([]string{"-z"}, ctx)
	assert.Contains(t, term.joined(), "invalid option")
}

func TestPingMissingTargetReportsUsageError(t *testing.T) {
	ctx, term := testContext(t)
	Ping(nil, ctx)
	assert.Contains(t, term.joined(), "Destination address required")
}

func TestPingUnknownHostname(t *testing.T) {
	ctx, term := testContext(t)
	Ping([]string{"nosuchhost"}, ctx)
	assert.Contains(t, term.joined(), "unknown host nosuchhost")
}

func TestPingAlreadyInterruptedPrintsStatisticsImmediately(t *testing.T) {
	ctx, term := testContext(t)
	term.interrupted = true
	Ping([]string{"test02"}, ctx)
	out := term.joined()
	assert.Contains(t, out, "PING test02 (192.168.0.232)")
	assert.Contains(t, out, "^C")
	assert.Contains(t, out, "test02 ping statistics")
	assert.Contains(t, out, "packets transmitted")
}

func TestWgetMissingURLReportsUsage(t *testing.T) {
	ctx, term := testContext(t)
	Wget(nil, ctx)
	assert.Contains(t, term.joined(), "missing URL")
}

func TestWgetUnsupportedSchemeFailsWithoutNetworkCall(t *testing.T) {
	ctx, term := testContext(t)
	Wget([]string{"ftp://example.com/file"}, ctx)
	out := term.joined()
	assert.Contains(t, out, "Resolving")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "unable to resolve host address")
}

func TestWgetMalformedURLFailsWithoutNetworkCall(t *testing.T) {
	ctx, term := testContext(t)
	Wget([]string{"://not-a-url"}, ctx)
	assert.Contains(t, term.joined(), "unable to resolve host address")
}

func TestSizeofFmtUnitsEscalate(t *testing.T) {
	assert.Equal(t, "0.0", sizeofFmt(0))
	assert.Equal(t, "1.0K", sizeofFmt(1024))
	assert.Equal(t, "1.0M", sizeofFmt(1024*1024))
	assert.Equal(t, "512.0", sizeofFmt(512))
}
