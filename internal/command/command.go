// Package command implements the per-utility emulators hornetd's shell
// dispatches typed command lines to: echo, pwd, cd, ls, ifconfig, uname,
// ping, and wget. Each is a self-contained argument parser plus output
// generator operating against a Context, dispatched through an explicit
// name→Func table rather than reflection-based lookup.
package command

import (
	"strings"

	"github.com/aniketpanse/hornetd/data"
	"github.com/aniketpanse/hornetd/internal/config"
	"github.com/aniketpanse/hornetd/internal/vhost"
)

// Terminal is the write/interrupt surface a running command needs from
// its owning shell. A shell implements this directly.
type Terminal interface {
	// WriteLine writes s followed by a newline to the remote side.
	WriteLine(s string)
	// WriteError writes an error line to the remote side (distinguished
	// from WriteLine only for readability at call sites; both go to the
	// same channel — hornet has no separate stderr stream either).
	WriteError(s string)
	// UpdateLine rewrites the current terminal line in place (carriage
	// return + erase-to-end-of-line + new content), used by wget's
	// progress bar.
	UpdateLine(s string)
	// Interrupted reports whether Ctrl-C has been seen since the current
	// command started.
	Interrupted() bool
}

// Context bundles everything a command implementation needs: the
// current host (for its filesystem, env, and working path), the full
// fleet (for ping's hostname/IP resolution), the network (for
// ifconfig's address math), and the terminal to write to.
type Context struct {
	Host    *vhost.VirtualHost
	Fleet   vhost.Fleet
	Network *config.Network
	Term    Terminal
}

// Func is the signature every emulated command implements.
type Func func(params []string, ctx *Context)

// Table maps a command name to its implementation. The shell looks up
// the current host's command here; a miss means "command not found".
var Table = map[string]Func{
	"echo":     Echo,
	"pwd":      Pwd,
	"cd":       Cd,
	"ls":       Ls,
	"ifconfig": Ifconfig,
	"uname":    Uname,
	"ping":     Ping,
	"wget":     Wget,
}

// helpVersion checks params for --help/--version and, if present, writes
// the command's canned text file and reports true (meaning the caller
// should do no further work). echo, pwd, and cd have no canned text
// files and don't call this.
func helpVersion(name string, params []string, ctx *Context) bool {
	for _, p := range params {
		switch p {
		case "--help":
			writeDataFile(ctx, name, "help")
			return true
		case "--version":
			writeDataFile(ctx, name, "version")
			return true
		}
	}
	return false
}

func writeDataFile(ctx *Context, name, file string) {
	b, err := data.Commands.ReadFile("commands/" + name + "/" + file)
	if err != nil {
		return
	}
	ctx.Term.WriteLine(strings.TrimRight(string(b), "\n"))
}
