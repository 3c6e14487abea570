// Package shell implements the per-channel interactive read-eval loop:
// it owns the login stack of virtual hosts an attacker has "ssh"-ed
// into, tokenizes and dispatches command lines, delivers Ctrl-C as an
// interrupt flag to long-running commands, and records every dispatched
// command to the audit store.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	shellwords "github.com/kballard/go-shellquote"

	"github.com/aniketpanse/hornetd/internal/audit"
	"github.com/aniketpanse/hornetd/internal/command"
	"github.com/aniketpanse/hornetd/internal/config"
	"github.com/aniketpanse/hornetd/internal/session"
	"github.com/aniketpanse/hornetd/internal/vhost"
)

const (
	ctrlC      = 0x03
	ctrlD      = 0x04
	backspace1 = 0x08
	backspace2 = 0x7f
)

// quitSentinel is what the line reader emits for Ctrl-D pressed on an
// empty input buffer; dispatch rewrites it to "logout".
const quitSentinel = "\x00QUIT\x00"

// Shell is the per-channel state machine bound to one authenticated SSH
// session. It implements command.Terminal directly.
type Shell struct {
	Session         *session.Session
	Fleet           vhost.Fleet
	Network         *config.Network
	Audit           *audit.Store
	Logger          *slog.Logger
	defaultHostname string

	conn io.ReadWriter

	stackMu sync.Mutex
	stack   []*vhost.VirtualHost
	current *vhost.VirtualHost

	interrupt atomic.Bool
	noEcho    atomic.Bool

	lines   chan string
	readErr chan error

	outMu  sync.Mutex
	output strings.Builder
}

// New constructs a Shell for one channel. conn is the raw byte stream to
// and from the attacker (an ssh.Channel satisfies io.ReadWriter).
func New(sess *session.Session, fleet vhost.Fleet, network *config.Network, store *audit.Store, conn io.ReadWriter, logger *slog.Logger, defaultHostname string) *Shell {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shell{
		Session:         sess,
		Fleet:           fleet,
		Network:         network,
		Audit:           store,
		Logger:          logger,
		defaultHostname: defaultHostname,
		conn:            conn,
		lines:           make(chan string, 1),
		readErr:         make(chan error, 1),
	}
}

// --- command.Terminal ---

// WriteLine writes s plus a CRLF to the remote side.
func (sh *Shell) WriteLine(s string) {
	sh.writeRaw(s + "\r\n")
	sh.outMu.Lock()
	sh.output.WriteString(s)
	sh.output.WriteByte('\n')
	sh.outMu.Unlock()
}

// WriteError writes an error line; hornet has no separate stderr stream.
func (sh *Shell) WriteError(s string) { sh.WriteLine(s) }

// UpdateLine rewrites the current terminal line in place, used by
// wget's progress bar.
func (sh *Shell) UpdateLine(s string) {
	sh.writeRaw("\r\x1b[K" + s)
}

// Interrupted reports whether Ctrl-C has been seen since the current
// command started.
func (sh *Shell) Interrupted() bool { return sh.interrupt.Load() }

func (sh *Shell) writeRaw(s string) {
	io.WriteString(sh.conn, s)
	sh.Session.Touch()
}

// --- login stack ---

func (sh *Shell) currentHost() *vhost.VirtualHost {
	sh.stackMu.Lock()
	defer sh.stackMu.Unlock()
	return sh.current
}

func (sh *Shell) setHost(h *vhost.VirtualHost) {
	sh.stackMu.Lock()
	sh.current = h
	sh.stackMu.Unlock()
}

func (sh *Shell) stackLen() int {
	sh.stackMu.Lock()
	defer sh.stackMu.Unlock()
	return len(sh.stack)
}

func (sh *Shell) prompt() string { return sh.currentHost().Prompt() }

// Run drives the read-eval loop until the login stack empties (logout
// at depth 1), the channel closes, or ctx is cancelled. username is the
// name the attacker authenticated with against the default host.
func (sh *Shell) Run(ctx context.Context, username string) error {
	host, ok := sh.Fleet[sh.defaultHostname]
	if !ok {
		return fmt.Errorf("shell: default host %q not in fleet", sh.defaultHostname)
	}

	sh.stackMu.Lock()
	sh.stack = []*vhost.VirtualHost{host}
	sh.current = host
	sh.stackMu.Unlock()
	host.Login(username)

	if err := sh.Audit.CreateSession(ctx, sh.Session.ID, sh.Session.StartTime, sh.Session.SourceIP, sh.Session.SourcePort); err != nil {
		sh.Logger.Error("create attack session record", "session", sh.Session.ID, "error", err)
	}

	go sh.readLoop()

	sh.WriteLine(host.Welcome())
	sh.writePrompt()

	for {
		select {
		case <-ctx.Done():
			sh.finish()
			return ctx.Err()
		case err := <-sh.readErr:
			sh.finish()
			return err
		case line := <-sh.lines:
			sh.dispatch(ctx, line)
			if sh.stackLen() == 0 {
				sh.finish()
				return nil
			}
			sh.writePrompt()
		}
	}
}

func (sh *Shell) writePrompt() {
	sh.writeRaw(sh.prompt())
}

func (sh *Shell) finish() {
	if err := sh.Audit.CloseSession(context.Background(), sh.Session.ID, time.Now()); err != nil {
		sh.Logger.Error("close attack session record", "session", sh.Session.ID, "error", err)
	}
	sh.Session.Finish()
}

// dispatch tokenizes and runs one input line. Around every dispatch the
// interrupt flag is cleared before, and regardless of outcome the
// current host's command is recorded to audit afterward.
func (sh *Shell) dispatch(ctx context.Context, raw string) {
	sh.interrupt.Store(false)
	sh.outMu.Lock()
	sh.output.Reset()
	sh.outMu.Unlock()

	line := strings.TrimSpace(raw)
	if line == quitSentinel {
		line = "logout"
	}
	if line == "" {
		return
	}

	tokens, err := shellwords.Split(line)
	if err != nil || len(tokens) == 0 {
		tokens = strings.Fields(line)
	}
	if len(tokens) == 0 {
		return
	}
	cmdName, params := tokens[0], tokens[1:]

	switch cmdName {
	case "ssh":
		sh.cmdSSH(params)
	case "logout":
		sh.cmdLogout()
	default:
		host := sh.currentHost()
		if fn, ok := command.Table[cmdName]; ok {
			fn(params, &command.Context{Host: host, Fleet: sh.Fleet, Network: sh.Network, Term: sh})
		} else {
			sh.WriteError(cmdName + ": command not found")
		}
	}

	recordHost := ""
	if h := sh.currentHost(); h != nil {
		recordHost = h.Hostname
	}
	sh.recordCommand(ctx, cmdName, recordHost)
}

func (sh *Shell) recordCommand(ctx context.Context, cmd, host string) {
	sh.outMu.Lock()
	output := sh.output.String()
	sh.outMu.Unlock()
	if err := sh.Audit.RecordCommand(ctx, sh.Session.ID, cmd, host, output); err != nil {
		sh.Logger.Error("record attack command", "session", sh.Session.ID, "command", cmd, "error", err)
	}
}

// --- shell-level commands ---

// cmdSSH implements nested ssh: resolve user/host, prompt for a
// password without echo, and on successful authentication against the
// target host's own credential map, push it onto the login stack.
func (sh *Shell) cmdSSH(params []string) {
	username, hostString, ok := parseSSHArgs(params)
	if !ok {
		sh.WriteError("ssh: missing host")
		return
	}

	if username == "" {
		if before, after, found := strings.Cut(hostString, "@"); found {
			username, hostString = before, after
		} else {
			username = sh.currentHost().CurrentUser()
		}
	} else if before, after, found := strings.Cut(hostString, "@"); found {
		_ = before
		hostString = after
	}

	target, ok := sh.Fleet[hostString]
	if !ok {
		sh.WriteLine(fmt.Sprintf("ssh: Could not resolve hostname %s: Name or service not known", hostString))
		return
	}

	password := sh.readLineNoEcho("Password: ")
	if !target.Authenticate(username, password) {
		return
	}

	sh.stackMu.Lock()
	sh.stack = append(sh.stack, target)
	sh.stackMu.Unlock()
	target.Login(username)
	sh.setHost(target)
	sh.WriteLine(target.Welcome())
}

// parseSSHArgs recognizes -p PORT (accepted, unused), -l USER, and a
// positional host_string which may be "user@host".
func parseSSHArgs(params []string) (username, hostString string, ok bool) {
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == "-l":
			if i+1 < len(params) {
				username = params[i+1]
				i++
			}
		case strings.HasPrefix(p, "-l") && len(p) > 2:
			username = p[2:]
		case p == "-p":
			if i+1 < len(params) {
				i++
			}
		case strings.HasPrefix(p, "-p") && len(p) > 2:
			// port value bundled with flag, ignored.
		case strings.HasPrefix(p, "-"):
			// unrecognized flag, ignored.
		default:
			hostString = p
			ok = true
		}
	}
	return
}

// cmdLogout pops the login stack. At depth 1 it empties the stack,
// which signals Run to end the loop; the current host is left pointing
// at the host being exited, matching what gets audited for this command.
func (sh *Shell) cmdLogout() {
	sh.stackMu.Lock()
	n := len(sh.stack)
	if n <= 1 {
		sh.stack = nil
		sh.stackMu.Unlock()
		return
	}
	popped := sh.stack[n-1]
	sh.stack = sh.stack[:n-1]
	newTop := sh.stack[len(sh.stack)-1]
	sh.stackMu.Unlock()

	popped.Logout()
	sh.setHost(newTop)
}

// --- input cooking ---

// readLineNoEcho writes prompt raw, suppresses local echo of subsequent
// keystrokes, and blocks for the next complete line.
func (sh *Shell) readLineNoEcho(prompt string) string {
	io.WriteString(sh.conn, prompt)
	sh.noEcho.Store(true)
	defer sh.noEcho.Store(false)

	select {
	case line := <-sh.lines:
		io.WriteString(sh.conn, "\r\n")
		if line == quitSentinel {
			return ""
		}
		return line
	case <-sh.readErr:
		return ""
	}
}

// readLoop cooks raw bytes off conn into complete lines, delivering
// Ctrl-C as an immediate, non-blocking interrupt-flag flip (so it's
// noticed even while a long command holds the dispatch goroutine) and
// complete lines onto sh.lines for the dispatch loop or a password
// prompt to consume.
func (sh *Shell) readLoop() {
	r := bufio.NewReader(sh.conn)
	var buf []rune
	skipLF := false

	for {
		b, err := r.ReadByte()
		if err != nil {
			sh.readErr <- err
			return
		}

		switch b {
		case ctrlC:
			sh.interrupt.Store(true)
		case ctrlD:
			if len(buf) == 0 {
				sh.lines <- quitSentinel
			}
			skipLF = false
		case '\r':
			sh.emitLine(&buf)
			skipLF = true
		case '\n':
			if skipLF {
				skipLF = false
				continue
			}
			sh.emitLine(&buf)
		case backspace1, backspace2:
			skipLF = false
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
				if !sh.noEcho.Load() {
					io.WriteString(sh.conn, "\b \b")
				}
			}
		default:
			skipLF = false
			buf = append(buf, rune(b))
			if !sh.noEcho.Load() {
				sh.conn.Write([]byte{b})
			}
		}
	}
}

func (sh *Shell) emitLine(buf *[]rune) {
	line := string(*buf)
	*buf = (*buf)[:0]
	if !sh.noEcho.Load() {
		io.WriteString(sh.conn, "\r\n")
	}
	sh.lines <- line
}
