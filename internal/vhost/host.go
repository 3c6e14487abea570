// Package vhost implements the emulated machine identities hornetd's
// shell presents to an attacker: each VirtualHost owns a hostname, an IP
// carved out of the configured network, a credential map, an
// environment, and a sandboxed filesystem rooted at its own directory
// under <vhosts_dir>.
package vhost

import (
	"fmt"
	"sync"

	"github.com/aniketpanse/hornetd/data"
	"github.com/aniketpanse/hornetd/internal/config"
	"github.com/aniketpanse/hornetd/internal/vfs"
)

// VirtualHost is one emulated machine in the fleet.
type VirtualHost struct {
	Hostname    string
	IPAddress   string
	Default     bool
	ValidLogins map[string]string
	Env         map[string]string
	FS          *vfs.SandboxedFS

	mu          sync.Mutex
	currentUser string
	loggedIn    bool
	workingPath string
}

// New constructs a VirtualHost from its config params, recovering or
// assigning an IP, and opens its sandboxed filesystem at
// <vhostsDir>/<hostname>_<ip>.
func New(params config.VhostParams, network *config.Network, vhostsDir string, existing []string, createFS bool) (*VirtualHost, error) {
	ip, err := assignIP(params, network, vhostsDir, existing)
	if err != nil {
		return nil, fmt.Errorf("assign IP for vhost %s: %w", params.Hostname, err)
	}

	root := vhostRoot(vhostsDir, params.Hostname, ip)
	fsys, err := vfs.New(root, createFS, linuxDirectories())
	if err != nil {
		return nil, err
	}

	return &VirtualHost{
		Hostname:    params.Hostname,
		IPAddress:   ip,
		Default:     params.Default,
		ValidLogins: cloneMap(params.ValidLogins),
		Env:         cloneMap(params.Env),
		FS:          fsys,
		workingPath: "/",
	}, nil
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func linuxDirectories() []string {
	// data.LinuxFSListRaw is newline-separated; split lazily here so the
	// embed package stays a pure data holder.
	var dirs []string
	start := 0
	for i := 0; i < len(data.LinuxFSListRaw); i++ {
		if data.LinuxFSListRaw[i] == '\n' {
			if line := data.LinuxFSListRaw[start:i]; line != "" {
				dirs = append(dirs, line)
			}
			start = i + 1
		}
	}
	if start < len(data.LinuxFSListRaw) {
		if line := data.LinuxFSListRaw[start:]; line != "" {
			dirs = append(dirs, line)
		}
	}
	return dirs
}

// Authenticate reports whether (user, pass) is a valid credential pair
// for this host.
func (h *VirtualHost) Authenticate(user, pass string) bool {
	want, ok := h.ValidLogins[user]
	return ok && want == pass
}

// Login marks user as logged in. Repeated calls overwrite.
func (h *VirtualHost) Login(user string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentUser = user
	h.loggedIn = true
}

// Logout clears the current user.
func (h *VirtualHost) Logout() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentUser = ""
	h.loggedIn = false
}

// CurrentUser returns the logged-in username, or "" if none.
func (h *VirtualHost) CurrentUser() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentUser
}

// LoggedIn reports whether a user is currently logged in.
func (h *VirtualHost) LoggedIn() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loggedIn
}

// WorkingPath returns the host-scoped current working directory.
func (h *VirtualHost) WorkingPath() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.workingPath
}

// SetWorkingPath updates the host-scoped current working directory.
func (h *VirtualHost) SetWorkingPath(p string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.workingPath = p
}

// Welcome returns /etc/motd's contents if present, else a canned banner.
func (h *VirtualHost) Welcome() string {
	if h.FS.IsFile("/etc/motd") {
		if b, err := h.FS.ReadFile("/etc/motd"); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("Welcome to %s server.", h.Hostname)
}

// Prompt renders this host's shell prompt for its current user.
func (h *VirtualHost) Prompt() string {
	user := h.CurrentUser()
	if user == "" {
		user = "?"
	}
	return fmt.Sprintf("%s@%s:%s$ ", user, h.Hostname, h.WorkingPath())
}
