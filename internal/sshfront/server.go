// Package sshfront is the SSH collaborator the core state machine sits
// behind: it accepts TCP connections, performs the SSH-2 handshake and
// password authentication via golang.org/x/crypto/ssh, and for every
// session channel that requests a shell, spawns an internal/shell.Shell
// bound to the channel's raw byte stream.
package sshfront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"golang.org/x/crypto/ssh"

	"github.com/aniketpanse/hornetd/internal/audit"
	"github.com/aniketpanse/hornetd/internal/config"
	"github.com/aniketpanse/hornetd/internal/session"
	"github.com/aniketpanse/hornetd/internal/shell"
	"github.com/aniketpanse/hornetd/internal/vhost"
)

// ErrAuthFailure is the error raised into the SSH collaborator's
// PasswordCallback on any credential mismatch; golang.org/x/crypto/ssh
// answers a non-nil error return with an authentication failure, and the
// client may retry until the server's auth-attempt limit is reached.
var ErrAuthFailure = errors.New("sshfront: authentication failed")

// Server owns the TCP listener and per-connection SSH handshake/channel
// plumbing for one hornetd fleet.
type Server struct {
	cfg    *config.Config
	fleet  vhost.Fleet
	store  *audit.Store
	queue  *session.Queue
	logger *slog.Logger

	sshConfig *ssh.ServerConfig

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// New builds a Server. keyPath is the on-disk location of the SSH host
// key (loaded, or generated if absent).
func New(cfg *config.Config, fleet vhost.Fleet, store *audit.Store, queue *session.Queue, keyPath string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	defaultHost, ok := fleet[cfg.DefaultHostname]
	if !ok {
		return nil, fmt.Errorf("sshfront: default host %q not present in fleet", cfg.DefaultHostname)
	}

	signer, err := LoadOrGenerateHostKey(keyPath)
	if err != nil {
		return nil, err
	}

	sshConfig := &ssh.ServerConfig{
		// No username-based (none) auth, no public key, no
		// keyboard-interactive: only configuring PasswordCallback means
		// golang.org/x/crypto/ssh refuses every other method on its own.
		PasswordCallback: func(c ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if defaultHost.Authenticate(c.User(), string(password)) {
				return &ssh.Permissions{}, nil
			}
			return nil, ErrAuthFailure
		},
	}
	sshConfig.AddHostKey(signer)

	return &Server{
		cfg:       cfg,
		fleet:     fleet,
		store:     store,
		queue:     queue,
		logger:    logger,
		sshConfig: sshConfig,
	}, nil
}

// Serve listens and accepts connections until ctx is cancelled or the
// listener errors. After cancellation it blocks until every in-flight
// connection's goroutine has returned; an accept error that is not due
// to cancellation is returned at once, without waiting.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)))
	if err != nil {
		return fmt.Errorf("listen on %s:%d: %w", s.cfg.Host, s.cfg.Port, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("ssh front listening", "host", s.cfg.Host, "port", s.cfg.Port)

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				return fmt.Errorf("accept: %w", err)
			}
		}
		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

// Close stops the listener, causing Serve's accept loop to exit.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	sshConn, chans, reqs, err := ssh.NewServerConn(conn, s.sshConfig)
	if err != nil {
		s.logger.Debug("ssh handshake failed", "remote", conn.RemoteAddr(), "error", err)
		return
	}
	defer sshConn.Close()
	go ssh.DiscardRequests(reqs)

	sess := session.New(sshConn.RemoteAddr(), s.queue)
	s.logger.Info("connection accepted", "session", sess.ID, "remote", conn.RemoteAddr())

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	go sess.Watch(watchCtx)

	for newChan := range chans {
		if newChan.ChannelType() != "session" {
			newChan.Reject(ssh.UnknownChannelType, "only session channels are supported")
			continue
		}
		channel, requests, err := newChan.Accept()
		if err != nil {
			s.logger.Debug("accept channel", "error", err)
			continue
		}
		s.handleChannel(ctx, channel, requests, sess, sshConn.User())
	}
}

// handleChannel services pty-req/window-change/env requests inline and
// waits for a "shell" request before spawning the interactive Shell;
// "exec" and "subsystem" are refused since hornetd never execs attacker
// commands against a real process.
func (s *Server) handleChannel(ctx context.Context, channel ssh.Channel, requests <-chan *ssh.Request, sess *session.Session, username string) {
	defer channel.Close()

	shellStarted := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for req := range requests {
			switch req.Type {
			case "shell":
				req.Reply(true, nil)
				select {
				case <-shellStarted:
				default:
					close(shellStarted)
				}
			case "pty-req", "window-change", "env":
				req.Reply(true, nil)
			default:
				if req.WantReply {
					req.Reply(false, nil)
				}
			}
		}
	}()

	select {
	case <-shellStarted:
	case <-done:
		return
	case <-ctx.Done():
		return
	}

	sh := shell.New(sess, s.fleet, s.cfg.Network, s.store, channel, s.logger, s.cfg.DefaultHostname)
	if err := sh.Run(ctx, username); err != nil {
		s.logger.Debug("shell exited", "session", sess.ID, "error", err)
	}
}
