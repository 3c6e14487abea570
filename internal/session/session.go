// Package session implements the per-connection session record and the
// idle-watcher/queue/consumer pipeline that funnels finished sessions
// into durable storage: a Session is born at accept, enqueued exactly
// once (on idle timeout or clean shell termination), and drained by a
// single Consumer.
package session

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// IdleTimeout is how long a session may go without activity before the
// watcher enqueues it.
const IdleTimeout = 60 * time.Second

// WatchInterval is the idle-check polling granularity.
const WatchInterval = 5 * time.Second

// Session is a single accepted connection's lifecycle record.
type Session struct {
	ID         uuid.UUID
	SourceIP   string
	SourcePort int
	StartTime  time.Time

	mu           sync.Mutex
	lastActivity time.Time

	enqueued atomic.Bool
	queue    *Queue
}

// New creates a Session for a freshly accepted connection identified by
// addr, bound to queue for eventual enqueue.
func New(addr net.Addr, queue *Queue) *Session {
	ip, port := splitAddr(addr)
	now := time.Now()
	return &Session{
		ID:           uuid.New(),
		SourceIP:     ip,
		SourcePort:   port,
		StartTime:    now,
		lastActivity: now,
		queue:        queue,
	}
}

func splitAddr(addr net.Addr) (string, int) {
	if addr == nil {
		return "", 0
	}
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// Touch refreshes last_activity to now. The shell calls it for every
// line of command output and every prompt it writes; the echo of typed
// keystrokes and the ssh password prompt are written without calling it.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// LastActivity returns the most recent activity timestamp.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Watch polls every WatchInterval and enqueues the session exactly once
// when silence exceeds IdleTimeout. It returns without enqueuing if ctx
// is cancelled first — the caller (the shell loop ending on its own) is
// then responsible for calling Finish.
func (s *Session) Watch(ctx context.Context) {
	ticker := time.NewTicker(WatchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if time.Since(s.LastActivity()) > IdleTimeout {
				s.Finish()
				return
			}
		}
	}
}

// Finish enqueues the session exactly once. Safe to call from both the
// idle watcher and the shell's own termination path — whichever gets
// there first wins.
func (s *Session) Finish() {
	if s.enqueued.CompareAndSwap(false, true) {
		s.queue.enqueue(s)
	}
}

// Queue is the single-consumer FIFO completed sessions drain into.
type Queue struct {
	ch chan *Session
}

// NewQueue creates a Queue with the given buffer size.
func NewQueue(buffer int) *Queue {
	return &Queue{ch: make(chan *Session, buffer)}
}

func (q *Queue) enqueue(s *Session) {
	q.ch <- s
}

// Consumer is the single-reader task that drains Queue into a durable
// store via persist. The contract is at-least-once persistence; persist
// itself decides how to log/record failures without killing the loop.
type Consumer struct {
	queue   *Queue
	persist func(context.Context, *Session)
	logger  *slog.Logger
	done    chan struct{}
}

// NewConsumer builds a Consumer bound to queue.
func NewConsumer(queue *Queue, persist func(context.Context, *Session), logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{queue: queue, persist: persist, logger: logger, done: make(chan struct{})}
}

// Start runs the consumer loop in its own goroutine until ctx is
// cancelled or the queue is closed.
func (c *Consumer) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("consumer stopping, no further sessions will be processed")
				return
			case s, ok := <-c.queue.ch:
				if !ok {
					return
				}
				c.logger.Debug("persisting session", "session", s.ID)
				c.persist(ctx, s)
			}
		}
	}()
}

// Stop blocks until the consumer goroutine started by Start has
// returned (the caller is expected to have cancelled the context it
// passed to Start).
func (c *Consumer) Stop() {
	<-c.done
}
