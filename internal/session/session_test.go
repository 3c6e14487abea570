package session

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAddr struct{ s string }

func (a testAddr) Network() string { return "tcp" }
func (a testAddr) String() string  { return a.s }

func TestNewSplitsSourceIPAndPort(t *testing.T) {
	q := NewQueue(1)
	s := New(testAddr{"203.0.113.5:54321"}, q)

	assert.Equal(t, "203.0.113.5", s.SourceIP)
	assert.Equal(t, 54321, s.SourcePort)
	assert.NotEqual(t, s.ID.String(), "")
}

func TestNewHandlesNilAddr(t *testing.T) {
	q := NewQueue(1)
	s := New(nil, q)
	assert.Equal(t, "", s.SourceIP)
	assert.Equal(t, 0, s.SourcePort)
}

func TestTouchUpdatesLastActivity(t *testing.T) {
	q := NewQueue(1)
	s := New(testAddr{"10.0.0.1:1"}, q)
	before := s.LastActivity()
	time.Sleep(2 * time.Millisecond)
	s.Touch()
	assert.True(t, s.LastActivity().After(before))
}

func TestFinishEnqueuesExactlyOnce(t *testing.T) {
	q := NewQueue(4)
	s := New(testAddr{"10.0.0.1:1"}, q)

	s.Finish()
	s.Finish()
	s.Finish()

	select {
	case got := <-q.ch:
		assert.Equal(t, s.ID, got.ID)
	default:
		t.Fatal("expected session in queue")
	}

	select {
	case <-q.ch:
		t.Fatal("Finish enqueued more than once")
	default:
	}
}

func TestFinishIsConcurrencySafe(t *testing.T) {
	q := NewQueue(16)
	s := New(testAddr{"10.0.0.1:1"}, q)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Finish()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, len(q.ch))
}

func TestWatchReturnsWithoutEnqueueingOnContextCancel(t *testing.T) {
	q := NewQueue(1)
	s := New(testAddr{"10.0.0.1:1"}, q)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		s.Watch(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after context cancellation")
	}

	select {
	case <-q.ch:
		t.Fatal("Watch must not enqueue when ctx is cancelled")
	default:
	}
}

func TestConsumerPersistsEnqueuedSessions(t *testing.T) {
	q := NewQueue(1)
	s := New(testAddr{"10.0.0.1:1"}, q)

	persisted := make(chan *Session, 1)
	consumer := NewConsumer(q, func(ctx context.Context, s *Session) {
		persisted <- s
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer.Start(ctx)

	s.Finish()

	select {
	case got := <-persisted:
		assert.Equal(t, s.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("consumer never persisted the session")
	}

	cancel()
	consumer.Stop()
}

var _ net.Addr = testAddr{}

func TestFinishWithoutWatchLeavesSessionQueued(t *testing.T) {
	q := NewQueue(1)
	s := New(testAddr{"10.0.0.1:1"}, q)
	require.NotNil(t, s)
	s.Finish()
	assert.Equal(t, 1, len(q.ch))
}
