package identity

import (
	"context"
	"sync"
)

// subscribers fans snapshots out to listeners. Each listener has a one-slot
// buffer holding the latest snapshot, so a slow reader skips intermediate
// states but never blocks a transition.
type subscribers struct {
	mu     sync.Mutex
	next   int
	chans  map[int]chan Snapshot
	closed bool
}

func (s *subscribers) add() (int, chan Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, nil, false
	}
	if s.chans == nil {
		s.chans = make(map[int]chan Snapshot)
	}
	id := s.next
	s.next++
	ch := make(chan Snapshot, 1)
	s.chans[id] = ch
	return id, ch, true
}

func (s *subscribers) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.chans[id]; ok {
		delete(s.chans, id)
		close(ch)
	}
}

func (s *subscribers) publish(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.chans {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *subscribers) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for id, ch := range s.chans {
		delete(s.chans, id)
		close(ch)
	}
}

func (s *subscribers) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chans)
}

// Subscribe returns a channel that receives the current snapshot at once and
// then every later transition. The channel is closed when ctx ends, when the
// returned cancel is called, or when the Context is closed.
func (c *Context) Subscribe(ctx context.Context) (<-chan Snapshot, context.CancelFunc) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ch, ok := c.subs.add()
	if !ok {
		closed := make(chan Snapshot)
		close(closed)
		return closed, func() {}
	}
	ch <- c.snapshotLocked()

	var once sync.Once
	unsubscribe := func() { once.Do(func() { c.subs.remove(id) }) }
	stop := context.AfterFunc(ctx, unsubscribe)

	return ch, func() {
		stop()
		unsubscribe()
	}
}

// Subscribers returns the number of live listeners.
func (c *Context) Subscribers() int { return c.subs.len() }
