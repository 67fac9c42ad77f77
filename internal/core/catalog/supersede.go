// internal/core/catalog/supersede.go
package catalog

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned for a computation replaced by a newer one.
var ErrSuperseded = errors.New("superseded by a newer request")

// Superseder enforces last-write-wins per key. Starting a computation
// cancels the one already running under the same key; the older result
// must then be discarded rather than delivered.
type Superseder struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]*Ticket
}

func NewSuperseder() *Superseder {
	return &Superseder{inflight: make(map[string]*Ticket)}
}

// Ticket identifies one computation started with Begin.
type Ticket struct {
	s      *Superseder
	key    string
	gen    uint64
	cancel context.CancelCauseFunc
}

// Begin registers a new computation for key and cancels its predecessor.
// The returned context is cancelled when the ticket is superseded or done.
func (s *Superseder) Begin(ctx context.Context, key string) (context.Context, *Ticket) {
	ctx, cancel := context.WithCancelCause(ctx)

	s.mu.Lock()
	s.seq++
	t := &Ticket{s: s, key: key, gen: s.seq, cancel: cancel}
	prev := s.inflight[key]
	s.inflight[key] = t
	s.mu.Unlock()

	if prev != nil {
		prev.cancel(ErrSuperseded)
	}
	return ctx, t
}

// Current reports whether t is still the latest computation for its key.
func (t *Ticket) Current() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	cur, ok := t.s.inflight[t.key]
	return ok && cur.gen == t.gen
}

// Done releases the ticket. It reports whether the result is still current
// and may be delivered.
func (t *Ticket) Done() bool {
	t.s.mu.Lock()
	cur, ok := t.s.inflight[t.key]
	current := ok && cur.gen == t.gen
	if current {
		delete(t.s.inflight, t.key)
	}
	t.s.mu.Unlock()
	t.cancel(nil)
	return current
}

// InFlight returns the number of keys with a running computation.
func (s *Superseder) InFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}
