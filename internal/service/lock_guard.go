package service

import (
	"bytes"
	"context"
	"sync"

	"wallet-ledger-service/pkg/apperror"

	"github.com/google/uuid"
)

// LockGuard serializes wallet operations per wallet identity within the
// process, in front of the database row locks. Acquisition honors the
// caller's context deadline; on timeout the operation fails with Busy and
// nothing has been mutated.
//
// Multi-wallet acquisition always locks ids in ascending order so two
// opposing transfers can never deadlock each other.
//
// Entries are refcounted and evicted once no holder or waiter remains, so
// the map stays proportional to in-flight operations rather than to every
// wallet id ever touched.
type LockGuard struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	ch   chan struct{}
	refs int
}

// NewLockGuard creates an empty LockGuard.
func NewLockGuard() *LockGuard {
	return &LockGuard{locks: make(map[uuid.UUID]*lockEntry)}
}

// Acquire takes the lock for every id, in ascending id order, waiting up to
// the context deadline. On success it returns a release function; on
// failure every partially acquired lock is released and a Busy error is
// returned.
func (g *LockGuard) Acquire(ctx context.Context, ids ...uuid.UUID) (func(), error) {
	ordered := orderedUnique(ids)

	entries := make([]*lockEntry, len(ordered))
	for i, id := range ordered {
		entries[i] = g.retain(id)
	}

	locked := 0
	unwind := func() {
		for i := locked - 1; i >= 0; i-- {
			<-entries[i].ch
		}
		for i := len(ordered) - 1; i >= 0; i-- {
			g.releaseEntry(ordered[i], entries[i])
		}
	}

	for _, e := range entries {
		select {
		case e.ch <- struct{}{}:
			locked++
		case <-ctx.Done():
			unwind()
			return nil, apperror.ErrBusy(ctx.Err())
		}
	}
	return unwind, nil
}

// retain returns the entry for id, creating it on first use, and counts the
// caller as a holder-or-waiter.
func (g *LockGuard) retain(id uuid.UUID) *lockEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	e, ok := g.locks[id]
	if !ok {
		e = &lockEntry{ch: make(chan struct{}, 1)}
		g.locks[id] = e
	}
	e.refs++
	return e
}

// releaseEntry drops one reference and evicts the entry when nobody holds
// or waits on it anymore.
func (g *LockGuard) releaseEntry(id uuid.UUID, e *lockEntry) {
	g.mu.Lock()
	defer g.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(g.locks, id)
	}
}

// orderedUnique returns ids deduplicated and sorted ascending by byte value.
func orderedUnique(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		dup := false
		for _, seen := range out {
			if seen == id {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, id)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && bytes.Compare(out[j][:], out[j-1][:]) < 0; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
