package ratelimit

import (
	"context"
	"sync"
	"time"
)

// window is the sliding log for one identity.
type window struct {
	mu   sync.Mutex
	hits []time.Time
	// dead is set once the sweeper has removed the window from the map.
	dead bool
}

// MemoryStore is an in-process sliding-log store.
//
// The map lock is held only for lookup and insert; the per-identity window
// lock serializes updates for one caller, so distinct identities do not wait
// on each other while their windows are evaluated.
type MemoryStore struct {
	mu      sync.RWMutex
	windows map[string]*window

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMemoryStore returns an empty store without background sweeping.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		windows: make(map[string]*window),
		stop:    make(chan struct{}),
	}
}

// StartSweeper removes idle identities every interval until Close is called.
// maxWindow is the longest policy window in use; entries with no hits inside
// it are evicted.
func (m *MemoryStore) StartSweeper(interval, maxWindow time.Duration, clock func() time.Time) {
	if interval <= 0 || maxWindow <= 0 {
		return
	}
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.Sweep(clock(), maxWindow)
			}
		}
	}()
}

// Take implements Store.
func (m *MemoryStore) Take(ctx context.Context, identity string, now time.Time, policy Policy) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}

	for {
		w := m.lookup(identity)

		w.mu.Lock()
		if w.dead {
			// Evicted between lookup and lock; retry against a fresh window.
			w.mu.Unlock()
			continue
		}
		dec := w.take(now, policy)
		w.mu.Unlock()
		return dec, nil
	}
}

func (m *MemoryStore) lookup(identity string) *window {
	m.mu.RLock()
	w, ok := m.windows[identity]
	m.mu.RUnlock()
	if ok {
		return w
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok = m.windows[identity]; ok {
		return w
	}
	w = &window{}
	m.windows[identity] = w
	return w
}

// take must be called with w.mu held.
func (w *window) take(now time.Time, policy Policy) Decision {
	w.prune(now.Add(-policy.Window))

	if len(w.hits) >= policy.Requests {
		retry := w.hits[0].Add(policy.Window).Sub(now)
		if retry < 0 {
			retry = 0
		}
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}
	}

	w.insert(now)
	return Decision{Allowed: true, Remaining: policy.Requests - len(w.hits)}
}

// insert keeps hits sorted; callers may read the clock before winning the lock.
func (w *window) insert(at time.Time) {
	i := len(w.hits)
	w.hits = append(w.hits, at)
	for i > 0 && w.hits[i-1].After(at) {
		w.hits[i] = w.hits[i-1]
		i--
	}
	w.hits[i] = at
}

// prune drops hits at or before cutoff.
func (w *window) prune(cutoff time.Time) {
	idx := 0
	for idx < len(w.hits) && !w.hits[idx].After(cutoff) {
		idx++
	}
	if idx == 0 {
		return
	}
	w.hits = append(w.hits[:0], w.hits[idx:]...)
}

// Sweep evicts identities whose hits all fall outside maxWindow.
func (m *MemoryStore) Sweep(now time.Time, maxWindow time.Duration) int {
	cutoff := now.Add(-maxWindow)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for identity, w := range m.windows {
		w.mu.Lock()
		w.prune(cutoff)
		if len(w.hits) == 0 {
			w.dead = true
			delete(m.windows, identity)
			removed++
		}
		w.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked identities.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.windows)
}

// Ping implements Store.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close stops the sweeper.
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
	return nil
}
