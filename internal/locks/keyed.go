// Package locks provides a registry of per-key mutexes. The engine keys them
// by portfolio ID so that every component touching a portfolio — the ledger's
// writes and the accounting/report reads — serializes through the same
// critical section and no reader can observe a half-applied settlement.
package locks

import "sync"

// Keyed hands out one mutex per int64 key. Entries are never released: keys
// are portfolio IDs, portfolios are never deleted, and a mutex per portfolio
// keeps the map bounded by the portfolio count.
type Keyed struct {
	mu sync.Mutex
	m  map[int64]*sync.Mutex
}

// NewKeyed creates an empty registry.
func NewKeyed() *Keyed {
	return &Keyed{m: make(map[int64]*sync.Mutex)}
}

// Get returns the mutex for key, creating it on first use. The same key
// always yields the same mutex.
func (k *Keyed) Get(key int64) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.m[key]
	if !ok {
		m = &sync.Mutex{}
		k.m[key] = m
	}
	return m
}
