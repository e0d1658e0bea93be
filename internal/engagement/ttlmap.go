package engagement

import "time"

// ttlMap records the last event time per key. Entries older than ttl are
// treated as absent and are dropped by prune.
type ttlMap[K comparable] struct {
	entries map[K]time.Time
	ttl     time.Duration
}

func newTTLMap[K comparable](ttl time.Duration) *ttlMap[K] {
	return &ttlMap[K]{
		entries: make(map[K]time.Time),
		ttl:     ttl,
	}
}

func (m *ttlMap[K]) live(key K, now time.Time) bool {
	at, ok := m.entries[key]
	return ok && !m.expired(at, now)
}

func (m *ttlMap[K]) touch(key K, now time.Time) {
	m.entries[key] = now
}

func (m *ttlMap[K]) remove(key K) {
	delete(m.entries, key)
}

func (m *ttlMap[K]) expired(at, now time.Time) bool {
	return now.Sub(at) >= m.ttl
}

// prune removes expired entries and returns how many were dropped.
func (m *ttlMap[K]) prune(now time.Time) int {
	removed := 0
	for key, at := range m.entries {
		if m.expired(at, now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed
}

func (m *ttlMap[K]) len() int {
	return len(m.entries)
}
