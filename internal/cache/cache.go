package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL applies when a store is constructed without an explicit default.
const DefaultTTL = 5 * time.Minute

// evictionDivisor: the capacity sweep drops maxEntries/evictionDivisor of the
// least-read entries.
const evictionDivisor = 10

type entry[V any] struct {
	value     V
	expiresAt time.Time
	hits      uint64
}

// Store is a capacity-bounded TTL cache with popularity-aware eviction.
// Expired entries are removed lazily on read and swept on write pressure;
// if the sweep does not free capacity, the least-read tenth of the configured
// maximum is dropped. Popularity (exact hit counts) approximates "this filter
// combination is searched often" better than recency for a listings workload
// where a few common filter shapes dominate traffic.
//
// A Store is constructed explicitly and injected where needed; it is safe for
// concurrent use.
type Store[V any] struct {
	mu         sync.Mutex
	entries    map[string]*entry[V]
	maxEntries int
	defaultTTL time.Duration
	now        func() time.Time

	hits   uint64
	misses uint64
}

// Stats is a diagnostic snapshot of a store.
type Stats struct {
	Size         int     `json:"size"`
	ValidEntries int     `json:"valid_entries"`
	TotalHits    uint64  `json:"total_hits"`
	HitRate      float64 `json:"hit_rate"`
}

func New[V any](maxEntries int, defaultTTL time.Duration) *Store[V] {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Store[V]{
		entries:    make(map[string]*entry[V]),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Set stores value under key with the default TTL.
func (s *Store[V]) Set(key string, value V) {
	s.SetTTL(key, value, s.defaultTTL)
}

// SetTTL stores value under key, expiring after ttl. When the store is at
// capacity the eviction sweep runs first.
func (s *Store[V]) SetTTL(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) >= s.maxEntries {
		s.cleanupLocked()
	}
	s.entries[key] = &entry[V]{value: value, expiresAt: s.now().Add(ttl)}
}

// Get returns the cached value for key. Expired entries are deleted on touch
// and report a miss. A hit bumps the entry's popularity counter.
func (s *Store[V]) Get(key string) (V, bool) {
	var zero V
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		s.misses++
		cacheMissesTotal.WithLabelValues(keyNamespace(key)).Inc()
		return zero, false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		s.misses++
		cacheMissesTotal.WithLabelValues(keyNamespace(key)).Inc()
		return zero, false
	}

	e.hits++
	s.hits++
	cacheHitsTotal.WithLabelValues(keyNamespace(key)).Inc()
	return e.value, true
}

// Has reports whether key holds an unexpired entry, without bumping its
// popularity.
func (s *Store[V]) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, key)
		return false
	}
	return true
}

func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry[V])
}

// InvalidatePrefix removes every key under the given namespace prefix. A
// single write can stale an unbounded number of cached filter combinations,
// so mutations invalidate the whole namespace.
func (s *Store[V]) InvalidatePrefix(prefix string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.entries {
		if strings.HasPrefix(k, prefix) {
			delete(s.entries, k)
		}
	}
}

// Cleanup runs the eviction sweep: expired entries first, then, if the store
// is still at capacity, the lowest-popularity tenth of the configured maximum.
func (s *Store[V]) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanupLocked()
}

// cleanupLocked holds the lock for the whole sweep so no interleaved reader
// observes a half-evicted map.
func (s *Store[V]) cleanupLocked() {
	now := s.now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
			cacheEvictionsTotal.WithLabelValues("expired").Inc()
		}
	}

	if len(s.entries) < s.maxEntries {
		return
	}

	type candidate struct {
		key  string
		hits uint64
	}
	candidates := make([]candidate, 0, len(s.entries))
	for k, e := range s.entries {
		candidates = append(candidates, candidate{k, e.hits})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].hits != candidates[j].hits {
			return candidates[i].hits < candidates[j].hits
		}
		return candidates[i].key < candidates[j].key
	})

	evict := s.maxEntries / evictionDivisor
	if evict < 1 {
		evict = 1
	}
	for i := 0; i < evict && i < len(candidates); i++ {
		delete(s.entries, candidates[i].key)
		cacheEvictionsTotal.WithLabelValues("capacity").Inc()
	}
}

// Stats returns a diagnostic snapshot.
func (s *Store[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	valid := 0
	var totalHits uint64
	for _, e := range s.entries {
		if !now.After(e.expiresAt) {
			valid++
		}
		totalHits += e.hits
	}

	rate := 0.0
	if lookups := s.hits + s.misses; lookups > 0 {
		rate = float64(s.hits) / float64(lookups)
	}

	return Stats{
		Size:         len(s.entries),
		ValidEntries: valid,
		TotalHits:    totalHits,
		HitRate:      rate,
	}
}
