package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryRateLimitStore is a thread-safe RateLimitStore and
// AtomicRateLimitStore backed by a map of per-key timestamp lists, bounded
// by an LRU eviction policy so an unbounded set of distinct keys (e.g. a
// botnet rotating source IPs) can't grow the process's memory without
// limit.
type InMemoryRateLimitStore struct {
	mu             sync.RWMutex
	requests       map[string]*timestampList
	maxKeys        int
	clock          Clock
	lru            *lruList
	totalEvictions int
}

type timestampList struct {
	timestamps []time.Time
	lastAccess time.Time
}

// lruList is a doubly-linked list of keys ordered most-recently-used first.
type lruList struct {
	head, tail *lruNode
	keys       map[string]*lruNode
}

type lruNode struct {
	key        string
	prev, next *lruNode
}

// InMemoryStoreConfig configures InMemoryRateLimitStore.
type InMemoryStoreConfig struct {
	// MaxKeys bounds the number of distinct keys retained before the least
	// recently used are evicted. Default: 10000.
	MaxKeys int
	Clock   Clock
}

func DefaultInMemoryStoreConfig() InMemoryStoreConfig {
	return InMemoryStoreConfig{MaxKeys: 10000, Clock: &SystemClock{}}
}

func NewInMemoryRateLimitStore(config InMemoryStoreConfig) *InMemoryRateLimitStore {
	if config.MaxKeys <= 0 {
		config.MaxKeys = 10000
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}
	return &InMemoryRateLimitStore{
		requests: make(map[string]*timestampList),
		maxKeys:  config.MaxKeys,
		clock:    config.Clock,
		lru:      &lruList{keys: make(map[string]*lruNode)},
	}
}

func (s *InMemoryRateLimitStore) AddRequest(ctx context.Context, key string, timestamp time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.requests) >= s.maxKeys {
		if _, exists := s.requests[key]; !exists {
			s.evictLRU()
		}
	}

	tsList, exists := s.requests[key]
	if !exists {
		tsList = &timestampList{timestamps: make([]time.Time, 0, 8), lastAccess: timestamp}
		s.requests[key] = tsList
	} else {
		tsList.lastAccess = timestamp
	}
	tsList.timestamps = append(tsList.timestamps, timestamp)
	s.lru.touch(key)
	return nil
}

func (s *InMemoryRateLimitStore) GetRequests(ctx context.Context, key string, cutoff time.Time) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tsList, exists := s.requests[key]
	if !exists {
		return []time.Time{}, nil
	}
	result := make([]time.Time, 0, len(tsList.timestamps))
	for _, ts := range tsList.timestamps {
		if ts.After(cutoff) {
			result = append(result, ts)
		}
	}
	return result, nil
}

func (s *InMemoryRateLimitStore) GetRequestCount(ctx context.Context, key string, cutoff time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tsList, exists := s.requests[key]
	if !exists {
		return 0, nil
	}
	count := 0
	for _, ts := range tsList.timestamps {
		if ts.After(cutoff) {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryRateLimitStore) Cleanup(ctx context.Context, cutoff time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toRemove []string
	for key, tsList := range s.requests {
		valid := tsList.timestamps[:0]
		for _, ts := range tsList.timestamps {
			if ts.After(cutoff) {
				valid = append(valid, ts)
			}
		}
		if len(valid) == 0 {
			toRemove = append(toRemove, key)
		} else {
			tsList.timestamps = valid
		}
	}
	for _, key := range toRemove {
		delete(s.requests, key)
		s.lru.remove(key)
	}
	return nil
}

func (s *InMemoryRateLimitStore) KeyCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.requests), nil
}

// MemoryUsage estimates the store's footprint: map entry overhead plus one
// time.Time per retained timestamp, plus the LRU index.
func (s *InMemoryRateLimitStore) MemoryUsage(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const (
		mapEntryOverhead = 48
		timestampSize    = 24
		listOverhead     = 32
		lruNodeSize      = 48
	)
	var total int64
	for _, tsList := range s.requests {
		total += mapEntryOverhead + listOverhead
		total += int64(len(tsList.timestamps) * timestampSize)
	}
	total += int64(len(s.lru.keys) * lruNodeSize)
	return total, nil
}

// CheckAndAddRequest implements AtomicRateLimitStore: the count and the add
// happen under a single write lock, so two goroutines racing on the same
// key can't both observe "count < limit" and both get added.
func (s *InMemoryRateLimitStore) CheckAndAddRequest(ctx context.Context, key string, timestamp, cutoff time.Time, limit int) (allowed bool, count int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tsList, exists := s.requests[key]
	current := 0
	if exists {
		for _, ts := range tsList.timestamps {
			if ts.After(cutoff) {
				current++
			}
		}
	}
	if current >= limit {
		return false, current, nil
	}

	if len(s.requests) >= s.maxKeys && !exists {
		s.evictLRU()
	}
	if !exists {
		tsList = &timestampList{timestamps: make([]time.Time, 0, 8), lastAccess: timestamp}
		s.requests[key] = tsList
	} else {
		tsList.lastAccess = timestamp
	}
	tsList.timestamps = append(tsList.timestamps, timestamp)
	s.lru.touch(key)
	return true, current + 1, nil
}

// evictLRU drops roughly 10% of tracked keys, oldest-accessed first. Must
// be called with the write lock held.
func (s *InMemoryRateLimitStore) evictLRU() int {
	evictCount := s.maxKeys / 10
	if evictCount < 1 {
		evictCount = 1
	}
	evicted := 0
	for evicted < evictCount && s.lru.tail != nil {
		key := s.lru.tail.key
		delete(s.requests, key)
		s.lru.remove(key)
		evicted++
	}
	s.totalEvictions += evicted
	return evicted
}

// Evictions returns the cumulative number of keys evicted by LRU pressure
// since the store was created.
func (s *InMemoryRateLimitStore) Evictions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalEvictions
}

func (l *lruList) touch(key string) {
	if _, exists := l.keys[key]; exists {
		l.remove(key)
	}
	node := &lruNode{key: key, next: l.head}
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.keys[key] = node
}

func (l *lruList) remove(key string) {
	node, exists := l.keys[key]
	if !exists {
		return
	}
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}
	delete(l.keys, key)
}
