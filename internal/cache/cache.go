package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/pep299/idea-validator/internal/model"
)

// Cache interface defines cache operations
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// CacheEntry holds one served response. List responses carry every cluster,
// detail responses carry exactly one.
type CacheEntry struct {
	Key         string         `json:"key"`
	Clusters    model.Clusters `json:"clusters"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   time.Time      `json:"expires_at"`
	AccessedAt  time.Time      `json:"accessed_at"`
	AccessCount int            `json:"access_count"`
}

// Stats represents cache statistics
type Stats struct {
	Type           string        `json:"type"`
	TotalEntries   int           `json:"total_entries"`
	HitCount       int64         `json:"hit_count"`
	MissCount      int64         `json:"miss_count"`
	HitRate        float64       `json:"hit_rate"`
	MemoryUsage    int64         `json:"memory_usage_bytes"`
	OldestEntry    time.Time     `json:"oldest_entry"`
	AverageAge     time.Duration `json:"average_age"`
	ExpiredEntries int           `json:"expired_entries"`
}

// Common cache errors
var (
	ErrCacheMiss = errors.New("cache miss")
	ErrClosed    = errors.New("cache closed")
)

const cleanupInterval = 10 * time.Minute

// MemoryCache implements in-memory cache
type MemoryCache struct {
	entries   map[string]*CacheEntry
	mutex     sync.RWMutex
	duration  time.Duration
	hitCount  int64
	missCount int64
	closed    bool

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache. Expired entries are swept
// every cleanupInterval until Close is called.
func NewMemoryCache(duration time.Duration) *MemoryCache {
	return newMemoryCache(duration, cleanupInterval)
}

func newMemoryCache(duration, interval time.Duration) *MemoryCache {
	cache := &MemoryCache{
		entries:  make(map[string]*CacheEntry),
		duration: duration,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go cache.cleanup(interval)

	return cache
}

// Get retrieves an entry from cache
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return nil, ErrClosed
	}

	entry, exists := c.entries[key]
	if !exists {
		c.missCount++
		return nil, ErrCacheMiss
	}

	if time.Now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		c.missCount++
		return nil, ErrCacheMiss
	}

	entry.AccessedAt = time.Now()
	entry.AccessCount++
	c.hitCount++

	return entry, nil
}

// Set stores an entry in cache
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return ErrClosed
	}

	now := time.Now()
	entry.Key = key
	entry.CreatedAt = now
	entry.ExpiresAt = now.Add(c.duration)
	entry.AccessedAt = now
	entry.AccessCount = 0

	c.entries[key] = entry
	return nil
}

// Delete removes an entry from cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.entries, key)
	return nil
}

// Exists checks if an unexpired entry exists in cache
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return false, nil
	}
	return !time.Now().After(entry.ExpiresAt), nil
}

// Clear removes all entries from cache
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]*CacheEntry)
	c.hitCount = 0
	c.missCount = 0
	return nil
}

// GetStats returns cache statistics
func (c *MemoryCache) GetStats(ctx context.Context) (*Stats, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	stats := &Stats{
		Type:         TypeMemory,
		TotalEntries: len(c.entries),
		HitCount:     c.hitCount,
		MissCount:    c.missCount,
	}

	if c.hitCount+c.missCount > 0 {
		stats.HitRate = float64(c.hitCount) / float64(c.hitCount+c.missCount)
	}

	var totalAge time.Duration
	now := time.Now()

	for _, entry := range c.entries {
		// Rough estimate
		data, _ := json.Marshal(entry)
		stats.MemoryUsage += int64(len(data))

		if stats.OldestEntry.IsZero() || entry.CreatedAt.Before(stats.OldestEntry) {
			stats.OldestEntry = entry.CreatedAt
		}
		totalAge += now.Sub(entry.CreatedAt)
		if now.After(entry.ExpiresAt) {
			stats.ExpiredEntries++
		}
	}

	if len(c.entries) > 0 {
		stats.AverageAge = totalAge / time.Duration(len(c.entries))
	}

	return stats, nil
}

// Close stops the cleanup goroutine and waits for it to exit. Get and Set
// return ErrClosed afterwards.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		c.mutex.Lock()
		c.closed = true
		c.entries = make(map[string]*CacheEntry)
		c.mutex.Unlock()
		close(c.stop)
	})
	<-c.done
	return nil
}

// cleanup removes expired entries periodically
func (c *MemoryCache) cleanup(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-c.stop:
			return
		}
	}
}

// cleanupExpired removes expired entries
func (c *MemoryCache) cleanupExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
		}
	}
}

// noCache never stores anything; every lookup misses.
type noCache struct {
	mutex     sync.Mutex
	missCount int64
}

func (n *noCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	n.mutex.Lock()
	n.missCount++
	n.mutex.Unlock()
	return nil, ErrCacheMiss
}

func (n *noCache) Set(ctx context.Context, key string, entry *CacheEntry) error { return nil }

func (n *noCache) Delete(ctx context.Context, key string) error { return nil }

func (n *noCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func (n *noCache) Clear(ctx context.Context) error {
	n.mutex.Lock()
	n.missCount = 0
	n.mutex.Unlock()
	return nil
}

func (n *noCache) GetStats(ctx context.Context) (*Stats, error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()
	return &Stats{Type: TypeNone, MissCount: n.missCount}, nil
}

func (n *noCache) Close() error { return nil }

// Supported cache types.
const (
	TypeMemory = "memory"
	TypeNone   = "none"
)

// Manager handles cache operations with convenience methods.
//
// Every Clear starts a new generation. Callers read Generation before
// loading from the store and pass it to SetClusters or SetCluster, so a
// response loaded before a Clear is never cached after it.
type Manager struct {
	cache Cache

	mu         sync.Mutex
	generation uint64
}

// NewManager creates a new cache manager
func NewManager(cacheType string, duration time.Duration) (*Manager, error) {
	var cache Cache

	switch cacheType {
	case TypeMemory:
		cache = NewMemoryCache(duration)
	case TypeNone:
		cache = &noCache{}
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}

	return &Manager{cache: cache}, nil
}

// GetClusters retrieves the cached cluster list
func (m *Manager) GetClusters(ctx context.Context) (model.Clusters, error) {
	entry, err := m.cache.Get(ctx, ListKey)
	if err != nil {
		return nil, err
	}
	return entry.Clusters, nil
}

// Generation returns the current cache generation.
func (m *Manager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// SetClusters caches the cluster list if no Clear happened since gen.
func (m *Manager) SetClusters(ctx context.Context, gen uint64, clusters model.Clusters) error {
	return m.set(ctx, gen, ListKey, &CacheEntry{Clusters: clusters})
}

// GetCluster retrieves a cached cluster by id
func (m *Manager) GetCluster(ctx context.Context, id int64) (*model.Cluster, error) {
	entry, err := m.cache.Get(ctx, ClusterKey(id))
	if err != nil {
		return nil, err
	}
	if len(entry.Clusters) != 1 {
		return nil, ErrCacheMiss
	}
	cluster := entry.Clusters[0]
	return &cluster, nil
}

// SetCluster caches a single cluster if no Clear happened since gen.
func (m *Manager) SetCluster(ctx context.Context, gen uint64, cluster *model.Cluster) error {
	return m.set(ctx, gen, ClusterKey(cluster.ID), &CacheEntry{Clusters: model.Clusters{*cluster}})
}

func (m *Manager) set(ctx context.Context, gen uint64, key string, entry *CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		return nil
	}
	return m.cache.Set(ctx, key, entry)
}

// GetStats returns cache statistics
func (m *Manager) GetStats(ctx context.Context) (*Stats, error) {
	return m.cache.GetStats(ctx)
}

// Clear clears all cached entries and starts a new generation.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	return m.cache.Clear(ctx)
}

// Close stops background work in the underlying cache.
func (m *Manager) Close() error {
	return m.cache.Close()
}

// ListKey is the cache key of the cluster list response.
const ListKey = "clusters:all"

// ClusterKey generates the cache key of a cluster detail response.
func ClusterKey(id int64) string {
	return "cluster:" + strconv.FormatInt(id, 10)
}
