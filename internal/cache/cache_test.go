package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/pep299/idea-validator/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testEntry() *CacheEntry {
	return &CacheEntry{
		Clusters: model.Clusters{
			{ID: 1, Name: "Slow checkout", TotalValidationScore: 82.6, GeneratedIdeas: []model.Idea{}},
		},
	}
}

func TestMemoryCache(t *testing.T) {
	cache := NewMemoryCache(1 * time.Hour)
	defer cache.Close()
	ctx := context.Background()

	err := cache.Set(ctx, "test-key", testEntry())
	if err != nil {
		t.Fatalf("Failed to set cache entry: %v", err)
	}

	retrieved, err := cache.Get(ctx, "test-key")
	if err != nil {
		t.Fatalf("Failed to get cache entry: %v", err)
	}
	if len(retrieved.Clusters) != 1 || retrieved.Clusters[0].Name != "Slow checkout" {
		t.Errorf("Unexpected cached clusters: %+v", retrieved.Clusters)
	}
	if retrieved.AccessCount != 1 {
		t.Errorf("Expected access count 1, got %d", retrieved.AccessCount)
	}

	exists, err := cache.Exists(ctx, "test-key")
	if err != nil {
		t.Fatalf("Failed to check existence: %v", err)
	}
	if !exists {
		t.Error("Expected key to exist")
	}

	exists, err = cache.Exists(ctx, "non-existent")
	if err != nil {
		t.Fatalf("Failed to check existence: %v", err)
	}
	if exists {
		t.Error("Expected key to not exist")
	}

	_, err = cache.Get(ctx, "non-existent")
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCacheExpiration(t *testing.T) {
	cache := NewMemoryCache(50 * time.Millisecond)
	defer cache.Close()
	ctx := context.Background()

	if err := cache.Set(ctx, "test-key", testEntry()); err != nil {
		t.Fatalf("Failed to set cache entry: %v", err)
	}

	exists, _ := cache.Exists(ctx, "test-key")
	if !exists {
		t.Error("Expected key to exist immediately after setting")
	}

	time.Sleep(100 * time.Millisecond)

	exists, _ = cache.Exists(ctx, "test-key")
	if exists {
		t.Error("Expected key to not exist after expiration")
	}

	_, err := cache.Get(ctx, "test-key")
	if err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after expiration, got %v", err)
	}
}

func TestMemoryCacheCleanup(t *testing.T) {
	cache := newMemoryCache(10*time.Millisecond, 20*time.Millisecond)
	defer cache.Close()
	ctx := context.Background()

	if err := cache.Set(ctx, "test-key", testEntry()); err != nil {
		t.Fatalf("Failed to set cache entry: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		stats, _ := cache.GetStats(ctx)
		if stats.TotalEntries == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("Expected expired entry to be swept by cleanup")
}

func TestMemoryCacheDelete(t *testing.T) {
	cache := NewMemoryCache(1 * time.Hour)
	defer cache.Close()
	ctx := context.Background()

	if err := cache.Set(ctx, "test-key", testEntry()); err != nil {
		t.Fatalf("Failed to set cache entry: %v", err)
	}
	if err := cache.Delete(ctx, "test-key"); err != nil {
		t.Fatalf("Failed to delete cache entry: %v", err)
	}

	exists, _ := cache.Exists(ctx, "test-key")
	if exists {
		t.Error("Expected key to not exist after deletion")
	}
}

func TestMemoryCacheClear(t *testing.T) {
	cache := NewMemoryCache(1 * time.Hour)
	defer cache.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cache.Set(ctx, fmt.Sprintf("test-key-%d", i), testEntry()); err != nil {
			t.Fatalf("Failed to set cache entry %d: %v", i, err)
		}
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Failed to clear cache: %v", err)
	}

	for i := 0; i < 3; i++ {
		exists, _ := cache.Exists(ctx, fmt.Sprintf("test-key-%d", i))
		if exists {
			t.Errorf("Expected key %d to not exist after clear", i)
		}
	}
}

func TestMemoryCacheStats(t *testing.T) {
	cache := NewMemoryCache(1 * time.Hour)
	defer cache.Close()
	ctx := context.Background()

	_ = cache.Set(ctx, "a", testEntry())
	_ = cache.Set(ctx, "b", testEntry())
	_, _ = cache.Get(ctx, "a")
	_, _ = cache.Get(ctx, "missing")

	stats, err := cache.GetStats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Type != TypeMemory {
		t.Errorf("Expected type %q, got %q", TypeMemory, stats.Type)
	}
	if stats.TotalEntries != 2 {
		t.Errorf("Expected 2 entries, got %d", stats.TotalEntries)
	}
	if stats.HitCount != 1 || stats.MissCount != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d/%d", stats.HitCount, stats.MissCount)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("Expected hit rate 0.5, got %f", stats.HitRate)
	}
	if stats.MemoryUsage <= 0 {
		t.Error("Expected positive memory usage estimate")
	}
	if stats.OldestEntry.IsZero() {
		t.Error("Expected oldest entry to be set")
	}
}

func TestMemoryCacheCloseIsIdempotent(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Second close failed: %v", err)
	}
}

func TestMemoryCacheClosed(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	ctx := context.Background()

	if err := cache.Set(ctx, "test-key", testEntry()); err != nil {
		t.Fatalf("Failed to set cache entry: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := cache.Get(ctx, "test-key"); err != ErrClosed {
		t.Errorf("Expected ErrClosed from Get after close, got %v", err)
	}
	if err := cache.Set(ctx, "other-key", testEntry()); err != ErrClosed {
		t.Errorf("Expected ErrClosed from Set after close, got %v", err)
	}
	if exists, _ := cache.Exists(ctx, "test-key"); exists {
		t.Error("Expected no entries after close")
	}
}

func TestManagerDropsStaleSets(t *testing.T) {
	ctx := context.Background()
	manager, err := NewManager(TypeMemory, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	// A load that started before the clear must not repopulate the cache.
	gen := manager.Generation()
	if err := manager.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if manager.Generation() == gen {
		t.Fatal("Expected Clear to start a new generation")
	}

	stale := model.Clusters{{ID: 1, Name: "stale", GeneratedIdeas: []model.Idea{}}}
	if err := manager.SetClusters(ctx, gen, stale); err != nil {
		t.Fatalf("SetClusters failed: %v", err)
	}
	if err := manager.SetCluster(ctx, gen, &stale[0]); err != nil {
		t.Fatalf("SetCluster failed: %v", err)
	}
	if _, err := manager.GetClusters(ctx); err != ErrCacheMiss {
		t.Errorf("Expected stale list to be dropped, got %v", err)
	}
	if _, err := manager.GetCluster(ctx, 1); err != ErrCacheMiss {
		t.Errorf("Expected stale cluster to be dropped, got %v", err)
	}

	fresh := model.Clusters{{ID: 1, Name: "fresh", GeneratedIdeas: []model.Idea{}}}
	if err := manager.SetClusters(ctx, manager.Generation(), fresh); err != nil {
		t.Fatalf("SetClusters failed: %v", err)
	}
	got, err := manager.GetClusters(ctx)
	if err != nil {
		t.Fatalf("GetClusters failed: %v", err)
	}
	if got[0].Name != "fresh" {
		t.Errorf("Expected fresh clusters, got %+v", got)
	}
}

func TestManager(t *testing.T) {
	ctx := context.Background()
	manager, err := NewManager(TypeMemory, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	if _, err := manager.GetClusters(ctx); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss on empty cache, got %v", err)
	}

	clusters := model.Clusters{
		{ID: 1, Name: "first", GeneratedIdeas: []model.Idea{}},
		{ID: 2, Name: "second", GeneratedIdeas: []model.Idea{}},
	}
	if err := manager.SetClusters(ctx, manager.Generation(), clusters); err != nil {
		t.Fatalf("SetClusters failed: %v", err)
	}
	got, err := manager.GetClusters(ctx)
	if err != nil {
		t.Fatalf("GetClusters failed: %v", err)
	}
	if len(got) != 2 || got[1].Name != "second" {
		t.Errorf("Unexpected clusters: %+v", got)
	}

	if err := manager.SetCluster(ctx, manager.Generation(), &clusters[1]); err != nil {
		t.Fatalf("SetCluster failed: %v", err)
	}
	one, err := manager.GetCluster(ctx, 2)
	if err != nil {
		t.Fatalf("GetCluster failed: %v", err)
	}
	if one.ID != 2 {
		t.Errorf("Expected cluster 2, got %d", one.ID)
	}
	if _, err := manager.GetCluster(ctx, 1); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss for uncached id, got %v", err)
	}

	if err := manager.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := manager.GetClusters(ctx); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss after clear, got %v", err)
	}
}

func TestManagerNone(t *testing.T) {
	ctx := context.Background()
	manager, err := NewManager(TypeNone, time.Hour)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	_ = manager.SetClusters(ctx, manager.Generation(), model.Clusters{{ID: 1}})
	if _, err := manager.GetClusters(ctx); err != ErrCacheMiss {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}

	stats, _ := manager.GetStats(ctx)
	if stats.Type != TypeNone || stats.MissCount != 1 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestNewManagerUnsupported(t *testing.T) {
	if _, err := NewManager("redis", time.Minute); err == nil {
		t.Error("Expected error for unsupported cache type")
	}
}

func TestClusterKey(t *testing.T) {
	if got := ClusterKey(42); got != "cluster:42" {
		t.Errorf("Expected cluster:42, got %s", got)
	}
}
