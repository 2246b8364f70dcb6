package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pep299/idea-validator/internal/logging"
	"github.com/pep299/idea-validator/internal/model"
)

// MemoryStore serves an in-memory snapshot of clusters.
type MemoryStore struct {
	mu       sync.RWMutex
	clusters model.Clusters
	loadedAt time.Time
	source   Source
	logger   *zap.Logger
}

// NewMemoryStore creates a store over source. A nil source gives an empty
// store whose contents only change through Replace.
func NewMemoryStore(source Source, logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		clusters: model.Clusters{},
		source:   source,
		logger:   logging.OrNop(logger),
	}
}

// Clusters returns a copy of the snapshot in score order.
func (s *MemoryStore) Clusters(ctx context.Context) (model.Clusters, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(model.Clusters, len(s.clusters))
	for i, c := range s.clusters {
		out[i] = copyCluster(c)
	}
	return out, nil
}

// ClusterByID returns a copy of the cluster with the given id.
func (s *MemoryStore) ClusterByID(ctx context.Context, id int64) (*model.Cluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clusters.ByID(id)
	if !ok {
		return nil, ErrNotFound
	}
	cluster := copyCluster(*c)
	return &cluster, nil
}

// Refresh reloads the snapshot from the source. On any error the previous
// snapshot stays in place.
func (s *MemoryStore) Refresh(ctx context.Context) error {
	if s.source == nil {
		return nil
	}

	rc, err := s.source.Open(ctx)
	if err != nil {
		return fmt.Errorf("opening snapshot %s: %w", s.source.Name(), err)
	}
	defer rc.Close()

	clusters, err := DecodeSnapshot(rc)
	if err != nil {
		return fmt.Errorf("loading snapshot %s: %w", s.source.Name(), err)
	}

	if err := s.Replace(clusters); err != nil {
		return fmt.Errorf("loading snapshot %s: %w", s.source.Name(), err)
	}
	s.logger.Info("Snapshot loaded",
		zap.String("source", s.source.Name()),
		zap.Int("clusters", len(clusters)))
	return nil
}

// Replace swaps in a new snapshot. A snapshot with duplicate ids is
// rejected and the current one is kept. The caller must not modify
// clusters afterwards.
func (s *MemoryStore) Replace(clusters model.Clusters) error {
	if err := clusters.Validate(); err != nil {
		return err
	}
	if clusters == nil {
		clusters = model.Clusters{}
	}
	clusters.Normalize()
	sortByScore(clusters)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clusters = clusters
	s.loadedAt = time.Now()
	return nil
}

// LoadedAt reports when the current snapshot was installed.
func (s *MemoryStore) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Close releases the source.
func (s *MemoryStore) Close() error {
	if s.source == nil {
		return nil
	}
	return s.source.Close()
}

// DecodeSnapshot reads a JSON array of clusters and rejects duplicate ids.
func DecodeSnapshot(r io.Reader) (model.Clusters, error) {
	var clusters model.Clusters
	dec := json.NewDecoder(r)
	if err := dec.Decode(&clusters); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decoding snapshot: unexpected data after JSON value")
	}
	if clusters == nil {
		clusters = model.Clusters{}
	}
	if err := clusters.Validate(); err != nil {
		return nil, err
	}
	return clusters, nil
}

func copyCluster(c model.Cluster) model.Cluster {
	ideas := make([]model.Idea, len(c.GeneratedIdeas))
	copy(ideas, c.GeneratedIdeas)
	c.GeneratedIdeas = ideas
	return c
}
