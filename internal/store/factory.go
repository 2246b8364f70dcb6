package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pep299/idea-validator/internal/config"
	"github.com/pep299/idea-validator/internal/logging"
)

// New builds the store selected by cfg and loads its first snapshot. A
// missing snapshot is logged and leaves the store empty.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	logger = logging.OrNop(logger)

	switch cfg.StoreType {
	case config.StorePostgres:
		return NewPostgresStore(ctx, cfg.DatabaseURL, logger)
	case config.StoreMemory:
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.StoreType)
	}

	var source Source
	switch {
	case cfg.SnapshotBucket != "":
		gcs, err := NewGCSSource(ctx, cfg.SnapshotBucket, cfg.SnapshotObject, cfg.StorageEndpoint)
		if err != nil {
			return nil, err
		}
		source = gcs
	case cfg.SnapshotPath != "":
		source = NewFileSource(cfg.SnapshotPath)
	}

	s := NewMemoryStore(source, logger)
	if err := s.Refresh(ctx); err != nil {
		if !errors.Is(err, ErrSnapshotMissing) {
			_ = s.Close()
			return nil, err
		}
		logger.Warn("Snapshot not found, serving an empty store", zap.Error(err))
	}
	return s, nil
}
