package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/idea-validator/internal/config"
)

func TestNewMemoryFromFile(t *testing.T) {
	cfg := &config.Config{StoreType: config.StoreMemory, SnapshotPath: "testdata/clusters.json"}

	s, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	clusters, err := s.Clusters(context.Background())
	require.NoError(t, err)
	assert.Len(t, clusters, 3)
}

func TestNewMemoryMissingSnapshot(t *testing.T) {
	cfg := &config.Config{StoreType: config.StoreMemory, SnapshotPath: "testdata/missing.json"}

	s, err := New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	clusters, err := s.Clusters(context.Background())
	require.NoError(t, err)
	assert.Empty(t, clusters)
}

func TestNewMemoryCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clusters.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	cfg := &config.Config{StoreType: config.StoreMemory, SnapshotPath: path}
	_, err := New(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewUnsupportedType(t *testing.T) {
	_, err := New(context.Background(), &config.Config{StoreType: "sqlite"}, nil)
	assert.Error(t, err)
}
