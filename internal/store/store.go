// Package store holds the precomputed clusters served over the HTTP API.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/pep299/idea-validator/internal/model"
)

// ErrNotFound is returned when no cluster has the requested id.
var ErrNotFound = errors.New("store: cluster not found")

// Store is a read-only view over stored clusters.
type Store interface {
	// Clusters returns all clusters, highest total validation score first.
	Clusters(ctx context.Context) (model.Clusters, error)
	// ClusterByID returns one cluster or ErrNotFound.
	ClusterByID(ctx context.Context, id int64) (*model.Cluster, error)
	// Refresh reloads the backing data where that applies.
	Refresh(ctx context.Context) error
	Close() error
}

// sortByScore orders clusters by total validation score, descending, with
// ties broken by ascending id.
func sortByScore(clusters model.Clusters) {
	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].TotalValidationScore != clusters[j].TotalValidationScore {
			return clusters[i].TotalValidationScore > clusters[j].TotalValidationScore
		}
		return clusters[i].ID < clusters[j].ID
	})
}
