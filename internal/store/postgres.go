package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/pep299/idea-validator/internal/logging"
	"github.com/pep299/idea-validator/internal/model"
)

// DB is the subset of a pgx pool the store needs.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

const clusterColumns = `id, COALESCE(name, ''), COALESCE(description, ''),
	COALESCE(frequency_score, 0), COALESCE(intensity_score, 0),
	COALESCE(engagement_score, 0), COALESCE(recency_score, 0),
	COALESCE(total_validation_score, 0)`

const ideaColumns = `cluster_id, COALESCE(title, ''), COALESCE(description, ''),
	COALESCE(solution_type, ''), COALESCE(monetization_strategy, ''),
	COALESCE(technical_complexity, ''), COALESCE(market_size_estimate, '')`

const (
	listClustersQuery = `SELECT ` + clusterColumns + ` FROM problem_clusters ORDER BY total_validation_score DESC, id ASC`
	clusterByIDQuery  = `SELECT ` + clusterColumns + ` FROM problem_clusters WHERE id = $1`
	listIdeasQuery    = `SELECT ` + ideaColumns + ` FROM generated_ideas ORDER BY cluster_id, id`
	ideasByIDQuery    = `SELECT ` + ideaColumns + ` FROM generated_ideas WHERE cluster_id = $1 ORDER BY id`
)

// PostgresStore reads clusters from the problem_clusters and
// generated_ideas tables.
type PostgresStore struct {
	db     DB
	logger *zap.Logger
}

// NewPostgresStore connects to databaseURL and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: unable to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: unable to reach database: %w", err)
	}
	return NewPostgresStoreWithDB(pool, logger), nil
}

// NewPostgresStoreWithDB wraps an existing connection.
func NewPostgresStoreWithDB(db DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logging.OrNop(logger)}
}

// Clusters returns all clusters with their ideas in insertion order.
func (s *PostgresStore) Clusters(ctx context.Context) (model.Clusters, error) {
	rows, err := s.db.Query(ctx, listClustersQuery)
	if err != nil {
		return nil, fmt.Errorf("store: unable to fetch clusters: %w", err)
	}
	clusters, err := scanClusters(rows)
	if err != nil {
		return nil, err
	}

	ideas, err := s.ideas(ctx, listIdeasQuery)
	if err != nil {
		return nil, err
	}
	for i := range clusters {
		if list, ok := ideas[clusters[i].ID]; ok {
			clusters[i].GeneratedIdeas = list
		}
	}

	s.logger.Debug("Fetched clusters", zap.Int("count", len(clusters)))
	return clusters, nil
}

// ClusterByID returns the cluster with the given id or ErrNotFound.
func (s *PostgresStore) ClusterByID(ctx context.Context, id int64) (*model.Cluster, error) {
	rows, err := s.db.Query(ctx, clusterByIDQuery, id)
	if err != nil {
		return nil, fmt.Errorf("store: unable to fetch cluster: %w", err)
	}
	clusters, err := scanClusters(rows)
	if err != nil {
		return nil, err
	}
	if len(clusters) == 0 {
		return nil, ErrNotFound
	}

	ideas, err := s.ideas(ctx, ideasByIDQuery, id)
	if err != nil {
		return nil, err
	}
	cluster := clusters[0]
	if list, ok := ideas[id]; ok {
		cluster.GeneratedIdeas = list
	}
	return &cluster, nil
}

// Refresh is a no-op: every read goes to the database.
func (s *PostgresStore) Refresh(ctx context.Context) error {
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func scanClusters(rows pgx.Rows) (model.Clusters, error) {
	defer rows.Close()

	clusters := make(model.Clusters, 0)
	for rows.Next() {
		var c model.Cluster
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Description,
			&c.FrequencyScore,
			&c.IntensityScore,
			&c.EngagementScore,
			&c.RecencyScore,
			&c.TotalValidationScore,
		); err != nil {
			return nil, fmt.Errorf("store: unable to fetch cluster row: %w", err)
		}
		c.GeneratedIdeas = []model.Idea{}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: unable to iterate clusters: %w", err)
	}
	return clusters, nil
}

func (s *PostgresStore) ideas(ctx context.Context, query string, args ...any) (map[int64][]model.Idea, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: unable to fetch ideas: %w", err)
	}
	defer rows.Close()

	ideas := make(map[int64][]model.Idea)
	for rows.Next() {
		var clusterID int64
		var idea model.Idea
		if err := rows.Scan(
			&clusterID,
			&idea.Title,
			&idea.Description,
			&idea.SolutionType,
			&idea.MonetizationStrategy,
			&idea.TechnicalComplexity,
			&idea.MarketSizeEstimate,
		); err != nil {
			return nil, fmt.Errorf("store: unable to fetch idea row: %w", err)
		}
		ideas[clusterID] = append(ideas[clusterID], idea)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: unable to iterate ideas: %w", err)
	}
	return ideas, nil
}
