// Package aggregation is the read-only client for the aggregation service
// that serves precomputed clusters and their generated ideas.
package aggregation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pep299/idea-validator/internal/logging"
	"github.com/pep299/idea-validator/internal/model"
)

// DefaultBaseURL is the address of a locally running aggregation service.
const DefaultBaseURL = "http://localhost:8000"

// ErrNotFound is returned when the service has no cluster with the requested id.
var ErrNotFound = errors.New("cluster not found")

// StatusError is returned for non-2xx responses other than 404.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

// Client handles aggregation service operations
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// NewClient creates a new aggregation client. A zero timeout falls back to
// 30 seconds so no call can block indefinitely.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "idea-validator-dashboard/1.0",
		logger:    logging.OrNop(logger),
	}
}

// BaseURL returns the service address the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListClusters returns every cluster in service order. Any failure is logged
// and reported as an empty list.
func (c *Client) ListClusters(ctx context.Context) model.Clusters {
	clusters, err := c.FetchClusters(ctx)
	if err != nil {
		c.logger.Error("Error fetching clusters", zap.String("base_url", c.baseURL), zap.Error(err))
		return model.Clusters{}
	}
	return clusters
}

// GetCluster returns the cluster with the given id. Any failure, including
// not-found, is logged and reported as absent.
func (c *Client) GetCluster(ctx context.Context, id int64) (*model.Cluster, bool) {
	cluster, err := c.FetchCluster(ctx, id)
	if err != nil {
		c.logger.Error("Error fetching cluster", zap.Int64("cluster_id", id), zap.Error(err))
		return nil, false
	}
	return cluster, true
}

// FetchClusters requests the full cluster list and returns transport, status
// and decoding failures as errors.
func (c *Client) FetchClusters(ctx context.Context) (model.Clusters, error) {
	var clusters model.Clusters
	if err := c.getJSON(ctx, "/clusters", &clusters); err != nil {
		return nil, err
	}
	if clusters == nil {
		// A literal null body is not a cluster list.
		return nil, fmt.Errorf("decoding response: expected JSON array")
	}
	clusters.Normalize()
	return clusters, nil
}

// FetchCluster requests a single cluster. A 404 response yields ErrNotFound.
func (c *Client) FetchCluster(ctx context.Context, id int64) (*model.Cluster, error) {
	var cluster *model.Cluster
	if err := c.getJSON(ctx, "/clusters/"+strconv.FormatInt(id, 10), &cluster); err != nil {
		return nil, err
	}
	if cluster == nil {
		return nil, fmt.Errorf("decoding response: expected JSON object")
	}
	if cluster.ID != id {
		return nil, fmt.Errorf("response id %d does not match requested id %d", cluster.ID, id)
	}
	cluster.Normalize()
	return cluster, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Aggregation service response",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("decoding response: unexpected data after JSON value")
	}
	return nil
}
