package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/pep299/idea-validator/internal/model"
	"github.com/pep299/idea-validator/internal/store"
)

// Version is reported by the health and status endpoints.
var Version = "dev"

// errorResponse is the error body every endpoint uses.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, statusCode int, detail string) {
	writeJSON(w, statusCode, errorResponse{Detail: detail})
}

// rootHandler reports that the API is up
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Idea Validator API is running",
	})
}

// listClustersHandler returns every cluster, best score first
func (s *Server) listClustersHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if clusters, err := s.cacheManager.GetClusters(ctx); err == nil {
		writeJSON(w, http.StatusOK, clusters)
		return
	}
	gen := s.cacheManager.Generation()

	clusters, err := s.store.Clusters(ctx)
	if err != nil {
		s.logger.Error("Failed to list clusters", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Failed to list clusters")
		return
	}
	if clusters == nil {
		clusters = model.Clusters{}
	}

	if err := s.cacheManager.SetClusters(ctx, gen, clusters); err != nil {
		s.logger.Warn("Failed to cache clusters", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, clusters)
}

// getClusterHandler returns one cluster with its ideas
func (s *Server) getClusterHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Cluster id must be an integer")
		return
	}

	if cluster, err := s.cacheManager.GetCluster(ctx, id); err == nil {
		writeJSON(w, http.StatusOK, cluster)
		return
	}
	gen := s.cacheManager.Generation()

	cluster, err := s.store.ClusterByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		writeDetail(w, http.StatusNotFound, "Cluster not found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to get cluster", zap.Int64("id", id), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Failed to get cluster")
		return
	}
	cluster.Normalize()

	if err := s.cacheManager.SetCluster(ctx, gen, cluster); err != nil {
		s.logger.Warn("Failed to cache cluster", zap.Int64("id", id), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, cluster)
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   Version,
	})
}

// statusHandler returns system status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	cacheStats, err := s.cacheManager.GetStats(r.Context())
	if err != nil {
		s.logger.Warn("Failed to get cache stats", zap.Error(err))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "running",
		"version":        Version,
		"store_type":     s.config.StoreType,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"rate_limited":   s.limiter != nil,
		"cache":          cacheStats,
	})
}

// refreshHandler reloads the snapshot on demand
func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.RefreshSnapshot(r.Context()); err != nil {
		s.logger.Error("Manual refresh failed", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Snapshot refreshed",
	})
}

// cacheClearHandler clears the cache
func (s *Server) cacheClearHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.cacheManager.Clear(r.Context()); err != nil {
		s.logger.Error("Failed to clear cache", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Failed to clear cache")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Cache cleared successfully",
	})
}
