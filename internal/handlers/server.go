package handlers

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pep299/idea-validator/internal/cache"
	"github.com/pep299/idea-validator/internal/config"
	"github.com/pep299/idea-validator/internal/logging"
	"github.com/pep299/idea-validator/internal/store"
)

// RequestIDHeader carries the per-request id echoed by the server.
const RequestIDHeader = "X-Request-ID"

// Server holds the HTTP server and its dependencies
type Server struct {
	config       *config.Config
	store        store.Store
	cacheManager *cache.Manager
	limiter      *rate.Limiter
	logger       *zap.Logger
	startedAt    time.Time
}

// NewServer creates a new HTTP server over st.
func NewServer(cfg *config.Config, st store.Store, logger *zap.Logger) (*Server, error) {
	cacheManager, err := cache.NewManager(cfg.CacheType, cfg.CacheTTL())
	if err != nil {
		return nil, fmt.Errorf("creating cache manager: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	return &Server{
		config:       cfg,
		store:        st,
		cacheManager: cacheManager,
		limiter:      limiter,
		logger:       logging.OrNop(logger),
		startedAt:    time.Now(),
	}, nil
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.corsMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.rateLimitMiddleware)

	r.HandleFunc("/", s.rootHandler).Methods("GET", "OPTIONS")
	r.HandleFunc("/clusters", s.listClustersHandler).Methods("GET", "OPTIONS")
	r.HandleFunc("/clusters/{id}", s.getClusterHandler).Methods("GET", "OPTIONS")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", s.healthHandler).Methods("GET", "OPTIONS")
	api.HandleFunc("/status", s.statusHandler).Methods("GET", "OPTIONS")

	// Admin operations
	api.Handle("/refresh", s.adminAuth(http.HandlerFunc(s.refreshHandler))).Methods("POST", "OPTIONS")
	api.Handle("/cache", s.adminAuth(http.HandlerFunc(s.cacheClearHandler))).Methods("DELETE", "OPTIONS")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})

	return r
}

// RefreshSnapshot reloads the store and drops every cached response.
func (s *Server) RefreshSnapshot(ctx context.Context) error {
	if err := s.store.Refresh(ctx); err != nil {
		return fmt.Errorf("refreshing store: %w", err)
	}
	if err := s.cacheManager.Clear(ctx); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	s.logger.Info("Snapshot refreshed")
	return nil
}

// Close stops the cache. The store is owned by the caller.
func (s *Server) Close() error {
	return s.cacheManager.Close()
}

// Middleware functions

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware tags the request with an id and logs it once served.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("HTTP request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", wrapped.statusCode),
			zap.Duration("duration", time.Since(start)))
	})
}

// rateLimitMiddleware rejects requests above the configured rate.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeDetail(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminAuth requires a bearer token matching ADMIN_TOKEN. Without a
// configured token the wrapped endpoint is disabled.
func (s *Server) adminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.AdminToken == "" {
			writeDetail(w, http.StatusForbidden, "Admin endpoints are disabled")
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.config.AdminToken)) != 1 {
			writeDetail(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
