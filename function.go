package cloudfunctions

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"
	"go.uber.org/zap"

	"github.com/pep299/idea-validator/internal/config"
	"github.com/pep299/idea-validator/internal/handlers"
	"github.com/pep299/idea-validator/internal/logging"
	"github.com/pep299/idea-validator/internal/store"
)

func init() {
	// HTTP API with the same routes as cmd/server
	functions.HTTP("ClusterAPI", ClusterAPI)
	// Cloud Scheduler trigger for snapshot reloads
	functions.CloudEvent("RefreshSnapshot", RefreshSnapshot)
}

// RefreshEventData is the optional payload of a refresh event.
type RefreshEventData struct {
	Reason string `json:"reason"`
}

var (
	serverOnce sync.Once
	server     *handlers.Server
	router     http.Handler
	logger     *zap.Logger
	serverErr  error
)

// getServer builds the server once per instance.
func getServer() (*handlers.Server, http.Handler, error) {
	serverOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			serverErr = fmt.Errorf("loading configuration: %w", err)
			return
		}

		logger, err = logging.New(cfg.LogLevel)
		if err != nil {
			serverErr = fmt.Errorf("creating logger: %w", err)
			return
		}

		st, err := store.New(context.Background(), cfg, logger)
		if err != nil {
			serverErr = fmt.Errorf("opening store: %w", err)
			return
		}

		server, err = handlers.NewServer(cfg, st, logger)
		if err != nil {
			_ = st.Close()
			serverErr = fmt.Errorf("creating server: %w", err)
			return
		}
		router = server.SetupRoutes()
	})
	return server, router, serverErr
}

// ClusterAPI serves the cluster API over HTTP
func ClusterAPI(w http.ResponseWriter, r *http.Request) {
	_, h, err := getServer()
	if err != nil {
		log.Printf("Failed to initialize cluster API: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.ServeHTTP(w, r)
}

// RefreshSnapshot reloads the cluster snapshot when a scheduler event arrives.
func RefreshSnapshot(ctx context.Context, e event.Event) error {
	var data RefreshEventData
	if len(e.Data()) > 0 {
		if err := json.Unmarshal(e.Data(), &data); err != nil {
			return fmt.Errorf("failed to parse event data: %w", err)
		}
	}

	srv, _, err := getServer()
	if err != nil {
		return err
	}

	logger.Info("Refresh event received",
		zap.String("event_id", e.ID()),
		zap.String("source", e.Source()),
		zap.String("reason", data.Reason))
	return srv.RefreshSnapshot(ctx)
}
