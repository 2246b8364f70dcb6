package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/idea-validator/internal/model"
)

func fixtureService(t *testing.T) *httptest.Server {
	t.Helper()

	clusters := model.Clusters{
		{
			ID: 1, Name: "Slow checkout", Description: "Carts abandoned",
			IntensityScore: 71.4, EngagementScore: 38.2, FrequencyScore: 64, TotalValidationScore: 82.6,
			GeneratedIdeas: []model.Idea{
				{Title: "Checkout Doctor", SolutionType: "SaaS", MonetizationStrategy: "Subscription", MarketSizeEstimate: "$2B"},
			},
		},
	}

	r := mux.NewRouter()
	r.HandleFunc("/clusters", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(clusters)
	})
	r.HandleFunc("/clusters/{id}", func(w http.ResponseWriter, r *http.Request) {
		if mux.Vars(r)["id"] != "1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Cluster not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(clusters[0])
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestListCommand(t *testing.T) {
	srv := fixtureService(t)

	code, out, _ := runCLI(t, "--api-url", srv.URL, "--color", "never", "list")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Opportunity Dashboard")
	assert.Contains(t, out, "Slow checkout")
	assert.Contains(t, out, "83")
	assert.NotContains(t, out, "82.6")
}

func TestServerSettingsDoNotBreakCLI(t *testing.T) {
	srv := fixtureService(t)
	t.Setenv("REFRESH_SCHEDULE", "not a cron")
	t.Setenv("STORE_TYPE", "postgres")

	code, out, errOut := runCLI(t, "--api-url", srv.URL, "--color", "never", "list")
	require.Equal(t, exitOK, code, errOut)
	assert.Contains(t, out, "Slow checkout")
}

func TestShowCommand(t *testing.T) {
	srv := fixtureService(t)

	code, out, _ := runCLI(t, "--api-url", srv.URL, "--color", "never", "show", "1")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "Slow checkout")
	assert.Contains(t, out, "MVP Idea #1")
	assert.Contains(t, out, "Checkout Doctor")
}

func TestShowMissingCluster(t *testing.T) {
	srv := fixtureService(t)

	code, out, _ := runCLI(t, "--api-url", srv.URL, "--color", "never", "show", "42")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "Cluster not found")
}

func TestUnreachableServiceRendersEmptyState(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	code, out, errOut := runCLI(t, "--api-url", url, "--color", "never", "--timeout", "2s", "list")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, out, "No clusters found")
	assert.Contains(t, errOut, "Error fetching clusters")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"non-integer id", []string{"show", "abc"}},
		{"missing id", []string{"show"}},
		{"extra args", []string{"list", "extra"}},
		{"unknown flag", []string{"list", "--bogus"}},
		{"unknown command", []string{"frobnicate"}},
		{"bad color", []string{"--color", "rainbow", "list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			assert.Equal(t, exitUsage, code)
			assert.Contains(t, errOut, "Error:")
		})
	}
}

func TestCancelledContext(t *testing.T) {
	srv := fixtureService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	code := run(ctx, []string{"--api-url", srv.URL, "list"}, &stdout, &stderr)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr.String(), "interrupted")
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	require.Equal(t, exitOK, code)
	assert.Contains(t, out, "dashboard version "+Version)

	code, out, _ = runCLI(t, "version", "--short")
	require.Equal(t, exitOK, code)
	assert.Equal(t, Version+"\n", out)
}
