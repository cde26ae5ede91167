package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nwhitfield/site-studio/internal/database"
)

// unreachableDB opens a pool against a port nothing listens on. Opening
// is lazy, so this never fails; pinging does.
func unreachableDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := sql.Open("postgres", "postgres://localhost:1/nope?sslmode=disable&connect_timeout=1")
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &database.DB{DB: db}
}

func TestHealthCheckBasicMode(t *testing.T) {
	t.Parallel()

	// Basic mode never touches dependencies.
	h := NewHealthChecker(unreachableDB(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("expected healthy, got %q", response.Status)
	}
	if response.Checks != nil {
		t.Errorf("basic mode must not run checks, got %v", response.Checks)
	}
}

func TestHealthCheckExtendedModeUnhealthyDatabase(t *testing.T) {
	t.Parallel()

	h := NewHealthChecker(unreachableDB(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil)
	rec := httptest.NewRecorder()
	h.HealthCheck(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var response HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Status != "unhealthy" {
		t.Errorf("expected unhealthy, got %q", response.Status)
	}
	if response.Checks["database"] == "healthy" {
		t.Error("expected database check to fail")
	}
	if response.Checks["rabbitmq"] != "not configured" {
		t.Errorf("expected rabbitmq reported as not configured, got %q", response.Checks["rabbitmq"])
	}
}
