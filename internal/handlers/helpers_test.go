package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		data   any
		check  func(*testing.T, map[string]any)
	}{
		{
			name:   "object payload",
			status: http.StatusOK,
			data:   map[string]string{"slug": "field-notes-on-walking"},
			check: func(t *testing.T, body map[string]any) {
				data, ok := body["data"].(map[string]any)
				if !ok {
					t.Fatal("Expected data object")
				}
				if data["slug"] != "field-notes-on-walking" {
					t.Errorf("Expected slug in data, got %v", data["slug"])
				}
			},
		},
		{
			name:   "nil payload",
			status: http.StatusCreated,
			data:   nil,
			check: func(t *testing.T, body map[string]any) {
				if body["data"] != nil {
					t.Error("Expected data to be nil")
				}
			},
		},
		{
			name:   "array payload",
			status: http.StatusOK,
			data:   []string{"essay", "field-note", "project"},
			check: func(t *testing.T, body map[string]any) {
				data, ok := body["data"].([]any)
				if !ok {
					t.Fatal("Expected data array")
				}
				if len(data) != 3 {
					t.Errorf("Expected 3 elements, got %d", len(data))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			respondJSON(w, tt.status, tt.data)

			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}

			body := decodeEnvelope(t, w)
			if success, ok := body["success"].(bool); !ok || !success {
				t.Error("Expected success to be true")
			}
			ts, ok := body["timestamp"].(string)
			if !ok {
				t.Fatal("Expected timestamp to be present")
			}
			if _, err := time.Parse(time.RFC3339, ts); err != nil {
				t.Errorf("Timestamp '%s' is not valid RFC3339: %v", ts, err)
			}
			tt.check(t, body)
		})
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid input")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	body := decodeEnvelope(t, w)
	if success, ok := body["success"].(bool); !ok || success {
		t.Error("Expected success to be false")
	}
	if body["error"] != "Bad Request" {
		t.Errorf("Expected error 'Bad Request', got '%v'", body["error"])
	}
	if body["message"] != "Invalid input" {
		t.Errorf("Expected message 'Invalid input', got '%v'", body["message"])
	}
	if _, ok := body["timestamp"].(string); !ok {
		t.Error("Expected timestamp to be present")
	}
}

func TestRespondJSONErrorWithData(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSONErrorWithData(w, http.StatusBadGateway, "Bad Gateway", "Publish failed",
		map[string]string{"errorMessage": "commit rejected"})

	if w.Code != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", w.Code)
	}

	body := decodeEnvelope(t, w)
	if success, ok := body["success"].(bool); !ok || success {
		t.Error("Expected success to be false")
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatal("Expected data payload alongside the error")
	}
	if data["errorMessage"] != "commit rejected" {
		t.Errorf("Expected errorMessage in data, got %v", data["errorMessage"])
	}
}
