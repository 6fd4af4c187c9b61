package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func moderationServer(t *testing.T, flagged bool, categories map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Expected bearer auth header, got %q", got)
		}

		var req struct {
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Input == "" {
			t.Error("Expected non-empty input")
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"flagged": flagged, "categories": categories},
			},
		})
	}))
}

func TestModerationCheckClean(t *testing.T) {
	srv := moderationServer(t, false, map[string]bool{"violence": false})
	defer srv.Close()

	client := NewModerationClient("test-key")
	client.SetBaseURL(srv.URL)

	result, err := client.Check(context.Background(), "a healthy meal please")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if result.Flagged {
		t.Error("Expected input not to be flagged")
	}
	if len(result.Categories) != 0 {
		t.Errorf("Expected no categories, got %v", result.Categories)
	}
}

func TestModerationCheckFlagged(t *testing.T) {
	srv := moderationServer(t, true, map[string]bool{"harassment": true, "violence": false})
	defer srv.Close()

	client := NewModerationClient("test-key")
	client.SetBaseURL(srv.URL)

	result, err := client.Check(context.Background(), "bad input")
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !result.Flagged {
		t.Error("Expected input to be flagged")
	}
	if len(result.Categories) != 1 || result.Categories[0] != "harassment" {
		t.Errorf("Expected only triggered categories, got %v", result.Categories)
	}
}

func TestModerationCheckServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewModerationClient("test-key")
	client.SetBaseURL(srv.URL)

	if _, err := client.Check(context.Background(), "anything"); err == nil {
		t.Error("Expected error on server failure")
	}
}
