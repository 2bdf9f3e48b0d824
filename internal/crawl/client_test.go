package crawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rankforge/rankforge/internal/config"
)

func TestClient_PageMetrics(t *testing.T) {
	var gotURL, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/metrics" {
			http.NotFound(w, r)
			return
		}
		gotURL = r.URL.Query().Get("url")
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"url": gotURL,
			"metrics": map[string]float64{
				"content_word_count": 850,
				"title_word_count":   8,
			},
		})
	}))
	defer server.Close()

	client := NewClient(&config.CrawlConfig{
		BaseURL: server.URL,
		APIKey:  "secret-key",
		Timeout: 5 * time.Second,
	})

	metrics, err := client.PageMetrics(context.Background(), "https://example.com/page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotURL != "https://example.com/page" {
		t.Errorf("expected url query param, got %q", gotURL)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if metrics["content_word_count"] != 850 {
		t.Errorf("expected content_word_count 850, got %v", metrics["content_word_count"])
	}
	if len(metrics) != 2 {
		t.Errorf("expected 2 metrics, got %d", len(metrics))
	}
}

func TestClient_PageMetrics_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(&config.CrawlConfig{BaseURL: server.URL, Timeout: 5 * time.Second})

	if _, err := client.PageMetrics(context.Background(), "https://example.com"); err == nil {
		t.Error("expected error on 500 response")
	}
}
