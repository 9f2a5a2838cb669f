package pricing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchLiteLLM(t *testing.T) {
	mockData := map[string]interface{}{
		"claude-sonnet-4-20250514": map[string]interface{}{
			"input_cost_per_token":            3e-06,
			"output_cost_per_token":           1.5e-05,
			"cache_creation_input_token_cost": 3.75e-06,
			"cache_read_input_token_cost":     3e-07,
		},
		"claude-opus-4-1-20250805": map[string]interface{}{
			"input_cost_per_token":            1.5e-05,
			"output_cost_per_token":           7.5e-05,
			"cache_creation_input_token_cost": 1.875e-05,
			"cache_read_input_token_cost":     1.5e-06,
		},
		// Provider-prefixed models should be excluded
		"anthropic.claude-sonnet-4-20250514": map[string]interface{}{
			"input_cost_per_token":  3e-06,
			"output_cost_per_token": 1.5e-05,
		},
		"vertex_ai/claude-sonnet-4-20250514": map[string]interface{}{
			"input_cost_per_token":  3e-06,
			"output_cost_per_token": 1.5e-05,
		},
		// Non-Claude models should be excluded
		"gpt-4o": map[string]interface{}{
			"input_cost_per_token":  2.5e-06,
			"output_cost_per_token": 1e-05,
		},
		// Missing output price should be excluded
		"claude-broken": map[string]interface{}{
			"input_cost_per_token": 1e-06,
		},
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(mockData)
	}))
	defer ts.Close()

	origURL := LiteLLMURL
	LiteLLMURL = ts.URL
	defer func() { LiteLLMURL = origURL }()

	table, err := FetchLiteLLM(context.Background())
	if err != nil {
		t.Fatalf("FetchLiteLLM failed: %v", err)
	}

	if len(table) != 2 {
		t.Errorf("expected 2 models, got %d", len(table))
	}

	sonnet, ok := table["claude-sonnet-4-20250514"]
	if !ok {
		t.Fatal("missing claude-sonnet-4-20250514")
	}
	if !almostEqual(sonnet.Input, 3.0, 0.001) {
		t.Errorf("sonnet Input = %f, want 3.0", sonnet.Input)
	}
	if !almostEqual(sonnet.Output, 15.0, 0.001) {
		t.Errorf("sonnet Output = %f, want 15.0", sonnet.Output)
	}
	if !almostEqual(sonnet.CacheCreation, 3.75, 0.001) {
		t.Errorf("sonnet CacheCreation = %f, want 3.75", sonnet.CacheCreation)
	}
	if !almostEqual(sonnet.CacheRead, 0.30, 0.001) {
		t.Errorf("sonnet CacheRead = %f, want 0.30", sonnet.CacheRead)
	}
}

func TestFetchLiteLLM_HTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	origURL := LiteLLMURL
	LiteLLMURL = ts.URL
	defer func() { LiteLLMURL = origURL }()

	if _, err := FetchLiteLLM(context.Background()); err == nil {
		t.Error("expected error on HTTP 500")
	}
}

func TestFetchLiteLLM_BadJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer ts.Close()

	origURL := LiteLLMURL
	LiteLLMURL = ts.URL
	defer func() { LiteLLMURL = origURL }()

	if _, err := FetchLiteLLM(context.Background()); err == nil {
		t.Error("expected error on malformed body")
	}
}
