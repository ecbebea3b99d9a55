package control

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"econdash/modules/platform/config"
)

func testClient(server *httptest.Server) *Client {
	return NewClient(&config.ServerConfig{BaseURL: server.URL, RequestTimeout: 5})
}

func TestPlayParsesSuccessEnvelope(t *testing.T) {
	var gotPath string
	var gotBody map[string]float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       "success",
			"message":      "simulation resumed",
			"current_time": 120,
			"speed":        2.0,
		})
	}))
	defer server.Close()

	result, err := testClient(server).Play(context.Background(), 2.0)
	if err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if gotPath != "/control/play" {
		t.Errorf("path = %q, want /control/play", gotPath)
	}
	if gotBody["speed"] != 2.0 {
		t.Errorf("body speed = %v, want 2.0", gotBody["speed"])
	}
	if result.Status != "success" || result.CurrentTime != 120 {
		t.Errorf("result = %+v, want success at t=120", result)
	}
}

func TestErrorDetailBecomesUserMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"detail": "cannot jump to a past time, use rewind",
		})
	}))
	defer server.Close()

	_, err := testClient(server).Jump(context.Background(), 10)
	if err == nil {
		t.Fatal("Jump() expected error for 400 response")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", apiErr.StatusCode)
	}
	if got := UserMessage(err); got != "cannot jump to a past time, use rewind" {
		t.Errorf("UserMessage = %q, want the server detail verbatim", got)
	}
}

func TestUserMessageFallsBackToGeneric(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"transport error", errors.New("dial tcp: connection refused")},
		{"api error without text", &APIError{StatusCode: 500}},
		{"api error with blank text", &APIError{StatusCode: 500, Message: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != GenericFailureMessage {
				t.Errorf("UserMessage = %q, want %q", got, GenericFailureMessage)
			}
		})
	}
}

func TestGetStatusUnwrapsDataEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/control/status" {
			t.Errorf("path = %q, want /control/status", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": map[string]interface{}{
				"mode":         "paused",
				"current_time": 500,
				"speed":        1.0,
				"entity_count": 42,
			},
		})
	}))
	defer server.Close()

	status, err := testClient(server).GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus() error = %v", err)
	}
	if status.Mode != "paused" || status.CurrentTime != 500 || status.EntityCount != 42 {
		t.Errorf("status = %+v, want paused at t=500 with 42 entities", status)
	}
}

func TestGetMetricsHistoryPassesLimit(t *testing.T) {
	var gotLimit string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "success",
			"data": []map[string]interface{}{
				{"timestamp": 1, "kpis": map[string]float64{"gdp": 1.0}},
				{"timestamp": 2, "kpis": map[string]float64{"gdp": 1.1}},
			},
		})
	}))
	defer server.Close()

	samples, err := testClient(server).GetMetricsHistory(context.Background(), 50)
	if err != nil {
		t.Fatalf("GetMetricsHistory() error = %v", err)
	}
	if gotLimit != "50" {
		t.Errorf("limit query = %q, want 50", gotLimit)
	}
	if len(samples) != 2 || samples[1].Timestamp != 2 {
		t.Errorf("samples = %+v, want 2 samples ending at t=2", samples)
	}
}

func TestLoadScenarioHitsNamedRoute(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "success",
			"message": "scenario loaded",
		})
	}))
	defer server.Close()

	result, err := testClient(server).LoadScenario(context.Background(), "baseline")
	if err != nil {
		t.Fatalf("LoadScenario() error = %v", err)
	}
	if gotPath != "/scenarios/baseline/load" {
		t.Errorf("path = %q, want /scenarios/baseline/load", gotPath)
	}
	if result.Message != "scenario loaded" {
		t.Errorf("message = %q, want scenario loaded", result.Message)
	}
}
