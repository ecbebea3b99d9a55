package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"econdash/modules/core/sim"
	"econdash/modules/platform/config"
)

// GenericFailureMessage is surfaced when a failure carries no usable
// message of its own (transport refusal, empty error body).
const GenericFailureMessage = "simulation server is unreachable"

// APIError is a non-success response from the control API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("control api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("control api: status %d", e.StatusCode)
}

// UserMessage reduces any command failure to the text shown to the user:
// the server's own message verbatim when present, a generic connectivity
// message otherwise. Never empty.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := err.(*APIError); ok && strings.TrimSpace(apiErr.Message) != "" {
		return apiErr.Message
	}
	return GenericFailureMessage
}

// CommandResult is the success envelope of a control endpoint
type CommandResult struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	CurrentTime int64   `json:"current_time"`
	Speed       float64 `json:"speed,omitempty"`
}

// Client talks to the simulation's control API over HTTP
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a control API client
func NewClient(cfg *config.ServerConfig) *Client {
	if cfg == nil {
		cfg = config.DefaultServerConfig()
	}
	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

// errorBody is the error shape of the backend: FastAPI puts the
// human-readable text in "detail", older endpoints in "message"
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(data, &eb) == nil {
			if eb.Detail != "" {
				apiErr.Message = eb.Detail
			} else {
				apiErr.Message = eb.Message
			}
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// dataEnvelope is the success wrapper of read endpoints
type dataEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func (c *Client) getData(ctx context.Context, path string, out interface{}) error {
	var env dataEnvelope
	if err := c.do(ctx, http.MethodGet, path, nil, &env); err != nil {
		return err
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// Play starts or resumes the simulation at the given speed multiplier
func (c *Client) Play(ctx context.Context, speed float64) (*CommandResult, error) {
	var res CommandResult
	if err := c.do(ctx, http.MethodPost, "/control/play", map[string]float64{"speed": speed}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Pause pauses the simulation
func (c *Client) Pause(ctx context.Context) (*CommandResult, error) {
	var res CommandResult
	if err := c.do(ctx, http.MethodPost, "/control/pause", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Step advances the simulation by the given number of logical steps
func (c *Client) Step(ctx context.Context, steps int) (*CommandResult, error) {
	var res CommandResult
	if err := c.do(ctx, http.MethodPost, "/control/step", map[string]int{"steps": steps}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SetSpeed changes the speed multiplier; the server rejects speed <= 0
func (c *Client) SetSpeed(ctx context.Context, speed float64) (*CommandResult, error) {
	var res CommandResult
	if err := c.do(ctx, http.MethodPost, "/control/speed", map[string]float64{"speed": speed}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Jump fast-advances to a future logical time
func (c *Client) Jump(ctx context.Context, targetTime int64) (*CommandResult, error) {
	var res CommandResult
	if err := c.do(ctx, http.MethodPost, "/control/jump", map[string]int64{"target_time": targetTime}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Rewind restores a past logical time, possibly from a snapshot
func (c *Client) Rewind(ctx context.Context, targetTime int64) (*CommandResult, error) {
	var res CommandResult
	if err := c.do(ctx, http.MethodPost, "/control/rewind", map[string]int64{"target_time": targetTime}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Reset restores the simulation to its initial state
func (c *Client) Reset(ctx context.Context) (*CommandResult, error) {
	var res CommandResult
	if err := c.do(ctx, http.MethodPost, "/control/reset", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetStatus fetches the current run state
func (c *Client) GetStatus(ctx context.Context) (*sim.Status, error) {
	var status sim.Status
	if err := c.getData(ctx, "/control/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetCurrentMetrics fetches the latest metric sample
func (c *Client) GetCurrentMetrics(ctx context.Context) (*sim.MetricSample, error) {
	var sample sim.MetricSample
	if err := c.getData(ctx, "/metrics/current", &sample); err != nil {
		return nil, err
	}
	return &sample, nil
}

// GetMetricsHistory fetches up to limit historical metric samples
func (c *Client) GetMetricsHistory(ctx context.Context, limit int) ([]sim.MetricSample, error) {
	path := "/metrics/history"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var samples []sim.MetricSample
	if err := c.getData(ctx, path, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// ListScenarios fetches the scenarios available on the server
func (c *Client) ListScenarios(ctx context.Context) ([]sim.Scenario, error) {
	var scenarios []sim.Scenario
	if err := c.do(ctx, http.MethodGet, "/scenarios/", nil, &scenarios); err != nil {
		return nil, err
	}
	return scenarios, nil
}

// LoadScenario loads a named scenario into the simulation
func (c *Client) LoadScenario(ctx context.Context, name string) (*CommandResult, error) {
	var res CommandResult
	if err := c.do(ctx, http.MethodPost, "/scenarios/"+name+"/load", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListSnapshots fetches the stored snapshots
func (c *Client) ListSnapshots(ctx context.Context) ([]sim.Snapshot, error) {
	var snapshots []sim.Snapshot
	if err := c.do(ctx, http.MethodGet, "/snapshots/", nil, &snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// CreateSnapshot asks the server to capture a snapshot now
func (c *Client) CreateSnapshot(ctx context.Context) (*CommandResult, error) {
	var res CommandResult
	if err := c.do(ctx, http.MethodPost, "/snapshots/", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
