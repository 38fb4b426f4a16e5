package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// healthResponse mirrors the llama.cpp /health payload.
type healthResponse struct {
	Status          string `json:"status"`
	SlotsIdle       *int   `json:"slots_idle"`
	SlotsProcessing *int   `json:"slots_processing"`
}

// Report is the decoded result of one health probe.
type Report struct {
	HTTPStatus      int
	Status          string
	SlotsIdle       int
	SlotsProcessing int
}

// Ready reports whether the endpoint can serve completions right now.
func (r Report) Ready() bool {
	return r.HTTPStatus == http.StatusOK && r.Status == "ok"
}

// Summary renders the probe result as a short human-readable status line.
func (r Report) Summary() string {
	switch r.HTTPStatus {
	case http.StatusOK, http.StatusServiceUnavailable:
		switch r.Status {
		case "ok":
			return fmt.Sprintf("Everything is working fine. Slots idle: %d, Slots processing: %d", r.SlotsIdle, r.SlotsProcessing)
		case "no slot available":
			return fmt.Sprintf("No slots are currently available. Slots idle: %d, Slots processing: %d", r.SlotsIdle, r.SlotsProcessing)
		case "loading model":
			return "The model is still being loaded. Please wait."
		default:
			return fmt.Sprintf("Unknown status: %s", r.Status)
		}
	case http.StatusInternalServerError:
		if r.Status == "error" {
			return "An error occurred while loading the model."
		}
		return fmt.Sprintf("Unknown status: %s", r.Status)
	default:
		return fmt.Sprintf("Unexpected status: %d", r.HTTPStatus)
	}
}

// Health probes the llama.cpp /health endpoint. The endpoint reports slot
// occupancy alongside its load state; 503 and 500 still carry a JSON body.
func (c *Client) Health(ctx context.Context) (Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return Report{}, fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Report{}, fmt.Errorf("health probe failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return Report{}, fmt.Errorf("failed to read health response: %w", err)
	}

	var payload healthResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return Report{HTTPStatus: resp.StatusCode}, fmt.Errorf("failed to parse health response: %w", err)
	}

	report := Report{
		HTTPStatus: resp.StatusCode,
		Status:     payload.Status,
	}
	if payload.SlotsIdle != nil {
		report.SlotsIdle = *payload.SlotsIdle
	}
	if payload.SlotsProcessing != nil {
		report.SlotsProcessing = *payload.SlotsProcessing
	}

	return report, nil
}
