// Package checkmate implements providers.TestMgmt against a Checkmate
// test-management server's REST API. No Go SDK for Checkmate appears
// among this module's dependency set, so the client speaks net/http
// directly (see DESIGN.md).
package checkmate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config holds the connection details for a Checkmate server.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements providers.TestMgmt against the Checkmate REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a Client from Config, defaulting Timeout to 10s.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type entityResponse struct {
	ID string `json:"id"`
}

// CreateTestSuite creates a new test suite under projectID.
func (c *Client) CreateTestSuite(ctx context.Context, projectID, name string) (string, error) {
	return c.post(ctx, fmt.Sprintf("/api/v1/projects/%s/suites", projectID), map[string]string{"name": name})
}

// CreateTestRun creates a new run of suiteID.
func (c *Client) CreateTestRun(ctx context.Context, suiteID, name string) (string, error) {
	return c.post(ctx, fmt.Sprintf("/api/v1/suites/%s/runs", suiteID), map[string]string{"name": name})
}

func (c *Client) post(ctx context.Context, path string, body map[string]string) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("checkmate: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("checkmate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("checkmate: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("checkmate: %s: unexpected status %d", path, resp.StatusCode)
	}

	var created entityResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("checkmate: decode response from %s: %w", path, err)
	}
	return created.ID, nil
}
