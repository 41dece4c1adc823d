// Package jenkins implements providers.CICD against a Jenkins server's
// REST API. No Go SDK for Jenkins appears among this module's dependency
// set, so the client speaks net/http directly (see DESIGN.md).
package jenkins

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/providers"
)

// Config holds the connection details for a Jenkins instance.
type Config struct {
	BaseURL  string
	User     string
	APIToken string
	Timeout  time.Duration
}

// Client implements providers.CICD against the Jenkins REST API.
type Client struct {
	baseURL string
	user    string
	token   string
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
		user:    cfg.User,
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: timeout},
	}
}

// TriggerBuild starts a parameterized build of req.WorkflowName (the job
// name) and returns the queue item location header for GetQueueStatus to
// resolve into a run ID.
func (c *Client) TriggerBuild(ctx context.Context, req providers.BuildTriggerRequest) (models.QueueStatusResult, error) {
	form := url.Values{}
	form.Set("BRANCH", req.Branch)
	for k, v := range req.Params {
		form.Set(k, v)
	}

	endpoint := fmt.Sprintf("%s/job/%s/buildWithParameters", c.baseURL, url.PathEscape(req.WorkflowName))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return models.QueueStatusResult{}, fmt.Errorf("jenkins: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(c.user, c.token)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return models.QueueStatusResult{}, fmt.Errorf("jenkins: trigger %s: %w", req.WorkflowName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return models.QueueStatusResult{}, fmt.Errorf("jenkins: trigger %s: unexpected status %d", req.WorkflowName, resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	return models.QueueStatusResult{Started: true, Location: location}, nil
}

// queueItem mirrors the subset of Jenkins' queue item JSON this client
// reads.
type queueItem struct {
	Cancelled bool `json:"cancelled"`
	Executable *struct {
		Number int `json:"number"`
		URL    string `json:"url"`
	} `json:"executable"`
}

// GetQueueStatus polls a queue item location returned by TriggerBuild and
// reports the run ID once Jenkins has assigned one.
func (c *Client) GetQueueStatus(ctx context.Context, location string) (models.QueueStatusResult, error) {
	endpoint := strings.TrimSuffix(location, "/") + "/api/json"
	item, err := c.getJSON(ctx, endpoint, &queueItem{})
	if err != nil {
		return models.QueueStatusResult{}, fmt.Errorf("jenkins: queue status: %w", err)
	}
	q := item.(*queueItem)

	if q.Cancelled {
		return models.QueueStatusResult{Started: false, Location: location}, nil
	}
	if q.Executable == nil {
		return models.QueueStatusResult{Started: false, Location: location}, nil
	}
	return models.QueueStatusResult{
		Started:  true,
		RunID:    q.Executable.URL,
		Location: location,
	}, nil
}

// buildInfo mirrors the subset of a Jenkins build's JSON this client
// reads.
type buildInfo struct {
	Building bool `json:"building"`
	Result   string `json:"result"`
}

// GetBuildStatus fetches a completed-or-running build's status. runID is
// the build URL returned by GetQueueStatus.
func (c *Client) GetBuildStatus(ctx context.Context, runID string) (models.BuildStatusResult, error) {
	endpoint := strings.TrimSuffix(runID, "/") + "/api/json"
	info, err := c.getJSON(ctx, endpoint, &buildInfo{})
	if err != nil {
		return models.BuildStatusResult{}, fmt.Errorf("jenkins: build status: %w", err)
	}
	b := info.(*buildInfo)

	if b.Building {
		return models.BuildStatusResult{Status: models.WorkflowRunning}, nil
	}
	if b.Result == "SUCCESS" {
		return models.BuildStatusResult{Status: models.WorkflowCompleted}, nil
	}
	return models.BuildStatusResult{Status: models.WorkflowFailed}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.user, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, endpoint)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", endpoint, err)
	}
	return out, nil
}
