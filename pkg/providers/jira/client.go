// Package jira implements providers.ProjectMgmt against the Jira Cloud
// REST API. No Go SDK for Jira appears among this module's dependency
// set, so the client speaks net/http directly (see DESIGN.md).
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dream-horizon/delivr/pkg/providers"
)

// Config holds the connection details for a Jira Cloud site.
type Config struct {
	BaseURL  string
	Email    string
	APIToken string
	Timeout  time.Duration
}

// Client implements providers.ProjectMgmt against the Jira REST API.
type Client struct {
	baseURL string
	email   string
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
		email:   cfg.Email,
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: timeout},
	}
}

type createIssueRequest struct {
	Fields createIssueFields `json:"fields"`
}

type createIssueFields struct {
	Project     projectRef `json:"project"`
	Summary     string     `json:"summary"`
	Description string     `json:"description"`
	IssueType   issueType  `json:"issuetype"`
}

type projectRef struct {
	Key string `json:"key"`
}

type issueType struct {
	Name string `json:"name"`
}

type createIssueResponse struct {
	Key string `json:"key"`
}

// CreateTicket creates a Task-type issue in the given project and returns
// its issue key (e.g. "REL-42") as the task's external ID.
func (c *Client) CreateTicket(ctx context.Context, req providers.TicketRequest) (string, error) {
	body := createIssueRequest{
		Fields: createIssueFields{
			Project:     projectRef{Key: req.ProjectID},
			Summary:     req.Summary,
			Description: req.Description,
			IssueType:   issueType{Name: "Task"},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("jira: encode issue: %w", err)
	}

	endpoint := c.baseURL + "/rest/api/3/issue"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("jira: create issue request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.email, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("jira: create issue: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("jira: create issue: unexpected status %d", resp.StatusCode)
	}

	var created createIssueResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("jira: decode issue response: %w", err)
	}
	return created.Key, nil
}
