// Package github implements providers.SCM and providers.CICD against a
// GitHub repository, using branch refs and GitHub Actions workflow runs.
package github

import (
	"context"
	"fmt"
	"strconv"

	ghsdk "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/providers"
)

// Config identifies the repository and credentials a Client operates
// against.
type Config struct {
	Token   string
	Owner   string
	Repo    string
	BaseURL string // set for GitHub Enterprise
}

// Client implements providers.SCM and providers.CICD using go-github.
type Client struct {
	api   *ghsdk.Client
	owner string
	repo  string
}

// NewClient builds a Client authenticated with a personal access token or
// GitHub App installation token.
func NewClient(cfg Config) (*Client, error) {
	ctx := context.Background()
	var hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token}))
	client := ghsdk.NewClient(hc)

	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("github: enterprise url: %w", err)
		}
	}

	return &Client{api: client, owner: cfg.Owner, repo: cfg.Repo}, nil
}

// ForkBranch creates newBranch pointing at the current head of
// baseBranch.
func (c *Client) ForkBranch(ctx context.Context, baseBranch, newBranch string) error {
	base, _, err := c.api.Git.GetRef(ctx, c.owner, c.repo, "refs/heads/"+baseBranch)
	if err != nil {
		return fmt.Errorf("github: get base ref %s: %w", baseBranch, err)
	}

	ref := &ghsdk.Reference{
		Ref:    ghsdk.String("refs/heads/" + newBranch),
		Object: &ghsdk.GitObject{SHA: base.Object.SHA},
	}
	if _, _, err := c.api.Git.CreateRef(ctx, c.owner, c.repo, ref); err != nil {
		return fmt.Errorf("github: create ref %s: %w", newBranch, err)
	}
	return nil
}

// CreateTag tags the current head of branch with tag (a lightweight ref,
// matching the spec's release-tagging task — no annotated tag object).
func (c *Client) CreateTag(ctx context.Context, branch, tag string) error {
	head, _, err := c.api.Git.GetRef(ctx, c.owner, c.repo, "refs/heads/"+branch)
	if err != nil {
		return fmt.Errorf("github: get branch ref %s: %w", branch, err)
	}

	ref := &ghsdk.Reference{
		Ref:    ghsdk.String("refs/tags/" + tag),
		Object: &ghsdk.GitObject{SHA: head.Object.SHA},
	}
	if _, _, err := c.api.Git.CreateRef(ctx, c.owner, c.repo, ref); err != nil {
		return fmt.Errorf("github: create tag %s: %w", tag, err)
	}
	return nil
}

// TriggerBuild dispatches a GitHub Actions workflow on branch, passing
// req.Params as workflow_dispatch inputs.
func (c *Client) TriggerBuild(ctx context.Context, req providers.BuildTriggerRequest) (models.QueueStatusResult, error) {
	event := ghsdk.CreateWorkflowDispatchEventRequest{
		Ref:    req.Branch,
		Inputs: stringMapToAny(req.Params),
	}
	_, err := c.api.Actions.CreateWorkflowDispatchEventByFileName(ctx, c.owner, c.repo, req.WorkflowName, event)
	if err != nil {
		return models.QueueStatusResult{}, fmt.Errorf("github: dispatch workflow %s: %w", req.WorkflowName, err)
	}

	// workflow_dispatch does not return the created run's ID; the caller
	// polls GetQueueStatus using the workflow file name as location, which
	// takes the most recent run of that workflow on any branch.
	return models.QueueStatusResult{Started: true, Location: req.WorkflowName}, nil
}

// GetQueueStatus returns the most recent run of the workflow named by
// location on any branch, used to recover the run ID after dispatch.
func (c *Client) GetQueueStatus(ctx context.Context, location string) (models.QueueStatusResult, error) {
	runs, _, err := c.api.Actions.ListWorkflowRunsByFileName(ctx, c.owner, c.repo, location, &ghsdk.ListWorkflowRunsOptions{
		ListOptions: ghsdk.ListOptions{PerPage: 1},
	})
	if err != nil {
		return models.QueueStatusResult{}, fmt.Errorf("github: list workflow runs %s: %w", location, err)
	}
	if len(runs.WorkflowRuns) == 0 {
		return models.QueueStatusResult{Started: false, Location: location}, nil
	}
	run := runs.WorkflowRuns[0]
	return models.QueueStatusResult{
		Started:  true,
		RunID:    strconv.FormatInt(run.GetID(), 10),
		Location: location,
	}, nil
}

// GetBuildStatus maps a GitHub Actions run's status/conclusion to a
// workflow status.
func (c *Client) GetBuildStatus(ctx context.Context, runID string) (models.BuildStatusResult, error) {
	id, err := strconv.ParseInt(runID, 10, 64)
	if err != nil {
		return models.BuildStatusResult{}, fmt.Errorf("github: invalid run id %q: %w", runID, err)
	}

	run, _, err := c.api.Actions.GetWorkflowRunByID(ctx, c.owner, c.repo, id)
	if err != nil {
		return models.BuildStatusResult{}, fmt.Errorf("github: get workflow run %d: %w", id, err)
	}

	switch run.GetStatus() {
	case "completed":
		if run.GetConclusion() == "success" {
			return models.BuildStatusResult{Status: models.WorkflowCompleted}, nil
		}
		return models.BuildStatusResult{Status: models.WorkflowFailed}, nil
	case "queued", "waiting", "pending":
		return models.BuildStatusResult{Status: models.WorkflowPending}, nil
	default:
		return models.BuildStatusResult{Status: models.WorkflowRunning}, nil
	}
}

func stringMapToAny(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
