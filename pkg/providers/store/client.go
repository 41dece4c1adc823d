// Package store implements providers.Store against App Store Connect and
// Google Play Developer API upload/status endpoints. Neither has a Go SDK
// among this module's dependency set, so both speak net/http directly
// (see DESIGN.md).
package store

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dream-horizon/delivr/pkg/models"
	"github.com/dream-horizon/delivr/pkg/providers"
)

// Config holds per-target API credentials. AppStore fields are used when
// req.Target is TargetAppStore; PlayStore fields when TargetPlayStore.
type Config struct {
	AppStoreBaseURL  string
	AppStoreAPIKey   string
	PlayStoreBaseURL string
	PlayStoreAPIKey  string
	Timeout          time.Duration
}

// Client implements providers.Store for both mobile app stores.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient builds a Client from Config, defaulting Timeout to 30s (store
// upload endpoints are slow relative to the other providers).
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

// UploadBuild streams the artifact at req.ArtifactPath to the store
// identified by req.Target.
func (c *Client) UploadBuild(ctx context.Context, req providers.UploadRequest) error {
	baseURL, apiKey, err := c.targetConfig(req.Target)
	if err != nil {
		return err
	}

	f, err := os.Open(req.ArtifactPath)
	if err != nil {
		return fmt.Errorf("store: open artifact %s: %w", req.ArtifactPath, err)
	}
	defer f.Close()

	endpoint := fmt.Sprintf("%s/uploads?version=%s", strings.TrimSuffix(baseURL, "/"), req.Version)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, f)
	if err != nil {
		return fmt.Errorf("store: build upload request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("store: upload to %s: %w", req.Target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("store: upload to %s: unexpected status %d", req.Target, resp.StatusCode)
	}
	return nil
}

// VerifyBuild reports whether the given platform/version has finished
// store-side processing (e.g. TestFlight build verification).
func (c *Client) VerifyBuild(ctx context.Context, platform models.Platform, version string) (bool, error) {
	target := models.TargetAppStore
	if platform == models.PlatformAndroid {
		target = models.TargetPlayStore
	}
	baseURL, apiKey, err := c.targetConfig(target)
	if err != nil {
		return false, err
	}

	endpoint := fmt.Sprintf("%s/builds/%s/status", strings.TrimSuffix(baseURL, "/"), version)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("store: build status request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("store: build status for %s: %w", version, err)
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}

func (c *Client) targetConfig(target models.Target) (baseURL, apiKey string, err error) {
	switch target {
	case models.TargetAppStore:
		return c.cfg.AppStoreBaseURL, c.cfg.AppStoreAPIKey, nil
	case models.TargetPlayStore:
		return c.cfg.PlayStoreBaseURL, c.cfg.PlayStoreAPIKey, nil
	default:
		return "", "", fmt.Errorf("store: unsupported target %q", target)
	}
}
