// Package slacknotify implements providers.Notification against Slack.
package slacknotify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goslack "github.com/slack-go/slack"
)

// Client wraps the slack-go SDK and posts to one or more channels by ID.
type Client struct {
	api     *goslack.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient builds a Client authenticated with a bot token.
func NewClient(token string, timeout time.Duration) *Client {
	return &Client{
		api:     goslack.New(token),
		timeout: timeout,
		logger:  slog.Default().With("component", "slacknotify"),
	}
}

// Send posts message as a single mrkdwn section block to every channel ID in
// channels. A failure to post to one channel does not stop delivery to the
// rest; the first error encountered is returned after all channels have
// been attempted.
func (c *Client) Send(ctx context.Context, channels []string, message string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	block := goslack.NewSectionBlock(goslack.NewTextBlockObject(goslack.MarkdownType, message, false, false), nil, nil)

	var firstErr error
	for _, channel := range channels {
		_, _, err := c.api.PostMessageContext(ctx, channel, goslack.MsgOptionBlocks(block))
		if err != nil {
			c.logger.Warn("slack post failed", "channel", channel, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("slack post to %s failed: %w", channel, err)
			}
			continue
		}
	}
	return firstErr
}
