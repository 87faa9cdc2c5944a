// Package alert sends best-effort operational notices to a Slack webhook.
// These are for operators (bot offline, store unreachable, sync failures),
// not for story authors or players.
package alert

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Severity colors for the Slack attachment sidebar.
const (
	colorInfo    = "#36a64f"
	colorWarning = "#daa038"
	colorError   = "#a30200"
)

// Alerter posts alerts to a Slack incoming webhook. A zero URL disables it,
// so callers never need to branch on whether alerting is configured.
type Alerter struct {
	url string
}

// New creates an Alerter. An empty webhook URL yields a no-op alerter.
func New(webhookURL string) *Alerter {
	return &Alerter{url: webhookURL}
}

// Enabled reports whether a webhook is configured.
func (a *Alerter) Enabled() bool { return a.url != "" }

// Info posts an informational notice.
func (a *Alerter) Info(ctx context.Context, title, text string) error {
	return a.post(ctx, colorInfo, title, text)
}

// Warn posts a warning.
func (a *Alerter) Warn(ctx context.Context, title, text string) error {
	return a.post(ctx, colorWarning, title, text)
}

// Error posts an error notice.
func (a *Alerter) Error(ctx context.Context, title, text string) error {
	return a.post(ctx, colorError, title, text)
}

func (a *Alerter) post(ctx context.Context, color, title, text string) error {
	if a.url == "" {
		return nil
	}
	msg := &slack.WebhookMessage{
		Attachments: []slack.Attachment{{
			Color: color,
			Title: title,
			Text:  text,
		}},
	}
	if err := slack.PostWebhookContext(ctx, a.url, msg); err != nil {
		return fmt.Errorf("alert: post webhook: %w", err)
	}
	return nil
}
