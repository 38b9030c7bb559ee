// Package slack sends report notifications to Slack via incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/sentinel/internal/triage"
)

const (
	maxNarrativeLen = 3000
	httpTimeout     = 10 * time.Second
)

// Notifier sends filed investigation reports to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
	}
}

// Send posts a filed report to the configured Slack webhook.
// If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, report *triage.Report) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(report)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(r *triage.Report) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(r),
			{"type": "divider"},
			fieldsBlock(r),
			{"type": "divider"},
			narrativeBlock(r),
			{"type": "divider"},
			contextBlock(r),
		},
	}
}

func headerBlock(r *triage.Report) map[string]any {
	text := fmt.Sprintf("%s Suspicious Activity Report: %s", riskEmoji(r.RiskLevel), r.Account)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(r *triage.Report) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Risk:* %s", r.RiskLevel),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Status:* %s", r.Status),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Confidence:* %.2f", r.Verdict.Confidence),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Transaction:* %s", r.TransactionID),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Account:* %s", r.Account),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*History:* %d transactions", len(r.History)),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func narrativeBlock(r *triage.Report) map[string]any {
	text := truncate(r.Narrative, maxNarrativeLen)
	if text == "" {
		text = "_No narrative available._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Narrative*\n\n%s", text),
		},
	}
}

func contextBlock(r *triage.Report) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("sentinel • report %s • %s", r.ID, r.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func riskEmoji(risk triage.RiskLevel) string {
	switch risk {
	case triage.RiskHigh:
		return "\U0001f534" // red circle
	case triage.RiskMedium:
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
