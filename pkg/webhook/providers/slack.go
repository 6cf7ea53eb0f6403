// Package providers implements the Outbound/Forwarder contracts in
// pkg/webhook for each supported provider.
package providers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goslack "github.com/slack-go/slack"
)

const defaultTimeout = 10 * time.Second

// SlackOutbound posts comments and reactions back to Slack.
type SlackOutbound struct {
	api    *goslack.Client
	logger *slog.Logger
}

// NewSlackOutbound builds a SlackOutbound from a bot token.
func NewSlackOutbound(token string) *SlackOutbound {
	return &SlackOutbound{
		api:    goslack.New(token),
		logger: slog.Default().With("component", "webhook-slack"),
	}
}

func (s *SlackOutbound) Comment(ctx context.Context, payload map[string]any, text string) error {
	channel, ts := threadTarget(payload)
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := []goslack.MsgOption{goslack.MsgOptionText(text, false)}
	if ts != "" {
		opts = append(opts, goslack.MsgOptionTS(ts))
	}
	_, _, err := s.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		return fmt.Errorf("slack chat.postMessage: %w", err)
	}
	return nil
}

func (s *SlackOutbound) React(ctx context.Context, payload map[string]any, emoji string) error {
	channel, ts := threadTarget(payload)
	if ts == "" {
		return fmt.Errorf("slack react: no message timestamp in payload")
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	ref := goslack.NewRefToMessage(channel, ts)
	if err := s.api.AddReactionContext(ctx, emoji, ref); err != nil {
		return fmt.Errorf("slack reactions.add: %w", err)
	}
	return nil
}

// Label is not a Slack concept; it is a no-op satisfying Outbound.
func (s *SlackOutbound) Label(ctx context.Context, payload map[string]any, labels []string) error {
	return nil
}

func threadTarget(payload map[string]any) (channel, ts string) {
	ev, ok := payload["event"].(map[string]any)
	if !ok {
		return "", ""
	}
	channel, _ = ev["channel"].(string)
	if t, ok := ev["thread_ts"].(string); ok && t != "" {
		return channel, t
	}
	ts, _ = ev["ts"].(string)
	return channel, ts
}
