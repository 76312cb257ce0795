package channels

import (
	"context"

	"github.com/slack-go/slack"

	"github.com/hearth-hq/hearth/internal/config"
)

// SlackNotifier delivers notifications as Slack DMs or channel messages.
type SlackNotifier struct {
	cfg    config.SlackConfig
	client *slack.Client
}

// NewSlackNotifier creates a Slack notifier from config.
func NewSlackNotifier(cfg config.SlackConfig) *SlackNotifier {
	return &SlackNotifier{cfg: cfg, client: slack.New(cfg.BotToken)}
}

func (s *SlackNotifier) Name() string { return "slack" }

// CanReach reports whether the recipient is mapped to a Slack destination.
func (s *SlackNotifier) CanReach(recipient string) bool {
	if !s.cfg.Enabled {
		return false
	}
	_, ok := s.cfg.Recipients[recipient]
	return ok
}

// Send posts the message to the recipient's mapped channel or user.
func (s *SlackNotifier) Send(ctx context.Context, recipient, body string) error {
	target := s.cfg.Recipients[recipient]
	_, _, err := s.client.PostMessageContext(ctx, target,
		slack.MsgOptionText(body, false))
	return err
}
