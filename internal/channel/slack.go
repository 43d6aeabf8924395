package channel

import (
	"context"
	"fmt"
	"log/slog"

	"ctrelay/internal/domain"

	"github.com/slack-go/slack"
)

// Slack is a text-only mirror sink posting digests to one Slack channel.
type Slack struct {
	botToken  string
	channelID string
	client    *slack.Client
	logger    *slog.Logger
}

type SlackConfig struct {
	BotToken  string
	ChannelID string
	Logger    *slog.Logger
}

func NewSlack(cfg SlackConfig) *Slack {
	return &Slack{
		botToken:  cfg.BotToken,
		channelID: cfg.ChannelID,
		logger:    cfg.Logger,
	}
}

func (s *Slack) Name() string { return "slack" }

// Connect validates the token with an auth test.
func (s *Slack) Connect() error {
	api := slack.New(s.botToken)
	authResp, err := api.AuthTest()
	if err != nil {
		return fmt.Errorf("slack auth: %w", err)
	}
	s.client = api
	s.logger.Info("slack bot connected", "user", authResp.User, "user_id", authResp.UserID)
	return nil
}

// Deliver posts the caption text. Attachments stay with the primary sink.
func (s *Slack) Deliver(ctx context.Context, post domain.OutboundPost) error {
	if s.client == nil {
		return fmt.Errorf("slack: Deliver called before Connect")
	}
	if post.Caption == "" {
		return nil
	}
	_, _, err := s.client.PostMessageContext(ctx, s.channelID,
		slack.MsgOptionText(post.Caption, false),
		slack.MsgOptionDisableLinkUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	return nil
}
