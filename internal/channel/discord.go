package channel

import (
	"context"
	"fmt"
	"log/slog"

	"ctrelay/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// Discord is a text-only mirror sink. Digests are posted to one Discord
// channel over the REST API; no gateway connection is opened.
type Discord struct {
	token     string
	channelID string
	session   *discordgo.Session
	logger    *slog.Logger
}

type DiscordConfig struct {
	Token     string
	ChannelID string
	Logger    *slog.Logger
}

func NewDiscord(cfg DiscordConfig) *Discord {
	return &Discord{
		token:     cfg.Token,
		channelID: cfg.ChannelID,
		logger:    cfg.Logger,
	}
}

func (d *Discord) Name() string { return "discord" }

// Connect creates the REST session.
func (d *Discord) Connect() error {
	session, err := discordgo.New("Bot " + d.token)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	d.session = session
	return nil
}

// Deliver posts the caption text. Attachments stay with the primary sink.
func (d *Discord) Deliver(ctx context.Context, post domain.OutboundPost) error {
	if d.session == nil {
		return fmt.Errorf("discord: Deliver called before Connect")
	}
	if post.Caption == "" {
		return nil
	}
	if _, err := d.session.ChannelMessageSend(d.channelID, post.Caption, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	return nil
}
