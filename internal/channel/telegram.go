package channel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ctrelay/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramPollTimeout = 30 // seconds, long-poll

// Telegram is both the watcher for the source channels and the primary
// dispatch sink. The bot session is a single long-lived resource shared by
// all message tasks; the library's Send is safe for concurrent use.
type Telegram struct {
	token     string
	channels  []string // source channel usernames, without @
	recipient int64

	bot     *tgbotapi.BotAPI
	watched map[int64]string // resolved chat ID -> username
	logger  *slog.Logger
}

type TelegramConfig struct {
	Token           string
	Channels        []string
	RecipientChatID int64
	Logger          *slog.Logger
}

func NewTelegram(cfg TelegramConfig) *Telegram {
	return &Telegram{
		token:     cfg.Token,
		channels:  cfg.Channels,
		recipient: cfg.RecipientChatID,
		watched:   make(map[int64]string),
		logger:    cfg.Logger,
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Connect establishes the bot session and resolves the configured source
// channels. An unresolvable channel is logged and excluded; zero resolved
// channels is an error, which the caller treats as fatal.
func (t *Telegram) Connect() error {
	bot, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		return fmt.Errorf("telegram bot init: %w", err)
	}
	t.bot = bot
	t.logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)

	for _, name := range t.channels {
		chat, err := bot.GetChat(tgbotapi.ChatInfoConfig{
			ChatConfig: tgbotapi.ChatConfig{SuperGroupUsername: "@" + name},
		})
		if err != nil {
			t.logger.Error("cannot resolve channel, excluding it", "channel", name, "err", err)
			continue
		}
		t.watched[chat.ID] = name
		t.logger.Info("resolved channel", "channel", name, "chat_id", chat.ID)
	}
	if len(t.watched) == 0 {
		return fmt.Errorf("no valid channels to listen to after resolving")
	}
	return nil
}

// Start polls for channel posts and publishes them onto the bus until the
// context is cancelled. Connect must have succeeded first.
func (t *Telegram) Start(ctx context.Context, bus domain.MessageBus) error {
	if t.bot == nil {
		return fmt.Errorf("telegram: Start called before Connect")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = telegramPollTimeout
	u.AllowedUpdates = []string{"channel_post"}
	updates := t.bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started", "channels", len(t.watched))

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram channel stopping")
			t.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update, bus)
		}
	}
}

// Stop is a no-op: the bot stops when Start's context is cancelled.
func (t *Telegram) Stop() error { return nil }

func (t *Telegram) handleUpdate(update tgbotapi.Update, bus domain.MessageBus) {
	post := update.ChannelPost
	if post == nil || post.Chat == nil {
		return
	}

	username, ok := t.watched[post.Chat.ID]
	if !ok {
		return
	}

	text := post.Text
	if text == "" {
		text = post.Caption
	}

	bus.Publish(domain.IncomingMessage{
		Channel:    username,
		ChannelID:  post.Chat.ID,
		Text:       text,
		Media:      mediaRef(post),
		ReceivedAt: time.Unix(int64(post.Date), 0),
	})
}

// mediaRef extracts an attachment handle from a channel post, if any.
// For photos the largest size is forwarded.
func mediaRef(m *tgbotapi.Message) *domain.MediaRef {
	switch {
	case len(m.Photo) > 0:
		return &domain.MediaRef{FileID: m.Photo[len(m.Photo)-1].FileID, Kind: domain.MediaPhoto}
	case m.Document != nil:
		return &domain.MediaRef{FileID: m.Document.FileID, Kind: domain.MediaDocument}
	case m.Video != nil:
		return &domain.MediaRef{FileID: m.Video.FileID, Kind: domain.MediaVideo}
	default:
		return nil
	}
}

// Deliver sends the composed digest to the recipient chat: media posts as a
// file with the caption attached, text posts as a plain message.
func (t *Telegram) Deliver(ctx context.Context, post domain.OutboundPost) error {
	if t.bot == nil {
		return fmt.Errorf("telegram: Deliver called before Connect")
	}

	var msg tgbotapi.Chattable
	if post.Media != nil {
		file := tgbotapi.FileID(post.Media.FileID)
		switch post.Media.Kind {
		case domain.MediaDocument:
			doc := tgbotapi.NewDocument(t.recipient, file)
			doc.Caption = post.Caption
			msg = doc
		case domain.MediaVideo:
			vid := tgbotapi.NewVideo(t.recipient, file)
			vid.Caption = post.Caption
			msg = vid
		default:
			photo := tgbotapi.NewPhoto(t.recipient, file)
			photo.Caption = post.Caption
			msg = photo
		}
	} else {
		msg = tgbotapi.NewMessage(t.recipient, post.Caption)
	}

	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
