// Package pipeline wires dedup, filtering, translation, and composition into
// the per-message processing flow and dispatches the result.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ctrelay/internal/archive"
	"ctrelay/internal/compose"
	"ctrelay/internal/dedup"
	"ctrelay/internal/domain"
	"ctrelay/internal/filter"
	"ctrelay/internal/metrics"
	"ctrelay/internal/translator"
)

const defaultConcurrency = 5

// Controller runs the message pipeline: dedup gate → phrase filter →
// translation chain → composer → dispatch. Each message is processed on its
// own goroutine from a bounded pool; the dedup cache and the phrase list are
// the only state shared between messages.
type Controller struct {
	cache       *dedup.Cache
	phrases     []string
	orch        *translator.Orchestrator
	sinks       []domain.Sink // primary sink first, then mirrors
	store       *archive.Store
	bus         domain.MessageBus
	logger      *slog.Logger
	concurrency int
	captionMax  int

	received    *metrics.Counter
	duplicates  *metrics.Counter
	droppedNoop *metrics.Counter
	dispatched  *metrics.Counter
	sendFailed  *metrics.Counter
}

type ControllerConfig struct {
	Cache        *dedup.Cache
	Phrases      []string
	Orchestrator *translator.Orchestrator
	Sinks        []domain.Sink
	Store        *archive.Store // optional digest archive; may be nil
	Bus          domain.MessageBus
	Logger       *slog.Logger
	Concurrency  int
	CaptionMax   int
}

func NewController(cfg ControllerConfig) *Controller {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.CaptionMax <= 0 {
		cfg.CaptionMax = compose.DefaultCaptionMax
	}
	col := metrics.Collector
	return &Controller{
		cache:       cfg.Cache,
		phrases:     cfg.Phrases,
		orch:        cfg.Orchestrator,
		sinks:       cfg.Sinks,
		store:       cfg.Store,
		bus:         cfg.Bus,
		logger:      cfg.Logger,
		concurrency: cfg.Concurrency,
		captionMax:  cfg.CaptionMax,

		received:    col.Counter("ctrelay_messages_received_total", "Messages captured from source channels.", ""),
		duplicates:  col.Counter("ctrelay_messages_duplicate_total", "Messages rejected by the dedup gate.", ""),
		droppedNoop: col.Counter("ctrelay_messages_empty_total", "Messages dropped for having no text and no media.", ""),
		dispatched:  col.Counter("ctrelay_messages_dispatched_total", "Digests delivered to the primary sink.", ""),
		sendFailed:  col.Counter("ctrelay_dispatch_failures_total", "Failed sink deliveries.", ""),
	}
}

// Run consumes captured posts and processes them with bounded concurrency
// until the context is cancelled or the bus closes.
func (c *Controller) Run(ctx context.Context) {
	c.logger.Info("pipeline started", "concurrency", c.concurrency)

	sem := make(chan struct{}, c.concurrency)
	inbound := c.bus.Subscribe()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("pipeline stopping")
			return
		case msg, ok := <-inbound:
			if !ok {
				c.logger.Info("inbound channel closed, pipeline stopping")
				return
			}
			sem <- struct{}{}
			go func(m domain.IncomingMessage) {
				defer func() { <-sem }()
				c.Process(ctx, m)
			}(msg)
		}
	}
}

// Process runs one message through the pipeline end to end. All per-message
// errors are contained here; nothing propagates to other messages.
func (c *Controller) Process(ctx context.Context, msg domain.IncomingMessage) {
	start := time.Now()
	c.received.Inc()

	if !msg.HasContent() {
		c.droppedNoop.Inc()
		c.logger.Info("message has no text and no media, skipping", "channel", msg.Channel)
		return
	}

	// Media-only posts carry no text to fingerprint and are never deduped.
	if msg.Text != "" && !c.cache.Accept(msg.Text) {
		c.duplicates.Inc()
		c.logger.Info("duplicate message, ignoring", "channel", msg.Channel)
		return
	}

	filtered := filter.Filter(msg.Text, c.phrases)
	digest := c.orch.Run(ctx, filtered)

	label := "Unknown Channel"
	if msg.Channel != "" {
		label = "@" + msg.Channel
	}
	composed := compose.Compose(label, digest)
	caption := compose.Truncate(composed, c.captionMax)

	post := domain.OutboundPost{Caption: caption, Media: msg.Media}
	c.dispatch(ctx, post)
	c.record(ctx, msg, caption)

	c.logger.Info("message processed",
		"channel", msg.Channel,
		"sections", digest.Len(),
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
}

// dispatch delivers the post to every sink. A failed delivery is logged and
// dropped; there is no retry and no effect on the other sinks.
func (c *Controller) dispatch(ctx context.Context, post domain.OutboundPost) {
	for i, sink := range c.sinks {
		if err := sink.Deliver(ctx, post); err != nil {
			c.sendFailed.Inc()
			c.logger.Error("dispatch failed", "sink", sink.Name(), "err", err)
			continue
		}
		if i == 0 {
			c.dispatched.Inc()
		}
	}
}

func (c *Controller) record(ctx context.Context, msg domain.IncomingMessage, caption string) {
	if c.store == nil {
		return
	}
	err := c.store.Save(ctx, archive.Record{
		Channel:  msg.Channel,
		Original: strings.TrimSpace(msg.Text),
		Composed: caption,
	})
	if err != nil {
		c.logger.Error("archive save failed", "err", err)
	}
}
