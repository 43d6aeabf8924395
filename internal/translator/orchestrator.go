// Package translator holds the translation backends and the orchestrator
// that runs them as a chain and assembles the multilingual digest.
package translator

import (
	"context"
	"log/slog"
	"time"

	"ctrelay/internal/domain"
	"ctrelay/internal/metrics"
)

const (
	// OriginalLabel heads the digest section carrying the source text.
	OriginalLabel = "Original"
	// MediaPlaceholder stands in for the text of a media-only post.
	MediaPlaceholder = "Media Post"
	// FailurePlaceholder is recorded for a failed non-authoritative backend
	// when showing failures is enabled.
	FailurePlaceholder = "Translation failed."
)

// Orchestrator runs the enabled backends in their declared order and builds
// the digest for one message.
type Orchestrator struct {
	backends     []domain.Backend
	timeout      time.Duration
	showFailures bool
	logger       *slog.Logger
}

type OrchestratorConfig struct {
	Backends []domain.Backend // enabled backends, in invocation order
	Timeout  time.Duration    // per-backend call bound
	// ShowFailures records the failure placeholder for a failed
	// non-authoritative backend instead of omitting its section.
	ShowFailures bool
	Logger       *slog.Logger
}

func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultHTTPTimeout
	}
	return &Orchestrator{
		backends:     cfg.Backends,
		timeout:      cfg.Timeout,
		showFailures: cfg.ShowFailures,
		logger:       cfg.Logger,
	}
}

// Backends returns the configured chain, in invocation order.
func (o *Orchestrator) Backends() []domain.Backend { return o.backends }

// Run translates the (already filtered) text through the backend chain.
//
// The digest always opens with the Original section: the text itself, or the
// media placeholder when the text is empty — in which case no backend is
// invoked at all. An authoritative backend success stops the chain; every
// other backend is attempted regardless of earlier outcomes, and a backend
// failure never aborts the pipeline.
func (o *Orchestrator) Run(ctx context.Context, text string) domain.Digest {
	var d domain.Digest
	if text == "" {
		d.Add(OriginalLabel, MediaPlaceholder)
		return d
	}
	d.Add(OriginalLabel, text)

	for _, b := range o.backends {
		o.logger.Info("attempting translation", "backend", b.Name())
		tr, err := o.translate(ctx, b, text)
		if err != nil {
			metrics.Collector.Counter("ctrelay_backend_failures_total",
				"Failed translation backend calls.", `backend="`+b.Name()+`"`).Inc()
			o.logger.Error("translation backend failed", "backend", b.Name(), "err", err)
			if !b.Authoritative() && o.showFailures {
				d.Add(b.Label(), FailurePlaceholder)
			}
			continue
		}
		d.Add(tr.Label, tr.Text)
		if b.Authoritative() {
			break
		}
	}
	return d
}

func (o *Orchestrator) translate(ctx context.Context, b domain.Backend, text string) (*domain.Translation, error) {
	cctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	return b.Translate(cctx, text)
}
