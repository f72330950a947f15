// Package pipeline runs the periodic price publisher: extract live prices for
// the home location, load them onto the event stream, repeat.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
	"github.com/couchcryptid/agri-assist-service/internal/service"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// QuoteExtractor reads market quotes for a location.
type QuoteExtractor interface {
	Prices(ctx context.Context, loc domain.Location) (service.Result[[]domain.MarketPriceQuote], error)
}

// QuoteLoader writes a batch of quotes to the destination.
type QuoteLoader interface {
	PublishQuotes(ctx context.Context, quotes []domain.MarketPriceQuote) error
}

// Publisher orchestrates the extract-load loop.
type Publisher struct {
	extractor QuoteExtractor
	loader    QuoteLoader
	location  domain.Location
	interval  time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Publisher that runs a cycle every interval.
func New(
	e QuoteExtractor,
	l QuoteLoader,
	loc domain.Location,
	interval time.Duration,
	clock clockwork.Clock,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Publisher {
	return &Publisher{
		extractor: e,
		loader:    l,
		location:  loc,
		interval:  interval,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once a cycle has completed, or an error describing
// why the service is not yet ready.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("price publisher has not completed a cycle yet")
	}
	return nil
}

// Run executes publish cycles until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("price publisher started", "interval", p.interval, "district", p.location.District)
	p.metrics.PublisherRunning.Set(1)
	defer p.metrics.PublisherRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := p.interval
		if err := p.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("publish cycle failed", "error", err, "retry_in", backoff)
			p.metrics.PublishErrors.Inc()
			wait = backoff
			backoff = retry.NextBackoff(backoff, maxBackoff)
		} else {
			backoff = initialBackoff
		}

		if !p.sleep(ctx, wait) {
			break
		}
	}

	p.logger.Info("price publisher stopping", "reason", ctx.Err())
	return nil
}

// cycle runs one extract-load pass. Substituted prices are not published.
func (p *Publisher) cycle(ctx context.Context) error {
	start := p.clock.Now()

	res, err := p.extractor.Prices(ctx, p.location)
	if err != nil {
		return err
	}
	if res.Source != service.SourceLive {
		p.logger.Info("live prices unavailable, skipping cycle", "kind", domain.KindOf(res.Cause))
		p.ready.Store(true)
		return nil
	}

	p.metrics.QuotesPerCycle.Observe(float64(len(res.Value)))
	if err := p.loader.PublishQuotes(ctx, res.Value); err != nil {
		return err
	}

	p.metrics.PublishCycleDuration.Observe(p.clock.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Debug("publish cycle complete", "quotes", len(res.Value))
	return nil
}

func (p *Publisher) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}
