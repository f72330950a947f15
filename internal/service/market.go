package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/fallback"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

const (
	marketService    = "market"
	commodityService = "commodity"
)

// Market merges registry mandi prices with global commodity quotes.
type Market struct {
	registry    domain.PriceRegistry
	quoter      domain.CommodityQuoter
	commodities []string
	fallback    *fallback.Service
	degrader    degrader
}

// NewMarket creates the market service. quoter may be nil, in which case only
// registry prices are served.
func NewMarket(
	registry domain.PriceRegistry,
	quoter domain.CommodityQuoter,
	commodities []string,
	fb *fallback.Service,
	policy Policy,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Market {
	return &Market{
		registry:    registry,
		quoter:      quoter,
		commodities: commodities,
		fallback:    fb,
		degrader:    degrader{policy: policy, logger: logger, metrics: metrics},
	}
}

// Prices returns registry quotes followed by commodity quotes. Commodity
// failures drop only that commodity. A registry failure fails the whole call,
// which the policy may replace with the fallback table.
func (m *Market) Prices(ctx context.Context, loc domain.Location) (Result[[]domain.MarketPriceQuote], error) {
	if err := loc.Validate(); err != nil {
		return Result[[]domain.MarketPriceQuote]{}, err
	}

	var registryQuotes, commodityQuotes []domain.MarketPriceQuote
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quotes, err := m.registry.LivePrices(gctx, loc)
		if err != nil {
			return err
		}
		registryQuotes = quotes
		return nil
	})
	g.Go(func() error {
		commodityQuotes = m.commodityQuotes(gctx)
		return nil
	})
	err := g.Wait()

	var quotes []domain.MarketPriceQuote
	if err == nil {
		quotes = make([]domain.MarketPriceQuote, 0, len(registryQuotes)+len(commodityQuotes))
		quotes = append(quotes, registryQuotes...)
		quotes = append(quotes, commodityQuotes...)
	}
	return serve(ctx, m.degrader, marketService, quotes, err, func() []domain.MarketPriceQuote {
		return m.fallback.MarketPrices(loc)
	})
}

// commodityQuotes asks for each commodity in turn. The rate limiter lives in
// the quoter, so the loop stays sequential.
func (m *Market) commodityQuotes(ctx context.Context) []domain.MarketPriceQuote {
	if m.quoter == nil {
		return nil
	}
	quotes := make([]domain.MarketPriceQuote, 0, len(m.commodities))
	for _, name := range m.commodities {
		if ctx.Err() != nil {
			break
		}
		q, err := m.quoter.Price(ctx, name)
		if err != nil {
			m.degrader.logger.Warn("commodity quote dropped", "commodity", name, "kind", domain.KindOf(err), "error", err)
			m.degrader.metrics.ItemsDropped.WithLabelValues(commodityService).Inc()
			continue
		}
		quotes = append(quotes, q)
	}
	return quotes
}
