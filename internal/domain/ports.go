package domain

import "context"

// WeatherProvider fetches live conditions for a pair of coordinates.
type WeatherProvider interface {
	// Current returns the conditions right now, without a forecast.
	Current(ctx context.Context, lat, lon float64) (WeatherSnapshot, error)

	// Forecast returns the near-term forecast. Top-level fields describe the
	// first forecast entry.
	Forecast(ctx context.Context, lat, lon float64) (WeatherSnapshot, error)
}

// PriceRegistry reads mandi prices published for a location's state.
type PriceRegistry interface {
	LivePrices(ctx context.Context, loc Location) ([]MarketPriceQuote, error)
}

// CommodityQuoter quotes one global commodity by name.
type CommodityQuoter interface {
	Price(ctx context.Context, name string) (MarketPriceQuote, error)
}

// PestClassifier identifies pests in a plant photo.
type PestClassifier interface {
	Identify(ctx context.Context, img Image) (PestDetectionResult, error)
}
