package service

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/fallback"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

const weatherService = "weather"

// Weather serves live conditions under the same policy as every other service.
type Weather struct {
	provider domain.WeatherProvider
	fallback *fallback.Service
	degrader degrader
}

// NewWeather creates the weather service.
func NewWeather(provider domain.WeatherProvider, fb *fallback.Service, policy Policy, logger *slog.Logger, metrics *observability.Metrics) *Weather {
	return &Weather{
		provider: provider,
		fallback: fb,
		degrader: degrader{policy: policy, logger: logger, metrics: metrics},
	}
}

func (w *Weather) Current(ctx context.Context, lat, lon float64) (Result[domain.WeatherSnapshot], error) {
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return Result[domain.WeatherSnapshot]{}, err
	}
	snap, err := w.provider.Current(ctx, lat, lon)
	return serve(ctx, w.degrader, weatherService, snap, err, func() domain.WeatherSnapshot {
		return w.fallback.CurrentWeather(lat, lon)
	})
}

func (w *Weather) Forecast(ctx context.Context, lat, lon float64) (Result[domain.WeatherSnapshot], error) {
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return Result[domain.WeatherSnapshot]{}, err
	}
	snap, err := w.provider.Forecast(ctx, lat, lon)
	return serve(ctx, w.degrader, weatherService, snap, err, func() domain.WeatherSnapshot {
		return w.fallback.Forecast(lat, lon)
	})
}

// Alerts has no live source.
func (w *Weather) Alerts() []domain.WeatherAlert {
	return w.fallback.WeatherAlerts()
}
