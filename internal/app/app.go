// Package app wires configuration into the services shared by agri-service
// and agrictl.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/agri-assist-service/internal/adapter/commodity"
	"github.com/couchcryptid/agri-assist-service/internal/adapter/enam"
	kafkaadapter "github.com/couchcryptid/agri-assist-service/internal/adapter/kafka"
	"github.com/couchcryptid/agri-assist-service/internal/adapter/openweather"
	"github.com/couchcryptid/agri-assist-service/internal/adapter/plantid"
	"github.com/couchcryptid/agri-assist-service/internal/catalog"
	"github.com/couchcryptid/agri-assist-service/internal/chat"
	"github.com/couchcryptid/agri-assist-service/internal/config"
	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/fallback"
	"github.com/couchcryptid/agri-assist-service/internal/mockrand"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
	"github.com/couchcryptid/agri-assist-service/internal/pipeline"
	"github.com/couchcryptid/agri-assist-service/internal/service"
	"github.com/couchcryptid/agri-assist-service/internal/session"
)

// App holds the wired services.
type App struct {
	Fallback  *fallback.Service
	Weather   *service.Weather
	Market    *service.Market
	Pest      *service.Pest
	Assistant *chat.Assistant
	Sessions  *session.Store

	// Writer and Publisher are nil unless Kafka is enabled.
	Writer    *kafkaadapter.Writer
	Publisher *pipeline.Publisher
}

// New builds every service from cfg.
func New(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	policy, err := service.ParsePolicy(cfg.FallbackMode)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	rnd := mockrand.New(cfg.RandomSeed)
	fb := fallback.New(cat, rnd,
		fallback.WithClock(clock),
		fallback.WithDetectionDelay(cfg.MockDetectionDelay),
	)

	a := &App{
		Fallback: fb,
		Assistant: chat.NewAssistant(chat.NewResponder(cat), clock, cfg.ChatReplyDelay, metrics,
			chat.WithMaxConversations(cfg.ChatMaxConversations),
			chat.WithConversationTTL(cfg.ChatConversationTTL),
		),
		Sessions: session.NewStore(session.NewAuthenticator(cfg.AuthEmail, cfg.AuthPassword, cfg.AuthName)),
	}
	if !cfg.AuthConfigured() {
		logger.Warn("AUTH_EMAIL and AUTH_PASSWORD not set, API is open and login is disabled")
	}

	if cfg.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY not set, weather will come from fallback data")
	}
	weatherClient := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, cfg.WeatherTimeout, logger, metrics)
	weather := openweather.NewCachedClient(weatherClient, cfg.WeatherCacheSize, cfg.WeatherCacheTTL, clock, metrics)
	a.Weather = service.NewWeather(weather, fb, policy, logger, metrics)

	registry := enam.NewClient(cfg.EnamBaseURL, cfg.MarketTimeout, logger, metrics)
	names := make([]string, 0, len(cat.Commodities))
	display := make(map[string]string, len(cat.Commodities))
	for _, c := range cat.Commodities {
		names = append(names, c.Name)
		display[c.Name] = c.Display
	}
	var quoter domain.CommodityQuoter
	if cfg.CommodityAPIKey != "" {
		quoter = commodity.NewClient(commodity.Config{
			APIKey:       cfg.CommodityAPIKey,
			BaseURL:      cfg.CommodityBaseURL,
			Timeout:      cfg.MarketTimeout,
			RPS:          cfg.CommodityRPS,
			USDToINR:     cfg.CommodityUSDToINR,
			DisplayNames: display,
			Location:     cat.NationalLocation,
		}, rnd, logger, metrics)
	} else {
		logger.Info("COMMODITY_API_KEY not set, commodity quotes disabled")
	}
	a.Market = service.NewMarket(registry, quoter, names, fb, policy, logger, metrics)

	var detections service.DetectionPublisher
	if cfg.KafkaEnabled {
		home := domain.Location{
			Latitude:  cfg.HomeLat,
			Longitude: cfg.HomeLon,
			District:  cfg.HomeDistrict,
			State:     cfg.HomeState,
			Pincode:   cfg.HomePincode,
		}
		if err := home.Validate(); err != nil {
			return nil, fmt.Errorf("home location: %w", err)
		}
		a.Writer = kafkaadapter.NewWriter(cfg, logger, metrics)
		detections = a.Writer
		a.Publisher = pipeline.New(a.Market, a.Writer, home, cfg.PublishInterval, clock, logger, metrics)
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	classifier := plantid.NewClient(cfg.PlantIDAPIKey, cfg.PlantIDBaseURL, cfg.PlantIDTimeout, cat.Advisory, logger, metrics)
	a.Pest = service.NewPest(classifier, detections, fb, policy, logger, metrics)

	return a, nil
}

// CheckReadiness defers to the publisher when it runs, and is otherwise ready.
func (a *App) CheckReadiness(ctx context.Context) error {
	if a.Publisher == nil {
		return nil
	}
	return a.Publisher.CheckReadiness(ctx)
}

// Close releases the Kafka writer.
func (a *App) Close() error {
	if a.Writer == nil {
		return nil
	}
	if err := a.Writer.Close(); err != nil {
		return fmt.Errorf("close kafka writer: %w", err)
	}
	return nil
}
