package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration

	// FallbackMode is "substitute" or "fail"; see service.ParsePolicy.
	FallbackMode       string
	RandomSeed         uint64
	MockDetectionDelay time.Duration
	ChatReplyDelay     time.Duration

	// In-memory chat conversations. A zero TTL keeps idle conversations
	// until the size limit evicts them.
	ChatMaxConversations int
	ChatConversationTTL  time.Duration

	// OpenWeatherMap.
	OpenWeatherAPIKey  string
	OpenWeatherBaseURL string
	WeatherTimeout     time.Duration
	WeatherCacheSize   int
	WeatherCacheTTL    time.Duration

	// Market registry and commodity prices.
	EnamBaseURL       string
	CommodityBaseURL  string
	CommodityAPIKey   string
	CommodityRPS      float64
	CommodityUSDToINR float64
	MarketTimeout     time.Duration

	// Plant.id pest identification.
	PlantIDBaseURL string
	PlantIDAPIKey  string
	PlantIDTimeout time.Duration

	// Login credentials. Both empty disables login.
	AuthEmail    string
	AuthPassword string
	AuthName     string

	// Price publisher.
	KafkaEnabled    bool
	KafkaBrokers    []string
	KafkaTopic      string
	PublishInterval time.Duration

	// Home location for the price publisher.
	HomeLat      float64
	HomeLon      float64
	HomeDistrict string
	HomeState    string
	HomePincode  string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		FallbackMode:    sharedcfg.EnvOrDefault("FALLBACK_MODE", "substitute"),

		OpenWeatherAPIKey:  os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherBaseURL: os.Getenv("OPENWEATHER_BASE_URL"),

		EnamBaseURL:      os.Getenv("ENAM_BASE_URL"),
		CommodityBaseURL: os.Getenv("COMMODITY_BASE_URL"),
		CommodityAPIKey:  os.Getenv("COMMODITY_API_KEY"),

		PlantIDBaseURL: os.Getenv("PLANTID_BASE_URL"),
		PlantIDAPIKey:  os.Getenv("PLANTID_API_KEY"),

		AuthEmail:    os.Getenv("AUTH_EMAIL"),
		AuthPassword: os.Getenv("AUTH_PASSWORD"),
		AuthName:     sharedcfg.EnvOrDefault("AUTH_NAME", "Farmer"),

		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "agri-market-events"),

		HomeDistrict: sharedcfg.EnvOrDefault("HOME_DISTRICT", "New Delhi"),
		HomeState:    sharedcfg.EnvOrDefault("HOME_STATE", "Delhi"),
		HomePincode:  sharedcfg.EnvOrDefault("HOME_PINCODE", "110001"),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"REQUEST_TIMEOUT", "15s", &cfg.RequestTimeout},
		{"WEATHER_TIMEOUT", "10s", &cfg.WeatherTimeout},
		{"WEATHER_CACHE_TTL", "10m", &cfg.WeatherCacheTTL},
		{"MARKET_TIMEOUT", "10s", &cfg.MarketTimeout},
		{"PLANTID_TIMEOUT", "30s", &cfg.PlantIDTimeout},
		{"PUBLISH_INTERVAL", "5m", &cfg.PublishInterval},
	}
	for _, d := range durations {
		if *d.dst, err = parsePositiveDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	// Zero disables the artificial delays.
	if cfg.MockDetectionDelay, err = parseDuration("MOCK_DETECTION_DELAY", "2s"); err != nil {
		return nil, err
	}
	if cfg.ChatReplyDelay, err = parseDuration("CHAT_REPLY_DELAY", "1s"); err != nil {
		return nil, err
	}

	if cfg.ChatConversationTTL, err = parseDuration("CHAT_CONVERSATION_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.ChatMaxConversations, err = strconv.Atoi(sharedcfg.EnvOrDefault("CHAT_MAX_CONVERSATIONS", "1000")); err != nil || cfg.ChatMaxConversations <= 0 {
		return nil, errors.New("invalid CHAT_MAX_CONVERSATIONS")
	}

	if cfg.RandomSeed, err = strconv.ParseUint(sharedcfg.EnvOrDefault("RANDOM_SEED", "0"), 10, 64); err != nil {
		return nil, errors.New("invalid RANDOM_SEED")
	}
	if cfg.WeatherCacheSize, err = strconv.Atoi(sharedcfg.EnvOrDefault("WEATHER_CACHE_SIZE", "1000")); err != nil || cfg.WeatherCacheSize <= 0 {
		return nil, errors.New("invalid WEATHER_CACHE_SIZE")
	}
	if cfg.CommodityRPS, err = parseFloat("COMMODITY_RPS", "1"); err != nil {
		return nil, err
	}
	if cfg.CommodityUSDToINR, err = parseFloat("COMMODITY_USD_TO_INR", "75"); err != nil || cfg.CommodityUSDToINR <= 0 {
		return nil, errors.New("invalid COMMODITY_USD_TO_INR")
	}
	if cfg.HomeLat, err = parseFloat("HOME_LAT", "28.6139"); err != nil {
		return nil, err
	}
	if cfg.HomeLon, err = parseFloat("HOME_LON", "77.2090"); err != nil {
		return nil, err
	}

	cfg.KafkaEnabled = os.Getenv("KAFKA_BROKERS") != ""
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}

	switch cfg.FallbackMode {
	case "substitute", "fail":
	default:
		return nil, fmt.Errorf("invalid FALLBACK_MODE %q: want substitute or fail", cfg.FallbackMode)
	}
	if (cfg.AuthEmail == "") != (cfg.AuthPassword == "") {
		return nil, errors.New("AUTH_EMAIL and AUTH_PASSWORD must be set together")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required")
	}

	return cfg, nil
}

// AuthConfigured reports whether login credentials are present.
func (c *Config) AuthConfigured() bool {
	return c.AuthEmail != "" && c.AuthPassword != ""
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := parseDuration(key, def)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, def string) (float64, error) {
	f, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}
