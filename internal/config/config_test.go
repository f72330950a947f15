package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "substitute", cfg.FallbackMode)
	assert.Zero(t, cfg.RandomSeed)
	assert.Equal(t, 2*time.Second, cfg.MockDetectionDelay)
	assert.Equal(t, time.Second, cfg.ChatReplyDelay)
	assert.Equal(t, 1000, cfg.ChatMaxConversations)
	assert.Equal(t, 24*time.Hour, cfg.ChatConversationTTL)

	assert.Empty(t, cfg.OpenWeatherAPIKey)
	assert.Empty(t, cfg.OpenWeatherBaseURL)
	assert.Equal(t, 10*time.Second, cfg.WeatherTimeout)
	assert.Equal(t, 1000, cfg.WeatherCacheSize)
	assert.Equal(t, 10*time.Minute, cfg.WeatherCacheTTL)

	assert.InDelta(t, 1, cfg.CommodityRPS, 0)
	assert.InDelta(t, 75, cfg.CommodityUSDToINR, 0)
	assert.Equal(t, 10*time.Second, cfg.MarketTimeout)
	assert.Equal(t, 30*time.Second, cfg.PlantIDTimeout)

	assert.False(t, cfg.AuthConfigured())
	assert.Equal(t, "Farmer", cfg.AuthName)

	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "agri-market-events", cfg.KafkaTopic)
	assert.Equal(t, 5*time.Minute, cfg.PublishInterval)

	assert.InDelta(t, 28.6139, cfg.HomeLat, 1e-9)
	assert.InDelta(t, 77.2090, cfg.HomeLon, 1e-9)
	assert.Equal(t, "New Delhi", cfg.HomeDistrict)
	assert.Equal(t, "Delhi", cfg.HomeState)
	assert.Equal(t, "110001", cfg.HomePincode)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("FALLBACK_MODE", "fail")
	t.Setenv("RANDOM_SEED", "42")
	t.Setenv("MOCK_DETECTION_DELAY", "0s")
	t.Setenv("CHAT_REPLY_DELAY", "250ms")
	t.Setenv("CHAT_MAX_CONVERSATIONS", "50")
	t.Setenv("CHAT_CONVERSATION_TTL", "0")
	t.Setenv("OPENWEATHER_API_KEY", "ow-key")
	t.Setenv("WEATHER_CACHE_SIZE", "50")
	t.Setenv("COMMODITY_API_KEY", "cp-key")
	t.Setenv("COMMODITY_RPS", "0.5")
	t.Setenv("COMMODITY_USD_TO_INR", "83.2")
	t.Setenv("PLANTID_API_KEY", "pid-key")
	t.Setenv("AUTH_EMAIL", "farmer@example.com")
	t.Setenv("AUTH_PASSWORD", "s3cret")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "prices")
	t.Setenv("PUBLISH_INTERVAL", "1m")
	t.Setenv("HOME_LAT", "28.98")
	t.Setenv("HOME_LON", "77.70")
	t.Setenv("HOME_DISTRICT", "Meerut")
	t.Setenv("HOME_STATE", "Uttar Pradesh")
	t.Setenv("HOME_PINCODE", "250001")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "fail", cfg.FallbackMode)
	assert.Equal(t, uint64(42), cfg.RandomSeed)
	assert.Zero(t, cfg.MockDetectionDelay)
	assert.Equal(t, 250*time.Millisecond, cfg.ChatReplyDelay)
	assert.Equal(t, 50, cfg.ChatMaxConversations)
	assert.Zero(t, cfg.ChatConversationTTL)
	assert.Equal(t, "ow-key", cfg.OpenWeatherAPIKey)
	assert.Equal(t, 50, cfg.WeatherCacheSize)
	assert.Equal(t, "cp-key", cfg.CommodityAPIKey)
	assert.InDelta(t, 0.5, cfg.CommodityRPS, 1e-9)
	assert.InDelta(t, 83.2, cfg.CommodityUSDToINR, 1e-9)
	assert.Equal(t, "pid-key", cfg.PlantIDAPIKey)
	assert.True(t, cfg.AuthConfigured())
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "prices", cfg.KafkaTopic)
	assert.Equal(t, time.Minute, cfg.PublishInterval)
	assert.Equal(t, "Meerut", cfg.HomeDistrict)
	assert.InDelta(t, 28.98, cfg.HomeLat, 1e-9)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"REQUEST_TIMEOUT", "0s"},
		{"WEATHER_TIMEOUT", "soon"},
		{"WEATHER_CACHE_TTL", "-5m"},
		{"PUBLISH_INTERVAL", "0"},
		{"MOCK_DETECTION_DELAY", "-1s"},
		{"CHAT_REPLY_DELAY", "later"},
		{"CHAT_MAX_CONVERSATIONS", "0"},
		{"CHAT_MAX_CONVERSATIONS", "many"},
		{"CHAT_CONVERSATION_TTL", "-1h"},
		{"RANDOM_SEED", "-3"},
		{"WEATHER_CACHE_SIZE", "0"},
		{"COMMODITY_RPS", "fast"},
		{"COMMODITY_USD_TO_INR", "0"},
		{"HOME_LAT", "north"},
		{"FALLBACK_MODE", "retry"},
	}

	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.key)
		})
	}
}

func TestLoad_AuthRequiresBothFields(t *testing.T) {
	t.Setenv("AUTH_EMAIL", "farmer@example.com")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_PASSWORD")
}

func TestLoad_KafkaBrokersImplyEnabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}

func TestLoad_KafkaEnabledWithDefaultBroker(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
}
