package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/agri-assist-service/internal/config"
	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
	"github.com/couchcryptid/agri-assist-service/internal/service"
)

func newApp(t *testing.T) *App {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	a, err := New(cfg, clockwork.NewFakeClock(), slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, a.Close()) })
	return a
}

func TestNew_AuthConfiguration(t *testing.T) {
	build := func(t *testing.T) (*App, string) {
		t.Helper()
		cfg, err := config.Load()
		require.NoError(t, err)
		var logs bytes.Buffer
		a, err := New(cfg, clockwork.NewFakeClock(), slog.New(slog.NewTextHandler(&logs, nil)), observability.NewMetricsForTesting())
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, a.Close()) })
		return a, logs.String()
	}

	t.Run("open without credentials", func(t *testing.T) {
		a, logs := build(t)
		assert.False(t, a.Sessions.Enabled())
		assert.Contains(t, logs, "API is open")
	})

	t.Run("gated with credentials", func(t *testing.T) {
		t.Setenv("AUTH_EMAIL", "farmer@example.com")
		t.Setenv("AUTH_PASSWORD", "s3cret")
		a, logs := build(t)
		assert.True(t, a.Sessions.Enabled())
		assert.NotContains(t, logs, "API is open")
	})
}

func TestNew_ChatConversationLimit(t *testing.T) {
	t.Setenv("CHAT_REPLY_DELAY", "0")
	t.Setenv("CHAT_MAX_CONVERSATIONS", "1")
	a := newApp(t)

	for range 3 {
		_, err := a.Assistant.Send(context.Background(), "", "hello", "en")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, a.Assistant.Len())
}

func TestNew_DefaultsRunWithoutKafka(t *testing.T) {
	a := newApp(t)

	assert.Nil(t, a.Writer)
	assert.Nil(t, a.Publisher)
	require.NoError(t, a.CheckReadiness(context.Background()))
}

func TestNew_WithoutKeysServesFallback(t *testing.T) {
	a := newApp(t)

	res, err := a.Weather.Current(context.Background(), 28.6, 77.2)
	require.NoError(t, err)
	assert.Equal(t, service.SourceFallback, res.Source)
	assert.Equal(t, domain.KindMissingKey, domain.KindOf(res.Cause))

	det, err := a.Pest.Detect(context.Background(), domain.Image{Name: "leaf.jpg", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, service.SourceFallback, det.Source)
	assert.Equal(t, "Green Aphids", det.Value.DetectedPests[0].Name)
}

func TestNew_MarketUsesConfiguredRegistry(t *testing.T) {
	registry := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/live-prices", r.URL.Path)
		assert.Equal(t, "Uttar Pradesh", r.URL.Query().Get("state"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"commodity":"Wheat","market":"Meerut","modal_price":"2180","min_price":2000,"max_price":2300}]`))
	}))
	defer registry.Close()
	t.Setenv("ENAM_BASE_URL", registry.URL)

	a := newApp(t)
	loc := domain.Location{Latitude: 28.98, Longitude: 77.7, District: "Meerut", State: "Uttar Pradesh", Pincode: "250001"}
	res, err := a.Market.Prices(context.Background(), loc)
	require.NoError(t, err)
	assert.Equal(t, service.SourceLive, res.Source)
	require.Len(t, res.Value, 1)
	assert.InDelta(t, 2180, res.Value[0].Price, 0)
}

func TestNew_KafkaEnabledWiresPublisher(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	a := newApp(t)

	require.NotNil(t, a.Writer)
	require.NotNil(t, a.Publisher)
	require.Error(t, a.CheckReadiness(context.Background()), "not ready before the first cycle")
}

func TestNew_InvalidHomeLocation(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("HOME_PINCODE", " ")
	cfg, err := config.Load()
	require.NoError(t, err)

	_, err = New(cfg, clockwork.NewFakeClock(), slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
	require.ErrorIs(t, err, domain.ErrInvalidLocation)
}
