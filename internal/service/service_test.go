package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/couchcryptid/agri-assist-service/internal/catalog"
	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/fallback"
	"github.com/couchcryptid/agri-assist-service/internal/mockrand"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFallback() *fallback.Service {
	return fallback.New(catalog.MustLoad(), mockrand.New(42))
}

func meerut() domain.Location {
	return domain.Location{Latitude: 28.98, Longitude: 77.7, District: "Meerut", State: "Uttar Pradesh", Pincode: "250001"}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicySubstitute, p)

	p, err = ParsePolicy("fail")
	require.NoError(t, err)
	assert.Equal(t, PolicyFail, p)

	_, err = ParsePolicy("retry")
	require.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestServe(t *testing.T) {
	upstream := domain.NewUpstreamError("x", domain.KindTransport, errors.New("boom"))
	substitute := func() string { return "fallback" }

	t.Run("live value", func(t *testing.T) {
		d := degrader{policy: PolicySubstitute, logger: discardLogger(), metrics: observability.NewMetricsForTesting()}
		res, err := serve(context.Background(), d, "x", "live", nil, substitute)
		require.NoError(t, err)
		assert.Equal(t, "live", res.Value)
		assert.Equal(t, SourceLive, res.Source)
		assert.False(t, res.Degraded())
	})

	t.Run("substitute keeps cause", func(t *testing.T) {
		metrics := observability.NewMetricsForTesting()
		d := degrader{policy: PolicySubstitute, logger: discardLogger(), metrics: metrics}
		res, err := serve(context.Background(), d, "x", "", upstream, substitute)
		require.NoError(t, err)
		assert.Equal(t, "fallback", res.Value)
		assert.Equal(t, SourceFallback, res.Source)
		assert.Equal(t, domain.KindTransport, domain.KindOf(res.Cause))
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.FallbackTotal.WithLabelValues("x")), 0)
	})

	t.Run("fail policy", func(t *testing.T) {
		metrics := observability.NewMetricsForTesting()
		d := degrader{policy: PolicyFail, logger: discardLogger(), metrics: metrics}
		res, err := serve(context.Background(), d, "x", "", upstream, substitute)
		require.ErrorIs(t, err, upstream)
		assert.Empty(t, res.Value)
		assert.Equal(t, upstream, res.Cause)
		assert.InDelta(t, 0, testutil.ToFloat64(metrics.FallbackTotal.WithLabelValues("x")), 0)
	})

	t.Run("cancellation is never substituted", func(t *testing.T) {
		d := degrader{policy: PolicySubstitute, logger: discardLogger(), metrics: observability.NewMetricsForTesting()}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		canceled := domain.NewUpstreamError("x", domain.KindTransport, context.Canceled)

		res, err := serve(ctx, d, "x", "", canceled, substitute)
		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, res.Value)
	})
}

type fakeRegistry struct {
	quotes []domain.MarketPriceQuote
	err    error
}

func (f *fakeRegistry) LivePrices(ctx context.Context, _ domain.Location) ([]domain.MarketPriceQuote, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, ctx.Err()
}

type fakeQuoter struct {
	mu     sync.Mutex
	failOn map[string]bool
	asked  []string
}

func (f *fakeQuoter) Price(_ context.Context, name string) (domain.MarketPriceQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asked = append(f.asked, name)
	if f.failOn[name] {
		return domain.MarketPriceQuote{}, domain.StatusError("commodity", 500, nil)
	}
	return domain.MarketPriceQuote{ID: "c-" + name, Crop: name, Source: domain.SourcePrivate}, nil
}

func TestMarket_Prices_MergesRegistryThenCommodities(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	registry := &fakeRegistry{quotes: []domain.MarketPriceQuote{{ID: "enam-1", Crop: "Wheat"}, {ID: "enam-2", Crop: "Rice"}}}
	quoter := &fakeQuoter{failOn: map[string]bool{"corn": true}}
	m := NewMarket(registry, quoter, []string{"wheat", "corn", "soybean"}, newFallback(), PolicySubstitute, discardLogger(), metrics)

	res, err := m.Prices(context.Background(), meerut())
	require.NoError(t, err)
	assert.Equal(t, SourceLive, res.Source)
	assert.NoError(t, res.Cause)

	ids := make([]string, 0, len(res.Value))
	for _, q := range res.Value {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"enam-1", "enam-2", "c-wheat", "c-soybean"}, ids)
	assert.Equal(t, []string{"wheat", "corn", "soybean"}, quoter.asked)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ItemsDropped.WithLabelValues(commodityService)), 0)
}

func TestMarket_Prices_RegistryFailureSubstitutesWholeResult(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	registry := &fakeRegistry{err: domain.StatusError("enam", 503, []byte("down"))}
	m := NewMarket(registry, &fakeQuoter{}, []string{"wheat"}, newFallback(), PolicySubstitute, discardLogger(), metrics)

	res, err := m.Prices(context.Background(), meerut())
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	assert.Equal(t, domain.KindStatus, domain.KindOf(res.Cause))
	require.Len(t, res.Value, 5)
	for _, q := range res.Value {
		assert.Equal(t, "Meerut Mandi", q.Market)
	}
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FallbackTotal.WithLabelValues(marketService)), 0)
}

func TestMarket_Prices_FailPolicy(t *testing.T) {
	registry := &fakeRegistry{err: domain.NewUpstreamError("enam", domain.KindDecode, errors.New("bad json"))}
	m := NewMarket(registry, nil, nil, newFallback(), PolicyFail, discardLogger(), observability.NewMetricsForTesting())

	res, err := m.Prices(context.Background(), meerut())
	require.Error(t, err)
	assert.Nil(t, res.Value)
	assert.Equal(t, domain.KindDecode, domain.KindOf(err))
}

func TestMarket_Prices_InvalidLocation(t *testing.T) {
	registry := &fakeRegistry{err: errors.New("must not be called")}
	m := NewMarket(registry, nil, nil, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())

	loc := meerut()
	loc.Pincode = ""
	_, err := m.Prices(context.Background(), loc)
	require.ErrorIs(t, err, domain.ErrInvalidLocation)
}

func TestMarket_Prices_NilQuoter(t *testing.T) {
	registry := &fakeRegistry{quotes: []domain.MarketPriceQuote{{ID: "enam-1"}}}
	m := NewMarket(registry, nil, []string{"wheat"}, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())

	res, err := m.Prices(context.Background(), meerut())
	require.NoError(t, err)
	assert.Len(t, res.Value, 1)
}

type fakeProvider struct {
	snap domain.WeatherSnapshot
	err  error
}

func (f *fakeProvider) Current(context.Context, float64, float64) (domain.WeatherSnapshot, error) {
	return f.snap, f.err
}

func (f *fakeProvider) Forecast(context.Context, float64, float64) (domain.WeatherSnapshot, error) {
	return f.snap, f.err
}

func TestWeather(t *testing.T) {
	live := domain.WeatherSnapshot{ID: "weather-live", Temperature: 31}

	t.Run("live", func(t *testing.T) {
		w := NewWeather(&fakeProvider{snap: live}, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())
		res, err := w.Current(context.Background(), 28.6, 77.2)
		require.NoError(t, err)
		assert.Equal(t, "weather-live", res.Value.ID)
		assert.Equal(t, SourceLive, res.Source)
	})

	t.Run("missing key substitutes", func(t *testing.T) {
		w := NewWeather(&fakeProvider{err: domain.MissingKeyError("openweather")}, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())
		res, err := w.Forecast(context.Background(), 28.6, 77.2)
		require.NoError(t, err)
		assert.Equal(t, SourceFallback, res.Source)
		assert.Len(t, res.Value.Forecast, 7)
		assert.InDelta(t, 28.6, res.Value.Location.Latitude, 0)
		assert.ErrorIs(t, res.Cause, domain.ErrMissingAPIKey)
	})

	t.Run("fail policy applies to weather too", func(t *testing.T) {
		w := NewWeather(&fakeProvider{err: domain.MissingKeyError("openweather")}, newFallback(), PolicyFail, discardLogger(), observability.NewMetricsForTesting())
		_, err := w.Current(context.Background(), 28.6, 77.2)
		require.ErrorIs(t, err, domain.ErrMissingAPIKey)
	})

	t.Run("bad coordinates", func(t *testing.T) {
		w := NewWeather(&fakeProvider{snap: live}, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())
		_, err := w.Current(context.Background(), 91, 0)
		require.ErrorIs(t, err, domain.ErrInvalidLocation)
	})

	t.Run("alerts", func(t *testing.T) {
		w := NewWeather(&fakeProvider{}, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())
		assert.Len(t, w.Alerts(), 2)
	})
}

type fakeClassifier struct {
	res domain.PestDetectionResult
	err error
}

func (f *fakeClassifier) Identify(context.Context, domain.Image) (domain.PestDetectionResult, error) {
	return f.res, f.err
}

type recordingPublisher struct {
	published []string
	err       error
}

func (r *recordingPublisher) PublishDetection(_ context.Context, res domain.PestDetectionResult) error {
	r.published = append(r.published, res.ID)
	return r.err
}

func TestPest_Detect(t *testing.T) {
	img := domain.Image{Name: "leaf.jpg", Data: []byte{0xff, 0xd8}}

	t.Run("live result is published", func(t *testing.T) {
		pub := &recordingPublisher{}
		live := domain.PestDetectionResult{ID: "detection-1", Status: domain.StatusCompleted}
		p := NewPest(&fakeClassifier{res: live}, pub, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())

		res, err := p.Detect(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, SourceLive, res.Source)
		assert.Equal(t, []string{"detection-1"}, pub.published)
	})

	t.Run("publish failure does not fail detection", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("broker down")}
		live := domain.PestDetectionResult{ID: "detection-2", Status: domain.StatusCompleted}
		p := NewPest(&fakeClassifier{res: live}, pub, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())

		res, err := p.Detect(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, "detection-2", res.Value.ID)
	})

	t.Run("classifier failure serves mock detection", func(t *testing.T) {
		pub := &recordingPublisher{}
		p := NewPest(&fakeClassifier{err: domain.StatusError("plantid", 500, nil)}, pub, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())

		res, err := p.Detect(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, SourceFallback, res.Source)
		require.Len(t, res.Value.DetectedPests, 1)
		assert.Equal(t, "Green Aphids", res.Value.DetectedPests[0].Name)
		assert.Empty(t, pub.published)
	})

	t.Run("missing key serves mock detection", func(t *testing.T) {
		p := NewPest(&fakeClassifier{err: domain.MissingKeyError("plantid")}, nil, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())

		res, err := p.Detect(context.Background(), img)
		require.NoError(t, err)
		assert.Equal(t, SourceFallback, res.Source)
		assert.InDelta(t, 0.85, res.Value.Confidence, 1e-9)
		assert.Equal(t, domain.SeverityMedium, res.Value.DetectedPests[0].Severity)
	})

	t.Run("empty image", func(t *testing.T) {
		p := NewPest(&fakeClassifier{}, nil, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())
		_, err := p.Detect(context.Background(), domain.Image{Name: "x"})
		require.ErrorIs(t, err, ErrEmptyImage)
	})
}

func TestPest_Simulate(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("must not be called")}
	p := NewPest(classifier, nil, newFallback(), PolicySubstitute, discardLogger(), observability.NewMetricsForTesting())

	res, err := p.Simulate(context.Background(), domain.Image{Name: "leaf.jpg"})
	require.NoError(t, err)
	assert.Equal(t, SourceFallback, res.Source)
	require.Len(t, res.Value.DetectedPests, 1)
	assert.Contains(t, []string{"aphid-001", "fungus-001"}, res.Value.DetectedPests[0].PestID)
}
