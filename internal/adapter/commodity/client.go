// Package commodity quotes global commodity futures from the API Ninjas
// commodity price endpoint and converts them to rupees per quintal.
package commodity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/mockrand"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

const (
	serviceName = "commodity"

	// DefaultBaseURL is the API Ninjas commodity price endpoint.
	DefaultBaseURL = "https://api.api-ninjas.com/v1/commodityprice"

	// DefaultUSDToINR is the fixed conversion multiplier applied to USD prices.
	DefaultUSDToINR = 75

	// upThreshold is the USD price above which a commodity is reported as rising.
	upThreshold = 100
	maxVolume   = 1000
)

// ErrNoPrice is returned when the API answers without a usable price.
var ErrNoPrice = errors.New("response has no price")

// Config configures a Client.
type Config struct {
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
	RPS      float64 // zero or negative disables limiting
	USDToINR float64

	// DisplayNames maps API commodity names to the crop names shown to users.
	DisplayNames map[string]string
	// Location is attached to every quote; these prices are not local.
	Location domain.Location
}

// Client implements domain.CommodityQuoter. Requests are throttled by a
// token bucket shared across goroutines.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	usdToINR   float64
	names      map[string]string
	location   domain.Location
	rand       *mockrand.Source
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a commodity price client.
func NewClient(cfg Config, rnd *mockrand.Source, logger *slog.Logger, metrics *observability.Metrics) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	usdToINR := cfg.USDToINR
	if usdToINR <= 0 {
		usdToINR = DefaultUSDToINR
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(limit, 1),
		usdToINR:   usdToINR,
		names:      cfg.DisplayNames,
		location:   cfg.Location,
		rand:       rnd,
		logger:     logger,
		metrics:    metrics,
	}
}

// Price quotes one commodity. The USD price is multiplied by the configured
// rate and rounded; the trend is a coarse up/down split at 100 USD.
func (c *Client) Price(ctx context.Context, name string) (domain.MarketPriceQuote, error) {
	if c.apiKey == "" {
		return domain.MarketPriceQuote{}, domain.MissingKeyError(serviceName)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.MarketPriceQuote{}, domain.NewUpstreamError(serviceName, domain.KindTransport, fmt.Errorf("rate limit wait canceled: %w", err))
	}

	fullURL := c.baseURL + "?" + url.Values{"name": {name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.MarketPriceQuote{}, domain.NewUpstreamError(serviceName, domain.KindTransport, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	start := time.Now()
	body, err := c.fetch(req)
	c.metrics.UpstreamDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(serviceName, "error").Inc()
		return domain.MarketPriceQuote{}, err
	}
	c.metrics.UpstreamRequests.WithLabelValues(serviceName, "success").Inc()

	if body.Price == nil || *body.Price == 0 {
		return domain.MarketPriceQuote{}, domain.NewUpstreamError(serviceName, domain.KindDecode, fmt.Errorf("%s: %w", name, ErrNoPrice))
	}
	usd := *body.Price

	direction := domain.TrendDown
	if usd > upThreshold {
		direction = domain.TrendUp
	}

	return domain.MarketPriceQuote{
		ID:         fmt.Sprintf("commodity-%s-%d", name, domain.Now().UnixMilli()),
		Crop:       c.displayName(name),
		Variety:    "Standard",
		Price:      math.Round(usd * c.usdToINR),
		Unit:       domain.UnitQuintal,
		Market:     "International Market",
		MarketType: domain.MarketWholesale,
		Location:   c.location,
		Date:       domain.Now(),
		Trend: domain.PriceTrend{
			Direction:  direction,
			Percentage: c.rand.Float64() * 10,
			Period:     "daily",
		},
		Volume:   float64(c.rand.IntN(maxVolume + 1)),
		Quality:  "Grade A",
		Source:   domain.SourcePrivate,
		Verified: true,
	}, nil
}

func (c *Client) fetch(req *http.Request) (priceResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return priceResponse{}, domain.NewUpstreamError(serviceName, domain.KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return priceResponse{}, domain.StatusError(serviceName, resp.StatusCode, body)
	}

	var out priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return priceResponse{}, domain.NewUpstreamError(serviceName, domain.KindDecode, fmt.Errorf("decode response: %w", err))
	}
	return out, nil
}

func (c *Client) displayName(name string) string {
	if d, ok := c.names[name]; ok {
		return d
	}
	return name
}

// API Ninjas response type.

type priceResponse struct {
	Exchange string   `json:"exchange"`
	Name     string   `json:"name"`
	Price    *float64 `json:"price"`
	Updated  int64    `json:"updated"`
}
