// Package enam reads mandi prices from the e-NAM national agriculture market
// registry.
package enam

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

const (
	serviceName = "enam"

	// DefaultBaseURL is the public e-NAM resource API root.
	DefaultBaseURL = "https://enam.gov.in/web/resources/api"
)

// arrivalLayouts are the date formats seen in the arrival_date field.
var arrivalLayouts = []string{time.RFC3339, "2006-01-02", "02/01/2006", "02-01-2006"}

// Client implements domain.PriceRegistry against the e-NAM live price feed.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an e-NAM client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     logger,
		metrics:    metrics,
	}
}

// LivePrices returns the registry's quotes for loc's state. Every quote
// carries loc as its location.
func (c *Client) LivePrices(ctx context.Context, loc domain.Location) ([]domain.MarketPriceQuote, error) {
	fullURL := fmt.Sprintf("%s/live-prices?%s", c.baseURL, url.Values{"state": {loc.State}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, domain.NewUpstreamError(serviceName, domain.KindTransport, fmt.Errorf("create request: %w", err))
	}

	start := time.Now()
	rows, err := c.fetch(req)
	c.metrics.UpstreamDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(serviceName, "error").Inc()
		return nil, err
	}
	c.metrics.UpstreamRequests.WithLabelValues(serviceName, "success").Inc()

	now := domain.Now()
	quotes := make([]domain.MarketPriceQuote, 0, len(rows))
	for _, r := range rows {
		quotes = append(quotes, r.toQuote(loc, now))
	}
	c.logger.Debug("e-NAM prices fetched", "state", loc.State, "count", len(quotes))
	return quotes, nil
}

func (c *Client) fetch(req *http.Request) ([]priceRow, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUpstreamError(serviceName, domain.KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, domain.StatusError(serviceName, resp.StatusCode, body)
	}

	var rows []priceRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, domain.NewUpstreamError(serviceName, domain.KindDecode, fmt.Errorf("decode response: %w", err))
	}
	return rows, nil
}

// e-NAM API response types.

type priceRow struct {
	ID          flexString `json:"id"`
	Commodity   string     `json:"commodity"`
	Variety     string     `json:"variety"`
	Market      string     `json:"market"`
	ModalPrice  flexFloat  `json:"modal_price"`
	MinPrice    flexFloat  `json:"min_price"`
	MaxPrice    flexFloat  `json:"max_price"`
	ArrivalDate string     `json:"arrival_date"`
	Arrivals    flexFloat  `json:"arrivals"`
}

func (r priceRow) toQuote(loc domain.Location, now time.Time) domain.MarketPriceQuote {
	id := string(r.ID)
	if id == "" {
		id = uuid.NewString()
	}

	return domain.MarketPriceQuote{
		ID:         "enam-" + id,
		Crop:       orDefault(r.Commodity, "Unknown"),
		Variety:    orDefault(r.Variety, "General"),
		Price:      float64(r.ModalPrice),
		Unit:       domain.UnitQuintal,
		Market:     orDefault(r.Market, "Local Market"),
		MarketType: domain.MarketMandi,
		Location:   loc,
		Date:       parseArrival(r.ArrivalDate, now),
		Trend:      domain.DeriveTrend(float64(r.MinPrice), float64(r.MaxPrice), float64(r.ModalPrice)),
		Volume:     float64(r.Arrivals),
		Quality:    "Grade A",
		Source:     domain.SourceGovernment,
		Verified:   true,
	}
}

func parseArrival(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range arrivalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// flexFloat accepts a JSON number, a numeric string, or null. Strings that
// do not parse decode as zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
		if err != nil {
			v = 0
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}
