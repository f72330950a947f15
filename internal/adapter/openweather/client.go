// Package openweather reads current conditions and forecasts from the
// OpenWeatherMap API.
package openweather

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
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/observability"
)

const (
	serviceName = "openweather"

	// DefaultBaseURL is the OpenWeatherMap 2.5 API root.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	forecastEntries   = 7
	defaultVisibility = 10000 // metres
	defaultPressure   = 1013  // hPa
	defaultIcon       = "01d"
	defaultSummary    = "Clear"
)

// Client implements domain.WeatherProvider using the OpenWeatherMap API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an OpenWeatherMap client. An empty baseURL selects DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
		metrics: metrics,
	}
}

// Current returns the conditions at the given coordinates.
func (c *Client) Current(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	var cur currentResponse
	if err := c.doRequest(ctx, "weather", lat, lon, &cur); err != nil {
		return domain.WeatherSnapshot{}, err
	}
	if cur.Main == nil {
		return domain.WeatherSnapshot{}, domain.NewUpstreamError(serviceName, domain.KindDecode, errors.New("response has no main block"))
	}

	visibility := float64(defaultVisibility)
	if cur.Visibility > 0 {
		visibility = cur.Visibility
	}

	return domain.WeatherSnapshot{
		ID: "weather-" + uuid.NewString(),
		Location: domain.Location{
			Latitude:  lat,
			Longitude: lon,
			District:  orUnknown(cur.Name),
			State:     orUnknown(cur.Sys.Country),
			Pincode:   "000000",
		},
		Timestamp:     domain.Now(),
		Temperature:   round(cur.Main.Temp),
		Humidity:      cur.Main.Humidity,
		Rainfall:      cur.Rain.OneHour,
		WindSpeed:     cur.Wind.Speed,
		WindDirection: cur.Wind.Deg,
		Pressure:      cur.Main.Pressure,
		Visibility:    visibility / 1000,
		Forecast:      []domain.ForecastDay{},
	}, nil
}

// Forecast returns the first seven forecast entries at the given coordinates.
// The snapshot's own fields describe the first entry.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (domain.WeatherSnapshot, error) {
	var fc forecastResponse
	if err := c.doRequest(ctx, "forecast", lat, lon, &fc); err != nil {
		return domain.WeatherSnapshot{}, err
	}
	if fc.List == nil {
		return domain.WeatherSnapshot{}, domain.NewUpstreamError(serviceName, domain.KindDecode, errors.New("response has no forecast list"))
	}

	entries := fc.List
	if len(entries) > forecastEntries {
		entries = entries[:forecastEntries]
	}

	days := make([]domain.ForecastDay, 0, len(entries))
	for _, e := range entries {
		desc, icon := defaultSummary, defaultIcon
		if len(e.Weather) > 0 {
			if e.Weather[0].Description != "" {
				desc = e.Weather[0].Description
			}
			if e.Weather[0].Icon != "" {
				icon = e.Weather[0].Icon
			}
		}
		days = append(days, domain.ForecastDay{
			Date: time.Unix(e.Dt, 0).UTC(),
			Temperature: domain.TemperatureRange{
				Min:     round(e.Main.TempMin),
				Max:     round(e.Main.TempMax),
				Average: round(e.Main.Temp),
			},
			Humidity:    e.Main.Humidity,
			Rainfall:    e.Rain.ThreeHours,
			WindSpeed:   e.Wind.Speed,
			Description: desc,
			Icon:        icon,
			Alerts:      []domain.WeatherAlert{},
		})
	}

	snap := domain.WeatherSnapshot{
		ID: "forecast-" + uuid.NewString(),
		Location: domain.Location{
			Latitude:  lat,
			Longitude: lon,
			District:  orUnknown(fc.City.Name),
			State:     orUnknown(fc.City.Country),
			Pincode:   "000000",
		},
		Timestamp:  domain.Now(),
		Pressure:   defaultPressure,
		Visibility: defaultVisibility / 1000,
		Forecast:   days,
	}
	if len(fc.List) > 0 {
		first := fc.List[0]
		snap.Temperature = round(first.Main.Temp)
		snap.Humidity = first.Main.Humidity
		snap.Rainfall = first.Rain.ThreeHours
		snap.WindSpeed = first.Wind.Speed
		snap.WindDirection = first.Wind.Deg
		if first.Main.Pressure > 0 {
			snap.Pressure = first.Main.Pressure
		}
	}
	return snap, nil
}

func (c *Client) doRequest(ctx context.Context, endpoint string, lat, lon float64, out any) error {
	if c.apiKey == "" {
		return domain.MissingKeyError(serviceName)
	}

	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	fullURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.NewUpstreamError(serviceName, domain.KindTransport, fmt.Errorf("create request: %w", err))
	}

	start := time.Now()
	err = c.send(req, out)
	c.metrics.UpstreamDuration.WithLabelValues(serviceName).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(serviceName, "error").Inc()
		c.logger.Debug("openweather request failed", "endpoint", endpoint, "lat", lat, "lon", lon, "error", err)
		return err
	}
	c.metrics.UpstreamRequests.WithLabelValues(serviceName, "success").Inc()
	return nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.NewUpstreamError(serviceName, domain.KindTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.StatusError(serviceName, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewUpstreamError(serviceName, domain.KindDecode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// round rounds half up, so -2.5 becomes -2.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// OpenWeatherMap API response types.

type currentResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main       *mainBlock `json:"main"`
	Rain       rainBlock  `json:"rain"`
	Wind       windBlock  `json:"wind"`
	Visibility float64    `json:"visibility"`
}

type forecastResponse struct {
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
	List []forecastEntry `json:"list"`
}

type forecastEntry struct {
	Dt      int64     `json:"dt"`
	Main    mainBlock `json:"main"`
	Rain    rainBlock `json:"rain"`
	Wind    windBlock `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
}

type mainBlock struct {
	Temp     float64 `json:"temp"`
	TempMin  float64 `json:"temp_min"`
	TempMax  float64 `json:"temp_max"`
	Humidity float64 `json:"humidity"`
	Pressure float64 `json:"pressure"`
}

type rainBlock struct {
	OneHour    float64 `json:"1h"`
	ThreeHours float64 `json:"3h"`
}

type windBlock struct {
	Speed float64 `json:"speed"`
	Deg   float64 `json:"deg"`
}
