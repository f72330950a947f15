// Package fallback serves mock records for every data service. It is the
// substitute when a live source fails and the sole source for data that has
// no live counterpart (crops, community posts, tips, alerts).
package fallback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/agri-assist-service/internal/catalog"
	"github.com/couchcryptid/agri-assist-service/internal/chat"
	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/mockrand"
)

// Bounds of the simulated market movement.
const (
	priceJitter    = 50  // offset drawn from [-50, +50)
	trendPctMax    = 10  // trend percentage drawn from [0, 10)
	volumeMin      = 100 // volume drawn from [100, 600) when the table has none
	volumeMax      = 600
	qualityDefault = "Grade A"
)

// Service serves the mock tables. All methods are safe for concurrent use.
type Service struct {
	catalog        *catalog.Catalog
	rand           *mockrand.Source
	clock          clockwork.Clock
	detectionDelay time.Duration
	responder      *chat.Responder
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for timestamps and the detection delay.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithDetectionDelay sets how long DetectPest pretends to analyse an image.
func WithDetectionDelay(d time.Duration) Option {
	return func(s *Service) { s.detectionDelay = d }
}

// New creates a fallback service over the catalog.
func New(c *catalog.Catalog, rnd *mockrand.Source, opts ...Option) *Service {
	s := &Service{
		catalog:   c,
		rand:      rnd,
		clock:     clockwork.NewRealClock(),
		responder: chat.NewResponder(c),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarketPrices returns one quote per row of the fallback mandi table, in
// table order. Prices move by a bounded random offset on every call.
func (s *Service) MarketPrices(loc domain.Location) []domain.MarketPriceQuote {
	now := s.clock.Now()
	quotes := make([]domain.MarketPriceQuote, 0, len(s.catalog.Market))

	for i, row := range s.catalog.Market {
		volume := row.Volume
		if volume == 0 {
			volume = float64(s.rand.Between(volumeMin, volumeMax))
		}

		quotes = append(quotes, domain.MarketPriceQuote{
			ID:         fmt.Sprintf("mock-%d", i),
			Crop:       row.Crop,
			Variety:    "Standard",
			Price:      row.Price + float64(s.rand.Offset(priceJitter)),
			Unit:       domain.UnitQuintal,
			Market:     loc.District + " Mandi",
			MarketType: domain.MarketMandi,
			Location:   loc,
			Date:       now,
			Trend: domain.PriceTrend{
				Direction:  row.Trend,
				Percentage: s.rand.Float64() * trendPctMax,
				Period:     "daily",
			},
			Volume:   volume,
			Quality:  qualityDefault,
			Source:   domain.SourceGovernment,
			Verified: true,
		})
	}
	return quotes
}

// CropRecommendations returns the crops sown in season, in table order.
func (s *Service) CropRecommendations(season string) []domain.Crop {
	var crops []domain.Crop
	for _, c := range s.catalog.Crops {
		if c.Season != season {
			continue
		}
		c.ID = "crop-" + c.ID
		c.SoilTypes = append([]string(nil), c.SoilTypes...)
		crops = append(crops, c)
	}
	return crops
}

// DetectPest simulates image analysis: it waits the configured delay, then
// reports one pest picked at random from the lookup table.
func (s *Service) DetectPest(ctx context.Context, img domain.Image) (domain.PestDetectionResult, error) {
	if s.detectionDelay > 0 {
		select {
		case <-s.clock.After(s.detectionDelay):
		case <-ctx.Done():
			return domain.PestDetectionResult{}, ctx.Err()
		}
	}

	pest := s.catalog.Pests[s.rand.IntN(len(s.catalog.Pests))]

	plan := s.catalog.SimulatedPlan
	treatment := make([]string, 0, len(plan.Steps)+1)
	if len(pest.OrganicTreatments) > 0 {
		treatment = append(treatment, fmt.Sprintf(plan.ApplyFormat, pest.OrganicTreatments[0].Name))
	}
	treatment = append(treatment, plan.Steps...)

	return domain.PestDetectionResult{
		ID:            "detection-" + uuid.NewString(),
		ImageRef:      img.Name,
		UploadedAt:    s.clock.Now(),
		DetectedPests: []domain.DetectedPest{pest},
		Confidence:    pest.Confidence,
		CropType:      "vegetable",
		Location:      domain.UnknownLocation(),
		Status:        domain.StatusCompleted,
		Treatment:     treatment,
	}, nil
}

// MockDetection is the fixed single-pest result served when the live
// classifier fails.
func (s *Service) MockDetection(img domain.Image) domain.PestDetectionResult {
	fb := s.catalog.FallbackDetection
	adv := s.catalog.Advisory

	pest := fb.Pest
	pest.OrganicTreatments = append([]domain.Treatment(nil), adv.OrganicTreatments...)
	pest.PreventiveMeasures = append([]string(nil), adv.PreventiveMeasures...)
	if pest.ChemicalTreatments == nil {
		pest.ChemicalTreatments = []domain.Treatment{}
	}

	return domain.PestDetectionResult{
		ID:            "mock-" + uuid.NewString(),
		ImageRef:      img.Name,
		UploadedAt:    s.clock.Now(),
		DetectedPests: []domain.DetectedPest{pest},
		Confidence:    pest.Confidence,
		CropType:      fb.CropType,
		Location:      domain.UnknownLocation(),
		Status:        domain.StatusCompleted,
		Treatment:     append([]string(nil), fb.Treatment...),
	}
}

// ChatbotReply returns the canned reply for message.
func (s *Service) ChatbotReply(message, language string) string {
	return s.responder.Reply(message, language)
}

// CurrentWeather returns the fallback conditions at the given coordinates.
func (s *Service) CurrentWeather(lat, lon float64) domain.WeatherSnapshot {
	snap := s.snapshot(lat, lon)
	snap.ID = "weather-" + uuid.NewString()
	return snap
}

// Forecast returns the fallback conditions plus a daily forecast starting today.
func (s *Service) Forecast(lat, lon float64) domain.WeatherSnapshot {
	snap := s.snapshot(lat, lon)
	snap.ID = "forecast-" + uuid.NewString()

	day := s.clock.Now().Truncate(24 * time.Hour)
	snap.Forecast = make([]domain.ForecastDay, 0, len(s.catalog.Weather.Forecast))
	for i, f := range s.catalog.Weather.Forecast {
		f.Date = day.AddDate(0, 0, i)
		f.Alerts = []domain.WeatherAlert{}
		snap.Forecast = append(snap.Forecast, f)
	}
	return snap
}

func (s *Service) snapshot(lat, lon float64) domain.WeatherSnapshot {
	w := s.catalog.Weather
	loc := domain.UnknownLocation()
	loc.Latitude, loc.Longitude = lat, lon

	return domain.WeatherSnapshot{
		Location:      loc,
		Timestamp:     s.clock.Now(),
		Temperature:   w.Temperature,
		Humidity:      w.Humidity,
		Rainfall:      w.Rainfall,
		WindSpeed:     w.WindSpeed,
		WindDirection: w.WindDirection,
		Pressure:      w.Pressure,
		UVIndex:       w.UVIndex,
		Visibility:    w.Visibility,
		Forecast:      []domain.ForecastDay{},
	}
}

// WeatherAlerts returns the active advisories. Each window starts now.
func (s *Service) WeatherAlerts() []domain.WeatherAlert {
	now := s.clock.Now()
	alerts := make([]domain.WeatherAlert, 0, len(s.catalog.Alerts))
	for _, a := range s.catalog.Alerts {
		alert := a.WeatherAlert
		alert.StartTime = now
		alert.EndTime = now.Add(time.Duration(a.DurationHours) * time.Hour)
		alerts = append(alerts, alert)
	}
	return alerts
}

// CommunityPosts returns the forum feed, newest first as stored.
func (s *Service) CommunityPosts() []domain.CommunityPost {
	now := s.clock.Now()
	posts := make([]domain.CommunityPost, 0, len(s.catalog.Posts))
	for _, p := range s.catalog.Posts {
		post := p.CommunityPost
		post.CreatedAt = now.Add(-time.Duration(p.AgeHours) * time.Hour)
		if post.Comments == nil {
			post.Comments = []domain.Comment{}
		}
		posts = append(posts, post)
	}
	return posts
}

// FarmingTips returns tips whose category contains category. An empty
// category returns every tip.
func (s *Service) FarmingTips(category string) []domain.FarmingTip {
	tips := make([]domain.FarmingTip, 0, len(s.catalog.Tips))
	for _, tip := range s.catalog.Tips {
		if category == "" || strings.Contains(tip.Category, category) {
			tips = append(tips, tip)
		}
	}
	return tips
}

// Translate looks text up in the glossary. Unknown terms come back unchanged.
func (s *Service) Translate(text, language string) string {
	if t, ok := s.catalog.Glossary[text][domain.NormalizeLanguage(language)]; ok && t != "" {
		return t
	}
	return text
}
