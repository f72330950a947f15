// Package catalog holds the reference tables behind the fallback data
// service: crops, pests, the fallback market table, canned chat replies and
// the rest of the mock records. Tables are embedded YAML decoded once at
// startup.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/agri-assist-service/internal/domain"
)

//go:embed data/*.yaml
var files embed.FS

// ErrInvalidCatalog is wrapped by every validation failure in Load.
var ErrInvalidCatalog = errors.New("invalid catalog")

// MarketRow is one entry of the fallback mandi table.
type MarketRow struct {
	Crop   string  `yaml:"crop"`
	Price  float64 `yaml:"price"`
	Trend  string  `yaml:"trend"`
	Volume float64 `yaml:"volume"` // zero means randomize
}

// Commodity is a global commodity queried from the commodity price API.
type Commodity struct {
	Name    string `yaml:"name"`
	Display string `yaml:"display"`
}

// FallbackDetection is the fixed result served when the classifier fails.
type FallbackDetection struct {
	Pest      domain.DetectedPest `yaml:"pest"`
	CropType  string              `yaml:"crop_type"`
	Treatment []string            `yaml:"treatment"`
}

// Advisory is the shared pest advice attached to classifier suggestions.
type Advisory struct {
	OrganicTreatments   []domain.Treatment `yaml:"organic_treatments"`
	PreventiveMeasures  []string           `yaml:"preventive_measures"`
	CommonSymptoms      []string           `yaml:"common_symptoms"`
	AphidSymptoms       []string           `yaml:"aphid_symptoms"`
	FavorableConditions []string           `yaml:"favorable_conditions"`
}

// SimulatedPlan is the advice attached to a simulated detection.
type SimulatedPlan struct {
	ApplyFormat string   `yaml:"apply_format"`
	Steps       []string `yaml:"steps"`
}

// WeatherFallback is the snapshot served when the weather provider fails.
type WeatherFallback struct {
	Temperature   float64              `yaml:"temperature"`
	Humidity      float64              `yaml:"humidity"`
	Rainfall      float64              `yaml:"rainfall"`
	WindSpeed     float64              `yaml:"wind_speed"`
	WindDirection float64              `yaml:"wind_direction"`
	Pressure      float64              `yaml:"pressure"`
	UVIndex       float64              `yaml:"uv_index"`
	Visibility    float64              `yaml:"visibility"`
	Forecast      []domain.ForecastDay `yaml:"forecast"`
}

// Alert is a weather alert whose window starts at serve time.
type Alert struct {
	domain.WeatherAlert `yaml:",inline"`
	DurationHours       int `yaml:"duration_hours"`
}

// Post is a community post whose creation time is relative to serve time.
type Post struct {
	domain.CommunityPost `yaml:",inline"`
	AgeHours             int `yaml:"age_hours"`
}

// Intent is a keyword group recognised by the chat responder.
type Intent struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Phrasebook holds the canned chat text for one language.
type Phrasebook struct {
	Greeting    string            `yaml:"greeting"`
	Default     string            `yaml:"default"`
	Replies     map[string]string `yaml:"replies"`
	Suggestions []string          `yaml:"suggestions"`
	FollowUps   []string          `yaml:"follow_ups"`
}

// Catalog is the full set of reference tables.
type Catalog struct {
	Crops             []domain.Crop
	Pests             []domain.DetectedPest
	FallbackDetection FallbackDetection
	Advisory          Advisory
	SimulatedPlan     SimulatedPlan
	Market            []MarketRow
	Commodities       []Commodity
	NationalLocation  domain.Location
	Weather           WeatherFallback
	Alerts            []Alert
	Posts             []Post
	Tips              []domain.FarmingTip
	Intents           []Intent
	Phrasebooks       map[string]Phrasebook
	Glossary          map[string]map[string]string
}

// Load decodes and validates the embedded tables.
func Load() (*Catalog, error) {
	var (
		c     Catalog
		crops struct {
			Crops []domain.Crop `yaml:"crops"`
		}
		pests struct {
			Table     []domain.DetectedPest `yaml:"table"`
			Fallback  FallbackDetection     `yaml:"fallback"`
			Advisory  Advisory              `yaml:"advisory"`
			Simulated SimulatedPlan         `yaml:"simulated_plan"`
		}
		market struct {
			Fallback    []MarketRow     `yaml:"fallback"`
			Commodities []Commodity     `yaml:"commodities"`
			National    domain.Location `yaml:"national_location"`
		}
		weather struct {
			Fallback WeatherFallback `yaml:"fallback"`
			Alerts   []Alert         `yaml:"alerts"`
		}
		community struct {
			Posts []Post              `yaml:"posts"`
			Tips  []domain.FarmingTip `yaml:"tips"`
		}
		chat struct {
			Intents   []Intent              `yaml:"intents"`
			Languages map[string]Phrasebook `yaml:"languages"`
		}
		glossary struct {
			Terms map[string]map[string]string `yaml:"terms"`
		}
	)

	for name, dst := range map[string]any{
		"crops.yaml":     &crops,
		"pests.yaml":     &pests,
		"market.yaml":    &market,
		"weather.yaml":   &weather,
		"community.yaml": &community,
		"chat.yaml":      &chat,
		"glossary.yaml":  &glossary,
	} {
		if err := decode(name, dst); err != nil {
			return nil, err
		}
	}

	c.Crops = crops.Crops
	c.Pests = pests.Table
	c.FallbackDetection = pests.Fallback
	c.Advisory = pests.Advisory
	c.SimulatedPlan = pests.Simulated
	c.Market = market.Fallback
	c.Commodities = market.Commodities
	c.NationalLocation = market.National
	c.Weather = weather.Fallback
	c.Alerts = weather.Alerts
	c.Posts = community.Posts
	c.Tips = community.Tips
	c.Intents = chat.Intents
	c.Phrasebooks = chat.Languages
	c.Glossary = glossary.Terms

	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// MustLoad is Load for program startup and tests.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func decode(name string, dst any) error {
	raw, err := files.ReadFile("data/" + name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func (c *Catalog) validate() error {
	switch {
	case len(c.Crops) == 0:
		return fmt.Errorf("%w: no crops", ErrInvalidCatalog)
	case len(c.Pests) == 0:
		return fmt.Errorf("%w: empty pest table", ErrInvalidCatalog)
	case len(c.Market) == 0:
		return fmt.Errorf("%w: empty market table", ErrInvalidCatalog)
	case len(c.Commodities) == 0:
		return fmt.Errorf("%w: no commodities", ErrInvalidCatalog)
	case len(c.Weather.Forecast) == 0:
		return fmt.Errorf("%w: fallback weather has no forecast", ErrInvalidCatalog)
	case len(c.Advisory.OrganicTreatments) == 0:
		return fmt.Errorf("%w: no organic treatments", ErrInvalidCatalog)
	}

	for _, crop := range c.Crops {
		if _, err := domain.ParseSeason(crop.Season); err != nil {
			return fmt.Errorf("%w: crop %s: %w", ErrInvalidCatalog, crop.ID, err)
		}
	}
	for _, p := range append([]domain.DetectedPest{c.FallbackDetection.Pest}, c.Pests...) {
		if p.Confidence < 0 || p.Confidence > 1 {
			return fmt.Errorf("%w: pest %s confidence %.2f out of range", ErrInvalidCatalog, p.PestID, p.Confidence)
		}
	}
	for _, row := range c.Market {
		switch row.Trend {
		case domain.TrendUp, domain.TrendDown, domain.TrendStable:
		default:
			return fmt.Errorf("%w: market row %s has trend %q", ErrInvalidCatalog, row.Crop, row.Trend)
		}
		if row.Price <= 0 {
			return fmt.Errorf("%w: market row %s has no price", ErrInvalidCatalog, row.Crop)
		}
	}
	for _, lang := range []string{domain.LangEnglish, domain.LangHindi} {
		pb, ok := c.Phrasebooks[lang]
		if !ok || pb.Default == "" {
			return fmt.Errorf("%w: missing %s phrasebook", ErrInvalidCatalog, lang)
		}
		for _, in := range c.Intents {
			if pb.Replies[in.Name] == "" {
				return fmt.Errorf("%w: %s phrasebook has no %s reply", ErrInvalidCatalog, lang, in.Name)
			}
		}
	}
	return nil
}
