package domain

import (
	"fmt"
	"strings"
)

// Growing seasons.
const (
	SeasonKharif = "kharif"
	SeasonRabi   = "rabi"
	SeasonZaid   = "zaid"
)

// ParseSeason normalizes a season name. Only kharif, rabi and zaid are accepted.
func ParseSeason(s string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case SeasonKharif, SeasonRabi, SeasonZaid:
		return v, nil
	default:
		return "", fmt.Errorf("unknown season %q", s)
	}
}

// ClimateRequirement describes the conditions a crop grows best in.
type ClimateRequirement struct {
	MinTemperature     float64 `json:"min_temperature" yaml:"min_temperature"`
	MaxTemperature     float64 `json:"max_temperature" yaml:"max_temperature"`
	OptimalTemperature float64 `json:"optimal_temperature" yaml:"optimal_temperature"`
	MinRainfall        float64 `json:"min_rainfall" yaml:"min_rainfall"`
	MaxRainfall        float64 `json:"max_rainfall" yaml:"max_rainfall"`
	HumidityMin        float64 `json:"humidity_min" yaml:"humidity_min"`
	HumidityMax        float64 `json:"humidity_max" yaml:"humidity_max"`
	SunlightHours      float64 `json:"sunlight_hours" yaml:"sunlight_hours"`
}

// Crop is a cultivable crop from the reference table.
type Crop struct {
	ID               string             `json:"id" yaml:"id"`
	Name             string             `json:"name" yaml:"name"`
	ScientificName   string             `json:"scientific_name" yaml:"scientific_name"`
	Category         string             `json:"category" yaml:"category"`
	Season           string             `json:"season" yaml:"season"`
	DurationDays     int                `json:"duration_days" yaml:"duration_days"`
	SoilTypes        []string           `json:"soil_types" yaml:"soil_types"`
	WaterRequirement string             `json:"water_requirement" yaml:"water_requirement"`
	Climate          ClimateRequirement `json:"climate" yaml:"climate"`
	MarketDemand     string             `json:"market_demand" yaml:"market_demand"`
	AverageYield     float64            `json:"average_yield" yaml:"average_yield"` // quintal per acre
	Description      string             `json:"description" yaml:"description"`
}
