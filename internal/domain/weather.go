package domain

import "time"

// WeatherSnapshot is the current conditions at a location, optionally with a
// short forecast. Snapshots are built fresh per fetch and never mutated.
type WeatherSnapshot struct {
	ID            string        `json:"id"`
	Location      Location      `json:"location"`
	Timestamp     time.Time     `json:"timestamp"`
	Temperature   float64       `json:"temperature"`
	Humidity      float64       `json:"humidity"`
	Rainfall      float64       `json:"rainfall"`
	WindSpeed     float64       `json:"wind_speed"`
	WindDirection float64       `json:"wind_direction"`
	Pressure      float64       `json:"pressure"`
	UVIndex       float64       `json:"uv_index"`
	Visibility    float64       `json:"visibility"`
	Forecast      []ForecastDay `json:"forecast"`
}

// TemperatureRange holds the min/max/average temperature of a forecast entry.
type TemperatureRange struct {
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Average float64 `json:"average" yaml:"average"`
}

// ForecastDay is a single forecast entry.
type ForecastDay struct {
	Date        time.Time        `json:"date" yaml:"-"`
	Temperature TemperatureRange `json:"temperature" yaml:"temperature"`
	Humidity    float64          `json:"humidity" yaml:"humidity"`
	Rainfall    float64          `json:"rainfall" yaml:"rainfall"`
	WindSpeed   float64          `json:"wind_speed" yaml:"wind_speed"`
	Description string           `json:"description" yaml:"description"`
	Icon        string           `json:"icon" yaml:"icon"`
	Alerts      []WeatherAlert   `json:"alerts" yaml:"-"`
}

// WeatherAlert is an advisory about adverse weather for an area.
type WeatherAlert struct {
	ID              string    `json:"id" yaml:"id"`
	Type            string    `json:"type" yaml:"type"` // heavy_rain, drought, heatwave, frost, hail, cyclone, fog
	Severity        string    `json:"severity" yaml:"severity"`
	Message         string    `json:"message" yaml:"message"`
	StartTime       time.Time `json:"start_time" yaml:"-"`
	EndTime         time.Time `json:"end_time" yaml:"-"`
	AffectedAreas   []string  `json:"affected_areas" yaml:"affected_areas"`
	Recommendations []string  `json:"recommendations" yaml:"recommendations"`
}
