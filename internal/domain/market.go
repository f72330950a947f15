package domain

import (
	"math"
	"time"
)

// Trend directions.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// Quote provenance.
const (
	SourceGovernment   = "government"
	SourcePrivate      = "private"
	SourceUserReported = "user_reported"
)

// Market types.
const (
	MarketMandi     = "mandi"
	MarketWholesale = "wholesale"
	MarketRetail    = "retail"
	MarketOnline    = "online"
)

// UnitQuintal is the pricing unit for all quotes.
const UnitQuintal = "quintal"

// PriceTrend describes recent movement of a price.
type PriceTrend struct {
	Direction  string  `json:"direction"`
	Percentage float64 `json:"percentage"`
	Period     string  `json:"period"` // daily, weekly, monthly
}

// MarketPriceQuote is a single crop price observed at a market.
type MarketPriceQuote struct {
	ID         string     `json:"id"`
	Crop       string     `json:"crop"`
	Variety    string     `json:"variety,omitempty"`
	Price      float64    `json:"price"`
	Unit       string     `json:"unit"`
	Market     string     `json:"market"`
	MarketType string     `json:"market_type"`
	Location   Location   `json:"location"`
	Date       time.Time  `json:"date"`
	Trend      PriceTrend `json:"trend"`
	Volume     float64    `json:"volume"`
	Quality    string     `json:"quality"` // Premium, Grade A, Grade B, Grade C
	Source     string     `json:"source"`
	Verified   bool       `json:"verified"`
}

// DeriveTrend estimates a trend from the modal price's position inside the
// min/max window of a reporting period.
func DeriveTrend(minPrice, maxPrice, modalPrice float64) PriceTrend {
	spread := maxPrice - minPrice
	position := modalPrice - minPrice

	pct := 50.0
	if spread > 0 {
		pct = position / spread * 100
	}

	direction := TrendStable
	switch {
	case pct > 60:
		direction = TrendUp
	case pct < 40:
		direction = TrendDown
	}

	return PriceTrend{
		Direction:  direction,
		Percentage: math.Abs(pct - 50),
		Period:     "daily",
	}
}
