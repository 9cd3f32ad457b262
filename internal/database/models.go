package database

import (
	"time"
)

// Reading is one raw weather observation for one city. Readings are written
// only by the ingestion pipeline and are immutable once stored. Temperatures
// are always Celsius regardless of the provider's source unit.
type Reading struct {
	ID               int64     `json:"id"`
	City             string    `json:"city"`
	Temperature      float64   `json:"temperature"`
	FeelsLike        float64   `json:"feelsLike"`
	WeatherCondition string    `json:"weatherCondition"`
	Humidity         float64   `json:"humidity"`
	WindSpeed        float64   `json:"windSpeed"`
	// ObservedAt is the timestamp of the underlying measurement.
	ObservedAt time.Time `json:"observedAt"`
	// RecordedAt is the ingestion timestamp; it governs retention expiry.
	RecordedAt time.Time `json:"recordedAt"`
}

// DailySummary is a derived aggregate of one city's readings for one calendar
// day. Summaries are append-only: each cycle writes a fresh row, so several
// rows may exist per (city, date) and consumers want the newest CreatedAt.
type DailySummary struct {
	ID                int64     `json:"id"`
	City              string    `json:"city"`
	Date              string    `json:"date"` // YYYY-MM-DD
	AvgTemp           float64   `json:"avgTemp"`
	MaxTemp           float64   `json:"maxTemp"`
	MinTemp           float64   `json:"minTemp"`
	DominantCondition string    `json:"dominantCondition"`
	AvgHumidity       float64   `json:"avgHumidity"`
	AvgWindSpeed      float64   `json:"avgWindSpeed"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Threshold is a user-defined alert rule. BreachCount is mutated only by the
// evaluator, via atomic SQL updates; management writes never touch it.
type Threshold struct {
	ID                   string    `json:"id"`
	City                 string    `json:"city"`
	TemperatureThreshold float64   `json:"temperatureThreshold"`
	Email                string    `json:"email"`
	// WeatherCondition is an optional filter accepted on create/update. The
	// evaluator does not consult it; see DESIGN.md.
	WeatherCondition *string   `json:"weatherCondition,omitempty"`
	BreachCount      int       `json:"breachCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
