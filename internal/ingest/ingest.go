package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/smukkama/weather-monitor/internal/database"
	"github.com/smukkama/weather-monitor/internal/observability"
	"github.com/smukkama/weather-monitor/internal/provider"
)

// KelvinToCelsius converts a provider temperature to storage units.
func KelvinToCelsius(kelvin float64) float64 {
	return kelvin - 273.15
}

// Fetcher is the provider-client contract the ingestor needs.
type Fetcher interface {
	FetchCurrent(ctx context.Context, city string) (provider.Observation, error)
}

// ReadingWriter is the store contract the ingestor needs.
type ReadingWriter interface {
	Insert(ctx context.Context, r *database.Reading) error
}

// Ingestor fetches current conditions for every configured city and persists
// one reading per successful fetch. A single city's failure never aborts the
// cycle; the city is logged and skipped.
type Ingestor struct {
	cities   []string
	client   Fetcher
	readings ReadingWriter
	logger   *zap.Logger
}

// NewIngestor creates an ingestor over a fixed city list.
func NewIngestor(cities []string, client Fetcher, readings ReadingWriter, logger *zap.Logger) *Ingestor {
	return &Ingestor{
		cities:   cities,
		client:   client,
		readings: readings,
		logger:   logger,
	}
}

// Run fetches and stores readings for all cities sequentially. Returns the
// number of readings persisted.
func (i *Ingestor) Run(ctx context.Context) int {
	stored := 0
	for _, city := range i.cities {
		obs, err := i.client.FetchCurrent(ctx, city)
		if err != nil {
			observability.ProviderCallsTotal.WithLabelValues("error").Inc()
			i.logger.Error("fetch failed, skipping city",
				zap.String("city", city), zap.Error(err))
			continue
		}
		observability.ProviderCallsTotal.WithLabelValues("success").Inc()

		reading := &database.Reading{
			City:             city,
			Temperature:      KelvinToCelsius(obs.TemperatureK),
			FeelsLike:        KelvinToCelsius(obs.FeelsLikeK),
			WeatherCondition: obs.WeatherCondition,
			Humidity:         obs.Humidity,
			WindSpeed:        obs.WindSpeed,
			ObservedAt:       obs.ObservedAt,
			RecordedAt:       time.Now(),
		}

		if err := i.readings.Insert(ctx, reading); err != nil {
			i.logger.Error("failed to store reading",
				zap.String("city", city), zap.Error(err))
			continue
		}

		observability.ReadingsStoredTotal.Inc()
		i.logger.Info("reading stored",
			zap.String("city", city),
			zap.Float64("temperature", reading.Temperature),
			zap.String("condition", reading.WeatherCondition))
		stored++
	}

	return stored
}
