package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smukkama/weather-monitor/internal/database"
	"github.com/smukkama/weather-monitor/internal/provider"
)

type fakeFetcher struct {
	observations map[string]provider.Observation
	failures     map[string]error
	calls        []string
}

func (f *fakeFetcher) FetchCurrent(_ context.Context, city string) (provider.Observation, error) {
	f.calls = append(f.calls, city)
	if err, ok := f.failures[city]; ok {
		return provider.Observation{}, err
	}
	return f.observations[city], nil
}

type fakeWriter struct {
	readings  []database.Reading
	insertErr error
}

func (w *fakeWriter) Insert(_ context.Context, r *database.Reading) error {
	if w.insertErr != nil {
		return w.insertErr
	}
	w.readings = append(w.readings, *r)
	return nil
}

func TestKelvinToCelsius(t *testing.T) {
	assert.InDelta(t, 0, KelvinToCelsius(273.15), 1e-9)
	assert.InDelta(t, 27, KelvinToCelsius(300.15), 1e-9)

	// Round trip stays within floating rounding.
	for _, c := range []float64{-40, -0.5, 0, 21.7, 48.3} {
		kelvin := c + 273.15
		assert.InDelta(t, c, KelvinToCelsius(kelvin), 1e-9)
	}
}

func TestRunStoresConvertedReadings(t *testing.T) {
	observedAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{observations: map[string]provider.Observation{
		"Delhi": {
			City:             "Delhi",
			TemperatureK:     305.15,
			FeelsLikeK:       308.15,
			Humidity:         40,
			WindSpeed:        2.5,
			WeatherCondition: "Clear",
			ObservedAt:       observedAt,
		},
	}}
	writer := &fakeWriter{}

	ing := NewIngestor([]string{"Delhi"}, fetcher, writer, zap.NewNop())
	stored := ing.Run(context.Background())

	assert.Equal(t, 1, stored)
	require.Len(t, writer.readings, 1)

	r := writer.readings[0]
	assert.Equal(t, "Delhi", r.City)
	assert.InDelta(t, 32.0, r.Temperature, 1e-9)
	assert.InDelta(t, 35.0, r.FeelsLike, 1e-9)
	assert.Equal(t, "Clear", r.WeatherCondition)
	assert.Equal(t, observedAt, r.ObservedAt)
	assert.False(t, r.RecordedAt.IsZero())
}

func TestRunContinuesPastFailedCity(t *testing.T) {
	fetcher := &fakeFetcher{
		observations: map[string]provider.Observation{
			"Mumbai": {City: "Mumbai", TemperatureK: 300, WeatherCondition: "Rain"},
		},
		failures: map[string]error{
			"Delhi": provider.ErrProvider,
		},
	}
	writer := &fakeWriter{}

	ing := NewIngestor([]string{"Delhi", "Mumbai"}, fetcher, writer, zap.NewNop())
	stored := ing.Run(context.Background())

	// Delhi failed but Mumbai was still fetched and stored.
	assert.Equal(t, []string{"Delhi", "Mumbai"}, fetcher.calls)
	assert.Equal(t, 1, stored)
	require.Len(t, writer.readings, 1)
	assert.Equal(t, "Mumbai", writer.readings[0].City)
}

func TestRunContinuesPastStoreFailure(t *testing.T) {
	fetcher := &fakeFetcher{observations: map[string]provider.Observation{
		"Delhi":  {City: "Delhi", TemperatureK: 300, WeatherCondition: "Clear"},
		"Mumbai": {City: "Mumbai", TemperatureK: 301, WeatherCondition: "Rain"},
	}}
	writer := &fakeWriter{insertErr: errors.New("db down")}

	ing := NewIngestor([]string{"Delhi", "Mumbai"}, fetcher, writer, zap.NewNop())
	stored := ing.Run(context.Background())

	assert.Equal(t, 0, stored)
	assert.Equal(t, []string{"Delhi", "Mumbai"}, fetcher.calls)
}
