package aggregation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/smukkama/weather-monitor/internal/database"
)

type fakeReadingSource struct {
	byCity map[string][]database.Reading
	from   time.Time
	to     time.Time
}

func (f *fakeReadingSource) ForCityBetween(_ context.Context, city string, from, to time.Time) ([]database.Reading, error) {
	f.from, f.to = from, to
	return f.byCity[city], nil
}

type fakeSummaryWriter struct {
	summaries []database.DailySummary
}

func (f *fakeSummaryWriter) Insert(_ context.Context, sum *database.DailySummary) error {
	f.summaries = append(f.summaries, *sum)
	return nil
}

func readingsWithTemps(temps ...float64) []database.Reading {
	readings := make([]database.Reading, len(temps))
	for i, t := range temps {
		readings[i] = database.Reading{Temperature: t, WeatherCondition: "Clear", Humidity: 50, WindSpeed: 2}
	}
	return readings
}

func TestRunComputesAggregates(t *testing.T) {
	source := &fakeReadingSource{byCity: map[string][]database.Reading{
		"Delhi": {
			{Temperature: 30, Humidity: 40, WindSpeed: 1, WeatherCondition: "Clear"},
			{Temperature: 36, Humidity: 60, WindSpeed: 3, WeatherCondition: "Rain"},
			{Temperature: 33, Humidity: 50, WindSpeed: 2, WeatherCondition: "Rain"},
		},
	}}
	writer := &fakeSummaryWriter{}

	agg := NewDailyAggregator([]string{"Delhi"}, source, writer, zap.NewNop())
	now := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	written := agg.Run(context.Background(), now)

	assert.Equal(t, 1, written)
	require.Len(t, writer.summaries, 1)

	sum := writer.summaries[0]
	assert.Equal(t, "Delhi", sum.City)
	assert.Equal(t, "2024-01-15", sum.Date)
	assert.InDelta(t, 33.0, sum.AvgTemp, 1e-9)
	assert.InDelta(t, 36.0, sum.MaxTemp, 1e-9)
	assert.InDelta(t, 30.0, sum.MinTemp, 1e-9)
	assert.InDelta(t, 50.0, sum.AvgHumidity, 1e-9)
	assert.InDelta(t, 2.0, sum.AvgWindSpeed, 1e-9)
	assert.Equal(t, "Rain", sum.DominantCondition)
	assert.False(t, sum.CreatedAt.IsZero())

	// The aggregation window is the local calendar day.
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), source.from)
	assert.True(t, source.to.Before(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)))
}

func TestRunSkipsCityWithNoReadings(t *testing.T) {
	source := &fakeReadingSource{byCity: map[string][]database.Reading{
		"Mumbai": readingsWithTemps(25),
	}}
	writer := &fakeSummaryWriter{}

	agg := NewDailyAggregator([]string{"Delhi", "Mumbai"}, source, writer, zap.NewNop())
	written := agg.Run(context.Background(), time.Now())

	assert.Equal(t, 1, written)
	require.Len(t, writer.summaries, 1)
	assert.Equal(t, "Mumbai", writer.summaries[0].City)
}

func TestSummarizeSingleReading(t *testing.T) {
	sum := summarize("Delhi", "2024-01-15", readingsWithTemps(21.5))

	assert.InDelta(t, 21.5, sum.AvgTemp, 1e-9)
	assert.InDelta(t, 21.5, sum.MaxTemp, 1e-9)
	assert.InDelta(t, 21.5, sum.MinTemp, 1e-9)
	assert.Equal(t, "Clear", sum.DominantCondition)
}

func TestDominantConditionFirstSeenTieBreak(t *testing.T) {
	readings := []database.Reading{
		{WeatherCondition: "Rain"},
		{WeatherCondition: "Clear"},
		{WeatherCondition: "Rain"},
		{WeatherCondition: "Clear"},
	}

	// Rain and Clear are tied at 2; Rain was recorded first.
	assert.Equal(t, "Rain", dominantCondition(readings))

	reversed := []database.Reading{
		{WeatherCondition: "Clear"},
		{WeatherCondition: "Rain"},
		{WeatherCondition: "Clear"},
		{WeatherCondition: "Rain"},
	}
	assert.Equal(t, "Clear", dominantCondition(reversed))
}

func TestDominantConditionMajorityWins(t *testing.T) {
	readings := []database.Reading{
		{WeatherCondition: "Clear"},
		{WeatherCondition: "Rain"},
		{WeatherCondition: "Rain"},
	}
	assert.Equal(t, "Rain", dominantCondition(readings))
}
