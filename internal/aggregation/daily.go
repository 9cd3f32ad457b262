package aggregation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/smukkama/weather-monitor/internal/database"
	"github.com/smukkama/weather-monitor/internal/observability"
)

// ReadingSource is the store contract the aggregator needs.
type ReadingSource interface {
	ForCityBetween(ctx context.Context, city string, from, to time.Time) ([]database.Reading, error)
}

// SummaryWriter is the store contract the aggregator needs.
type SummaryWriter interface {
	Insert(ctx context.Context, sum *database.DailySummary) error
}

// DailyAggregator computes one daily summary per city from that day's
// readings. It runs once per ingestion cycle, after all cities were fetched;
// each run appends a fresh summary row, so a (city, date) pair accumulates
// one row per cycle and readers pick the newest.
type DailyAggregator struct {
	cities    []string
	readings  ReadingSource
	summaries SummaryWriter
	logger    *zap.Logger
}

// NewDailyAggregator creates a new daily aggregator
func NewDailyAggregator(cities []string, readings ReadingSource, summaries SummaryWriter, logger *zap.Logger) *DailyAggregator {
	return &DailyAggregator{
		cities:    cities,
		readings:  readings,
		summaries: summaries,
		logger:    logger,
	}
}

// Run aggregates today's readings for every city. A city with no readings
// today is logged and skipped: no summary row is written for it. Returns the
// number of summaries written.
func (d *DailyAggregator) Run(ctx context.Context, now time.Time) int {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)
	date := now.Format("2006-01-02")

	written := 0
	for _, city := range d.cities {
		readings, err := d.readings.ForCityBetween(ctx, city, dayStart, dayEnd)
		if err != nil {
			d.logger.Error("failed to load readings for aggregation",
				zap.String("city", city), zap.Error(err))
			continue
		}
		if len(readings) == 0 {
			d.logger.Warn("no readings for city today, skipping summary",
				zap.String("city", city), zap.String("date", date))
			continue
		}

		summary := summarize(city, date, readings)
		summary.CreatedAt = time.Now()

		if err := d.summaries.Insert(ctx, summary); err != nil {
			d.logger.Error("failed to store daily summary",
				zap.String("city", city), zap.Error(err))
			continue
		}

		observability.SummariesWrittenTotal.Inc()
		d.logger.Info("daily summary written",
			zap.String("city", city),
			zap.String("date", date),
			zap.Float64("avgTemp", summary.AvgTemp),
			zap.String("dominantCondition", summary.DominantCondition),
			zap.Int("readings", len(readings)))
		written++
	}

	return written
}

// summarize computes a day's aggregate from a non-empty reading set. Means
// are simple arithmetic means, not time-weighted.
func summarize(city, date string, readings []database.Reading) *database.DailySummary {
	first := readings[0]
	sum := &database.DailySummary{
		City:    city,
		Date:    date,
		MaxTemp: first.Temperature,
		MinTemp: first.Temperature,
	}

	var tempTotal, humidityTotal, windTotal float64
	for _, r := range readings {
		tempTotal += r.Temperature
		humidityTotal += r.Humidity
		windTotal += r.WindSpeed

		if r.Temperature > sum.MaxTemp {
			sum.MaxTemp = r.Temperature
		}
		if r.Temperature < sum.MinTemp {
			sum.MinTemp = r.Temperature
		}
	}

	n := float64(len(readings))
	sum.AvgTemp = tempTotal / n
	sum.AvgHumidity = humidityTotal / n
	sum.AvgWindSpeed = windTotal / n
	sum.DominantCondition = dominantCondition(readings)

	return sum
}

// dominantCondition returns the most frequent weather condition. Ties go to
// the condition recorded first among the tied set; this first-occurrence
// tie-break is a documented policy, not meaningful semantics.
func dominantCondition(readings []database.Reading) string {
	counts := make(map[string]int, len(readings))
	var order []string

	for _, r := range readings {
		if _, seen := counts[r.WeatherCondition]; !seen {
			order = append(order, r.WeatherCondition)
		}
		counts[r.WeatherCondition]++
	}

	best := order[0]
	for _, cond := range order[1:] {
		if counts[cond] > counts[best] {
			best = cond
		}
	}
	return best
}
