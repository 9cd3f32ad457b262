package alerting

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/smukkama/weather-monitor/internal/database"
	"github.com/smukkama/weather-monitor/internal/observability"
	"github.com/smukkama/weather-monitor/internal/protocol"
)

// breachesBeforeAlert is the hysteresis width: a rule must be breached this
// many consecutive cycles before an alert fires. A single-sample spike in one
// 5-minute cycle never alerts; the violation must hold across two cycles.
const breachesBeforeAlert = 2

// ThresholdSource is the store contract the evaluator needs. Breach counters
// are only ever changed through the atomic increment/reset operations.
type ThresholdSource interface {
	List(ctx context.Context) ([]database.Threshold, error)
	IncrementBreach(ctx context.Context, id string) (int, error)
	ResetBreach(ctx context.Context, id string) error
}

// LatestReadingSource is the reading-store contract the evaluator needs.
type LatestReadingSource interface {
	LatestForCity(ctx context.Context, city string) (*database.Reading, error)
}

// AlertPublisher delivers an alert message toward the notification service.
type AlertPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// Evaluator compares each threshold rule against its city's latest reading
// once per cycle. Two consecutive breaching cycles fire one alert and zero
// the counter; any non-breaching cycle zeroes the counter. There is no
// persistent alerting state: firing and resetting happen within one pass.
type Evaluator struct {
	thresholds ThresholdSource
	readings   LatestReadingSource
	publisher  AlertPublisher
	logger     *zap.Logger
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds ThresholdSource, readings LatestReadingSource, publisher AlertPublisher, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
		readings:   readings,
		publisher:  publisher,
		logger:     logger,
	}
}

// Run evaluates every threshold rule. Failures are isolated per rule: one
// rule's error never aborts evaluation of the rest. Returns the number of
// alerts fired.
func (e *Evaluator) Run(ctx context.Context) int {
	thresholds, err := e.thresholds.List(ctx)
	if err != nil {
		e.logger.Error("failed to list thresholds", zap.Error(err))
		return 0
	}

	fired := 0
	for _, t := range thresholds {
		if e.evaluate(ctx, &t) {
			fired++
		}
	}
	return fired
}

// evaluate applies the transition rule for one threshold. Reports whether an
// alert fired.
func (e *Evaluator) evaluate(ctx context.Context, t *database.Threshold) bool {
	latest, err := e.readings.LatestForCity(ctx, t.City)
	if errors.Is(err, database.ErrNotFound) {
		// No readings yet for this city; leave the rule untouched.
		return false
	}
	if err != nil {
		e.logger.Error("failed to load latest reading",
			zap.String("city", t.City), zap.String("threshold", t.ID), zap.Error(err))
		return false
	}

	if latest.Temperature <= t.TemperatureThreshold {
		if err := e.thresholds.ResetBreach(ctx, t.ID); err != nil {
			e.logger.Error("failed to reset breach count",
				zap.String("threshold", t.ID), zap.Error(err))
		}
		return false
	}

	count, err := e.thresholds.IncrementBreach(ctx, t.ID)
	if err != nil {
		e.logger.Error("failed to increment breach count",
			zap.String("threshold", t.ID), zap.Error(err))
		return false
	}

	e.logger.Debug("threshold breached",
		zap.String("city", t.City),
		zap.String("threshold", t.ID),
		zap.Float64("temperature", latest.Temperature),
		zap.Float64("limit", t.TemperatureThreshold),
		zap.Int("breachCount", count))

	if count < breachesBeforeAlert {
		return false
	}

	e.fireAlert(ctx, t, latest.Temperature)

	// The alert was attempted; the counter resets even when delivery failed,
	// so the next alert again requires two fresh consecutive breaches.
	if err := e.thresholds.ResetBreach(ctx, t.ID); err != nil {
		e.logger.Error("failed to reset breach count after alert",
			zap.String("threshold", t.ID), zap.Error(err))
	}
	return true
}

func (e *Evaluator) fireAlert(ctx context.Context, t *database.Threshold, temperature float64) {
	e.logger.Warn("temperature threshold alert",
		zap.String("city", t.City),
		zap.Float64("temperature", temperature),
		zap.Float64("limit", t.TemperatureThreshold),
		zap.String("email", t.Email))

	msg := &protocol.AlertMessage{
		City:        t.City,
		Temperature: temperature,
		Threshold:   t.TemperatureThreshold,
		Email:       t.Email,
		ThresholdID: t.ID,
		TriggeredAt: time.Now(),
	}

	data, err := protocol.EncodeAlertMessage(msg)
	if err != nil {
		observability.AlertsTotal.WithLabelValues("failed").Inc()
		e.logger.Error("failed to encode alert", zap.String("threshold", t.ID), zap.Error(err))
		return
	}

	if err := e.publisher.Publish(ctx, t.City, data); err != nil {
		observability.AlertsTotal.WithLabelValues("failed").Inc()
		e.logger.Error("failed to publish alert",
			zap.String("city", t.City), zap.String("threshold", t.ID), zap.Error(err))
		return
	}

	observability.AlertsTotal.WithLabelValues("published").Inc()
}
