package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// sweepInterval is how often expired readings are physically deleted. Queries
// apply the retention cutoff themselves, so rows awaiting a sweep are already
// invisible to callers.
const sweepInterval = time.Hour

// ReadingStore persists raw weather readings and enforces retention-based
// expiry. A reading older than the retention window is never returned by any
// query and is eventually deleted by the sweeper.
type ReadingStore struct {
	db        *DB
	retention time.Duration
	logger    *zap.Logger
}

// NewReadingStore creates a reading store with the given retention window.
func NewReadingStore(db *DB, retention time.Duration, logger *zap.Logger) *ReadingStore {
	return &ReadingStore{
		db:        db,
		retention: retention,
		logger:    logger,
	}
}

// cutoff returns the oldest RecordedAt still inside the retention window.
func (s *ReadingStore) cutoff(now time.Time) time.Time {
	return now.Add(-s.retention)
}

// Insert stores a new reading.
func (s *ReadingStore) Insert(ctx context.Context, r *Reading) error {
	query := `
		INSERT INTO readings (
			city, temperature, feels_like, weather_condition,
			humidity, wind_speed, observed_at, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := s.db.QueryRowContext(
		ctx,
		query,
		r.City,
		r.Temperature,
		r.FeelsLike,
		r.WeatherCondition,
		r.Humidity,
		r.WindSpeed,
		r.ObservedAt,
		r.RecordedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

// LatestForCity returns the newest reading for a city by observation time.
// Returns ErrNotFound when the city has no unexpired readings.
func (s *ReadingStore) LatestForCity(ctx context.Context, city string) (*Reading, error) {
	query := `
		SELECT id, city, temperature, feels_like, weather_condition,
		       humidity, wind_speed, observed_at, recorded_at
		FROM readings
		WHERE city = $1 AND recorded_at >= $2
		ORDER BY observed_at DESC
		LIMIT 1
	`

	var r Reading
	err := s.db.QueryRowContext(ctx, query, city, s.cutoff(time.Now())).Scan(
		&r.ID,
		&r.City,
		&r.Temperature,
		&r.FeelsLike,
		&r.WeatherCondition,
		&r.Humidity,
		&r.WindSpeed,
		&r.ObservedAt,
		&r.RecordedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest reading: %w", err)
	}

	return &r, nil
}

// ForCityBetween returns a city's readings with ObservedAt in [from, to],
// oldest first. An empty result is returned as an empty slice, not an error.
func (s *ReadingStore) ForCityBetween(ctx context.Context, city string, from, to time.Time) ([]Reading, error) {
	query := `
		SELECT id, city, temperature, feels_like, weather_condition,
		       humidity, wind_speed, observed_at, recorded_at
		FROM readings
		WHERE city = $1 AND observed_at >= $2 AND observed_at <= $3 AND recorded_at >= $4
		ORDER BY observed_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, city, from, to, s.cutoff(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(
			&r.ID,
			&r.City,
			&r.Temperature,
			&r.FeelsLike,
			&r.WeatherCondition,
			&r.Humidity,
			&r.WindSpeed,
			&r.ObservedAt,
			&r.RecordedAt,
		); err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}

	return readings, rows.Err()
}

// Sweep deletes readings whose RecordedAt fell out of the retention window.
func (s *ReadingStore) Sweep(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM readings WHERE recorded_at < $1`, s.cutoff(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("failed to sweep expired readings: %w", err)
	}

	deleted, _ := result.RowsAffected()
	return deleted, nil
}

// StartSweeper runs periodic sweeps until ctx is cancelled. The sweeper is
// owned by the store; the pipeline never deletes readings itself.
func (s *ReadingStore) StartSweeper(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.Sweep(ctx)
				if err != nil {
					s.logger.Error("reading sweep failed", zap.Error(err))
					continue
				}
				if deleted > 0 {
					s.logger.Info("expired readings deleted", zap.Int64("count", deleted))
				}
			}
		}
	}()
}
