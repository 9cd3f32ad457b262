package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SummaryStore persists daily summaries. Summaries are append-only; a new row
// is written each cycle and readers pick the newest by CreatedAt.
type SummaryStore struct {
	db *DB
}

// NewSummaryStore creates a summary store.
func NewSummaryStore(db *DB) *SummaryStore {
	return &SummaryStore{db: db}
}

// Insert appends a new daily summary row.
func (s *SummaryStore) Insert(ctx context.Context, sum *DailySummary) error {
	query := `
		INSERT INTO daily_summaries (
			city, date, avg_temp, max_temp, min_temp,
			dominant_condition, avg_humidity, avg_wind_speed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := s.db.QueryRowContext(
		ctx,
		query,
		sum.City,
		sum.Date,
		sum.AvgTemp,
		sum.MaxTemp,
		sum.MinTemp,
		sum.DominantCondition,
		sum.AvgHumidity,
		sum.AvgWindSpeed,
		sum.CreatedAt,
	).Scan(&sum.ID)
	if err != nil {
		return fmt.Errorf("failed to insert daily summary: %w", err)
	}
	return nil
}

// LatestForCityDate returns the newest summary for a (city, date) pair.
// Returns ErrNotFound when no summary exists yet.
func (s *SummaryStore) LatestForCityDate(ctx context.Context, city, date string) (*DailySummary, error) {
	query := summarySelect + `
		WHERE city = $1 AND date = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var sum DailySummary
	err := scanSummary(s.db.QueryRowContext(ctx, query, city, date), &sum)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query daily summary: %w", err)
	}

	return &sum, nil
}

// ForCityDate returns every summary row for a (city, date) pair, newest
// created first.
func (s *SummaryStore) ForCityDate(ctx context.Context, city, date string) ([]DailySummary, error) {
	query := summarySelect + `
		WHERE city = $1 AND date = $2
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, city, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	return collectSummaries(rows)
}

// CreatedSince returns summary rows with CreatedAt at or after the given
// instant, optionally filtered to one city. Rows come back ordered by city,
// date, then newest created first, so callers can reduce to latest-per-group
// with a single pass.
func (s *SummaryStore) CreatedSince(ctx context.Context, since time.Time, city string) ([]DailySummary, error) {
	query := summarySelect + `
		WHERE created_at >= $1 AND ($2 = '' OR city = $2)
		ORDER BY city ASC, date ASC, created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, since, city)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	return collectSummaries(rows)
}

const summarySelect = `
		SELECT id, city, date, avg_temp, max_temp, min_temp,
		       dominant_condition, avg_humidity, avg_wind_speed, created_at
		FROM daily_summaries`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row rowScanner, sum *DailySummary) error {
	return row.Scan(
		&sum.ID,
		&sum.City,
		&sum.Date,
		&sum.AvgTemp,
		&sum.MaxTemp,
		&sum.MinTemp,
		&sum.DominantCondition,
		&sum.AvgHumidity,
		&sum.AvgWindSpeed,
		&sum.CreatedAt,
	)
}

func collectSummaries(rows *sql.Rows) ([]DailySummary, error) {
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var sum DailySummary
		if err := scanSummary(rows, &sum); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}
