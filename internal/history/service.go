package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smukkama/weather-monitor/internal/database"
)

// ErrValidation is returned for missing or malformed query input, before any
// store work happens.
var ErrValidation = errors.New("invalid input")

// SummarySource is the store contract the history service needs.
type SummarySource interface {
	LatestForCityDate(ctx context.Context, city, date string) (*database.DailySummary, error)
	ForCityDate(ctx context.Context, city, date string) ([]database.DailySummary, error)
	CreatedSince(ctx context.Context, since time.Time, city string) ([]database.DailySummary, error)
}

// Service answers read-only queries over the daily summary store. Queries may
// run concurrently with an in-flight ingestion cycle and simply may or may
// not see that cycle's writes.
type Service struct {
	summaries SummarySource
}

// NewService creates a history query service.
func NewService(summaries SummarySource) *Service {
	return &Service{summaries: summaries}
}

// DailySummary returns the most recent summary for a city for today.
// Returns database.ErrNotFound when no summary exists yet.
func (s *Service) DailySummary(ctx context.Context, city string) (*database.DailySummary, error) {
	if city == "" {
		return nil, fmt.Errorf("%w: city is required", ErrValidation)
	}

	today := time.Now().Format("2006-01-02")
	return s.summaries.LatestForCityDate(ctx, city, today)
}

// HistoryByDate returns every summary row for a city on one date, newest
// created first. Returns database.ErrNotFound when there are none.
func (s *Service) HistoryByDate(ctx context.Context, city, date string) ([]database.DailySummary, error) {
	if city == "" {
		return nil, fmt.Errorf("%w: city is required", ErrValidation)
	}
	if date == "" {
		return nil, fmt.Errorf("%w: date is required", ErrValidation)
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}

	rows, err := s.summaries.ForCityDate(ctx, city, date)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, database.ErrNotFound
	}
	return rows, nil
}

// LatestHistory returns summaries created within the last `days` days,
// optionally filtered to one city, reduced to the newest row per
// (city, date) pair. An empty window yields an empty slice, never an error.
func (s *Service) LatestHistory(ctx context.Context, days int, city string) ([]database.DailySummary, error) {
	if days <= 0 {
		days = 1
	}

	since := time.Now().AddDate(0, 0, -days)
	rows, err := s.summaries.CreatedSince(ctx, since, city)
	if err != nil {
		return nil, err
	}

	return latestPerCityDate(rows), nil
}

// latestPerCityDate reduces summary rows to the greatest-CreatedAt row per
// (city, date) group. Input rows are expected ordered by city, date, then
// CreatedAt descending (the store's contract), so the first row of each group
// wins; ordering is re-checked here so an unsorted input still reduces
// correctly.
func latestPerCityDate(rows []database.DailySummary) []database.DailySummary {
	type groupKey struct {
		city string
		date string
	}

	index := make(map[groupKey]int, len(rows))
	result := make([]database.DailySummary, 0, len(rows))

	for _, row := range rows {
		key := groupKey{city: row.City, date: row.Date}
		if i, seen := index[key]; seen {
			if row.CreatedAt.After(result[i].CreatedAt) {
				result[i] = row
			}
			continue
		}
		index[key] = len(result)
		result = append(result, row)
	}

	return result
}
