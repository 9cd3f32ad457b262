package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/weather-monitor/internal/database"
)

type fakeSummarySource struct {
	latest  *database.DailySummary
	byDate  []database.DailySummary
	created []database.DailySummary

	sinceSeen time.Time
	citySeen  string
}

func (f *fakeSummarySource) LatestForCityDate(_ context.Context, city, date string) (*database.DailySummary, error) {
	if f.latest == nil {
		return nil, database.ErrNotFound
	}
	return f.latest, nil
}

func (f *fakeSummarySource) ForCityDate(_ context.Context, city, date string) ([]database.DailySummary, error) {
	return f.byDate, nil
}

func (f *fakeSummarySource) CreatedSince(_ context.Context, since time.Time, city string) ([]database.DailySummary, error) {
	f.sinceSeen = since
	f.citySeen = city
	return f.created, nil
}

func TestDailySummaryRequiresCity(t *testing.T) {
	svc := NewService(&fakeSummarySource{})

	_, err := svc.DailySummary(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDailySummaryNotFound(t *testing.T) {
	svc := NewService(&fakeSummarySource{})

	_, err := svc.DailySummary(context.Background(), "Delhi")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestHistoryByDateValidation(t *testing.T) {
	svc := NewService(&fakeSummarySource{})

	_, err := svc.HistoryByDate(context.Background(), "", "2024-01-01")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.HistoryByDate(context.Background(), "Delhi", "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.HistoryByDate(context.Background(), "Delhi", "01/01/2024")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHistoryByDateNotFoundWhenEmpty(t *testing.T) {
	svc := NewService(&fakeSummarySource{})

	_, err := svc.HistoryByDate(context.Background(), "Delhi", "2024-01-01")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestHistoryByDateReturnsRows(t *testing.T) {
	source := &fakeSummarySource{byDate: []database.DailySummary{
		{City: "Delhi", Date: "2024-01-01", AvgTemp: 21},
		{City: "Delhi", Date: "2024-01-01", AvgTemp: 20},
	}}
	svc := NewService(source)

	rows, err := svc.HistoryByDate(context.Background(), "Delhi", "2024-01-01")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestLatestHistoryProjection(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	t3 := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)

	source := &fakeSummarySource{created: []database.DailySummary{
		{City: "A", Date: "2024-01-01", AvgTemp: 10, CreatedAt: t2},
		{City: "A", Date: "2024-01-01", AvgTemp: 9, CreatedAt: t1},
		{City: "B", Date: "2024-01-01", AvgTemp: 5, CreatedAt: t3},
	}}
	svc := NewService(source)

	rows, err := svc.LatestHistory(context.Background(), 7, "")
	require.NoError(t, err)

	// Exactly one row per (city, date): A's t2 row and B's t3 row.
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].City)
	assert.Equal(t, t2, rows[0].CreatedAt)
	assert.InDelta(t, 10.0, rows[0].AvgTemp, 1e-9)
	assert.Equal(t, "B", rows[1].City)
	assert.Equal(t, t3, rows[1].CreatedAt)
}

func TestLatestHistoryUnsortedInputStillReduces(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	source := &fakeSummarySource{created: []database.DailySummary{
		{City: "A", Date: "2024-01-01", CreatedAt: t1},
		{City: "A", Date: "2024-01-01", CreatedAt: t2},
	}}
	svc := NewService(source)

	rows, err := svc.LatestHistory(context.Background(), 1, "A")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, t2, rows[0].CreatedAt)
}

func TestLatestHistoryEmptyWindowIsEmptyNotError(t *testing.T) {
	svc := NewService(&fakeSummarySource{})

	rows, err := svc.LatestHistory(context.Background(), 7, "")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLatestHistoryDefaultsAndCityFilter(t *testing.T) {
	source := &fakeSummarySource{}
	svc := NewService(source)

	before := time.Now().AddDate(0, 0, -1)
	_, err := svc.LatestHistory(context.Background(), 0, "Delhi")
	require.NoError(t, err)

	// days <= 0 falls back to a one-day window.
	assert.Equal(t, "Delhi", source.citySeen)
	assert.WithinDuration(t, before, source.sinceSeen, 5*time.Second)
}
