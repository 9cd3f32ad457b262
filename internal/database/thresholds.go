package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ThresholdStore manages alert rules. Rule fields are written by the
// management path; BreachCount is written only through IncrementBreach and
// ResetBreach, which are atomic updates so an in-flight evaluation never
// races a concurrent rule edit.
type ThresholdStore struct {
	db *DB
}

// NewThresholdStore creates a threshold store.
func NewThresholdStore(db *DB) *ThresholdStore {
	return &ThresholdStore{db: db}
}

// Create inserts a new threshold. A duplicate (city, temperature, email)
// combination returns ErrConflict.
func (s *ThresholdStore) Create(ctx context.Context, t *Threshold) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.BreachCount = 0

	query := `
		INSERT INTO thresholds (
			id, city, temperature_threshold, email, weather_condition,
			breach_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, 0, $6, $7)
	`

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.City, t.TemperatureThreshold, t.Email, t.WeatherCondition,
		t.CreatedAt, t.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("threshold for city %q, temperature %v, email %q: %w",
			t.City, t.TemperatureThreshold, t.Email, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert threshold: %w", err)
	}
	return nil
}

// List returns all thresholds ordered by city.
func (s *ThresholdStore) List(ctx context.Context) ([]Threshold, error) {
	query := thresholdSelect + ` ORDER BY city ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query thresholds: %w", err)
	}
	defer rows.Close()

	var thresholds []Threshold
	for rows.Next() {
		var t Threshold
		if err := scanThreshold(rows, &t); err != nil {
			return nil, err
		}
		thresholds = append(thresholds, t)
	}

	return thresholds, rows.Err()
}

// Get returns one threshold by ID.
func (s *ThresholdStore) Get(ctx context.Context, id string) (*Threshold, error) {
	query := thresholdSelect + ` WHERE id = $1`

	var t Threshold
	err := scanThreshold(s.db.QueryRowContext(ctx, query, id), &t)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query threshold: %w", err)
	}
	return &t, nil
}

// Update replaces a threshold's rule fields. BreachCount is left untouched.
// Returns ErrNotFound when no threshold has the given ID, ErrConflict when
// the new field combination collides with another rule.
func (s *ThresholdStore) Update(ctx context.Context, id string, city string, temperatureThreshold float64, email string, weatherCondition *string) (*Threshold, error) {
	query := `
		UPDATE thresholds
		SET city = $1, temperature_threshold = $2, email = $3,
		    weather_condition = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := s.db.ExecContext(ctx, query,
		city, temperatureThreshold, email, weatherCondition, time.Now(), id)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("threshold for city %q, temperature %v, email %q: %w",
			city, temperatureThreshold, email, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update threshold: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return nil, ErrNotFound
	}

	return s.Get(ctx, id)
}

// Delete removes a threshold. Returns ErrNotFound when no row matched.
func (s *ThresholdStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM thresholds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete threshold: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementBreach atomically bumps a threshold's breach counter and returns
// the new count.
func (s *ThresholdStore) IncrementBreach(ctx context.Context, id string) (int, error) {
	query := `
		UPDATE thresholds
		SET breach_count = breach_count + 1, updated_at = $1
		WHERE id = $2
		RETURNING breach_count
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, time.Now(), id).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment breach count: %w", err)
	}
	return count, nil
}

// ResetBreach atomically zeroes a threshold's breach counter.
func (s *ThresholdStore) ResetBreach(ctx context.Context, id string) error {
	query := `
		UPDATE thresholds
		SET breach_count = 0, updated_at = $1
		WHERE id = $2
	`

	if _, err := s.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return fmt.Errorf("failed to reset breach count: %w", err)
	}
	return nil
}

const thresholdSelect = `
		SELECT id, city, temperature_threshold, email, weather_condition,
		       breach_count, created_at, updated_at
		FROM thresholds`

func scanThreshold(row rowScanner, t *Threshold) error {
	return row.Scan(
		&t.ID,
		&t.City,
		&t.TemperatureThreshold,
		&t.Email,
		&t.WeatherCondition,
		&t.BreachCount,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
}

// isUniqueViolation reports whether err is the storage engine's
// unique-constraint signal.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation"
}
