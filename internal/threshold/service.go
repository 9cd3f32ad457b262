package threshold

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/smukkama/weather-monitor/internal/database"
)

// ErrValidation is returned for rejected management input.
var ErrValidation = errors.New("invalid input")

// Store is the persistence contract for threshold management. Note the
// absence of breach-counter operations: those belong to the evaluator.
type Store interface {
	Create(ctx context.Context, t *database.Threshold) error
	List(ctx context.Context) ([]database.Threshold, error)
	Get(ctx context.Context, id string) (*database.Threshold, error)
	Update(ctx context.Context, id string, city string, temperatureThreshold float64, email string, weatherCondition *string) (*database.Threshold, error)
	Delete(ctx context.Context, id string) error
}

// Input carries the user-supplied rule fields for create and update.
type Input struct {
	City                 string  `json:"city" validate:"required"`
	TemperatureThreshold float64 `json:"temperatureThreshold"`
	Email                string  `json:"email" validate:"required,email"`
	WeatherCondition     *string `json:"weatherCondition,omitempty"`
}

// Service manages user-defined alert rules.
type Service struct {
	store    Store
	validate *validator.Validate
}

// NewService creates a threshold management service.
func NewService(store Store) *Service {
	return &Service{
		store:    store,
		validate: validator.New(),
	}
}

// Create adds a new rule. A duplicate (city, temperature, email) combination
// returns database.ErrConflict.
func (s *Service) Create(ctx context.Context, in Input) (*database.Threshold, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	t := &database.Threshold{
		City:                 in.City,
		TemperatureThreshold: in.TemperatureThreshold,
		Email:                in.Email,
		WeatherCondition:     in.WeatherCondition,
	}
	if err := s.store.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns all rules.
func (s *Service) List(ctx context.Context) ([]database.Threshold, error) {
	return s.store.List(ctx)
}

// Update replaces a rule's fields. Returns database.ErrNotFound when the ID
// is unknown.
func (s *Service) Update(ctx context.Context, id string, in Input) (*database.Threshold, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return s.store.Update(ctx, id, in.City, in.TemperatureThreshold, in.Email, in.WeatherCondition)
}

// Delete removes a rule. Returns database.ErrNotFound when the ID is unknown.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}
	return s.store.Delete(ctx, id)
}
