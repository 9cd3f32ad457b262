package threshold

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/weather-monitor/internal/database"
)

type ruleKey struct {
	city  string
	temp  float64
	email string
}

// fakeStore enforces the same (city, temperature, email) uniqueness the real
// store gets from its constraint.
type fakeStore struct {
	rules map[string]*database.Threshold
}

func newFakeStore() *fakeStore {
	return &fakeStore{rules: make(map[string]*database.Threshold)}
}

func (f *fakeStore) key(city string, temp float64, email string) ruleKey {
	return ruleKey{city: city, temp: temp, email: email}
}

func (f *fakeStore) Create(_ context.Context, t *database.Threshold) error {
	for _, existing := range f.rules {
		if f.key(existing.City, existing.TemperatureThreshold, existing.Email) ==
			f.key(t.City, t.TemperatureThreshold, t.Email) {
			return database.ErrConflict
		}
	}
	if t.ID == "" {
		t.ID = "generated"
	}
	f.rules[t.ID] = t
	return nil
}

func (f *fakeStore) List(context.Context) ([]database.Threshold, error) {
	var out []database.Threshold
	for _, t := range f.rules {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (*database.Threshold, error) {
	t, ok := f.rules[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) Update(_ context.Context, id, city string, temp float64, email string, cond *string) (*database.Threshold, error) {
	t, ok := f.rules[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	t.City, t.TemperatureThreshold, t.Email, t.WeatherCondition = city, temp, email, cond
	return t, nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if _, ok := f.rules[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.rules, id)
	return nil
}

func TestCreateValidThreshold(t *testing.T) {
	svc := NewService(newFakeStore())

	created, err := svc.Create(context.Background(), Input{
		City:                 "Delhi",
		TemperatureThreshold: 30,
		Email:                "user@example.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 0, created.BreachCount)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.Create(context.Background(), Input{Email: "user@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), Input{City: "Delhi"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), Input{City: "Delhi", Email: "not-an-email"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateZeroThresholdIsAllowed(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.Create(context.Background(), Input{
		City: "Delhi", TemperatureThreshold: 0, Email: "user@example.com",
	})
	assert.NoError(t, err)
}

func TestDuplicateCreateConflicts(t *testing.T) {
	svc := NewService(newFakeStore())
	in := Input{City: "Delhi", TemperatureThreshold: 30, Email: "user@example.com"}

	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), in)
	assert.ErrorIs(t, err, database.ErrConflict)

	// Any one differing field makes the rule distinct again.
	variants := []Input{
		{City: "Mumbai", TemperatureThreshold: 30, Email: "user@example.com"},
		{City: "Delhi", TemperatureThreshold: 31, Email: "user@example.com"},
		{City: "Delhi", TemperatureThreshold: 30, Email: "other@example.com"},
	}
	for _, v := range variants {
		_, err := svc.Create(context.Background(), v)
		assert.NoError(t, err)
	}
}

func TestUpdateMissingThreshold(t *testing.T) {
	svc := NewService(newFakeStore())

	_, err := svc.Update(context.Background(), "missing", Input{
		City: "Delhi", TemperatureThreshold: 30, Email: "user@example.com",
	})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestDeleteMissingThreshold(t *testing.T) {
	svc := NewService(newFakeStore())

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, database.ErrNotFound)

	err = svc.Delete(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}
