package httpapi

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/smukkama/weather-monitor/internal/database"
	"github.com/smukkama/weather-monitor/internal/history"
	"github.com/smukkama/weather-monitor/internal/provider"
	"github.com/smukkama/weather-monitor/internal/threshold"
)

// CurrentFetcher is the provider-client contract for the passthrough
// endpoint.
type CurrentFetcher interface {
	FetchCurrent(ctx context.Context, city string) (provider.Observation, error)
}

// ConditionsCache bounds upstream calls from the passthrough endpoint.
type ConditionsCache interface {
	Get(ctx context.Context, city string) (*provider.Observation, error)
	Set(ctx context.Context, city string, obs *provider.Observation) error
}

// API wires the query and management surfaces into a Fiber app.
type API struct {
	fetcher    CurrentFetcher
	cache      ConditionsCache
	history    *history.Service
	thresholds *threshold.Service
	logger     *zap.Logger
}

// New creates the API surface.
func New(fetcher CurrentFetcher, cache ConditionsCache, historySvc *history.Service, thresholdSvc *threshold.Service, logger *zap.Logger) *API {
	return &API{
		fetcher:    fetcher,
		cache:      cache,
		history:    historySvc,
		thresholds: thresholdSvc,
		logger:     logger,
	}
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func (a *API) RegisterRoutes(app *fiber.App) {
	v1 := app.Group("/api/v1/weather")

	v1.Get("/current", a.getCurrentWeather)
	v1.Get("/daily-summary", a.getDailySummary)
	v1.Get("/history-date", a.getHistoryByDate)
	v1.Get("/latest-history", a.getLatestHistory)

	v1.Post("/thresholds", a.createThreshold)
	v1.Get("/thresholds", a.listThresholds)
	v1.Patch("/thresholds/:id", a.updateThreshold)
	v1.Delete("/thresholds/:id", a.deleteThreshold)
}

// getCurrentWeather is a provider passthrough; it never touches the reading
// store, only a short-TTL cache in front of the upstream API.
func (a *API) getCurrentWeather(c *fiber.Ctx) error {
	city := c.Query("city")
	if city == "" {
		return fiber.NewError(fiber.StatusBadRequest, "city is required")
	}

	if cached, err := a.cache.Get(c.Context(), city); err != nil {
		a.logger.Warn("conditions cache read failed", zap.String("city", city), zap.Error(err))
	} else if cached != nil {
		return c.JSON(cached)
	}

	obs, err := a.fetcher.FetchCurrent(c.Context(), city)
	if err != nil {
		return mapError(err)
	}

	if err := a.cache.Set(c.Context(), city, &obs); err != nil {
		a.logger.Warn("conditions cache write failed", zap.String("city", city), zap.Error(err))
	}

	return c.JSON(obs)
}

func (a *API) getDailySummary(c *fiber.Ctx) error {
	summary, err := a.history.DailySummary(c.Context(), c.Query("city"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(summary)
}

func (a *API) getHistoryByDate(c *fiber.Ctx) error {
	rows, err := a.history.HistoryByDate(c.Context(), c.Query("city"), c.Query("date"))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(rows)
}

func (a *API) getLatestHistory(c *fiber.Ctx) error {
	days := 1
	if daysStr := c.Query("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "days must be an integer")
		}
		days = parsed
	}

	rows, err := a.history.LatestHistory(c.Context(), days, c.Query("city"))
	if err != nil {
		return mapError(err)
	}
	if rows == nil {
		rows = []database.DailySummary{}
	}
	return c.JSON(rows)
}

func (a *API) createThreshold(c *fiber.Ctx) error {
	var in threshold.Input
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	created, err := a.thresholds.Create(c.Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (a *API) listThresholds(c *fiber.Ctx) error {
	rules, err := a.thresholds.List(c.Context())
	if err != nil {
		return mapError(err)
	}
	if rules == nil {
		rules = []database.Threshold{}
	}
	return c.JSON(rules)
}

func (a *API) updateThreshold(c *fiber.Ctx) error {
	var in threshold.Input
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updated, err := a.thresholds.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(updated)
}

func (a *API) deleteThreshold(c *fiber.Ctx) error {
	if err := a.thresholds.Delete(c.Context(), c.Params("id")); err != nil {
		return mapError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// mapError translates domain errors into HTTP failures, distinguishing
// not-found from bad input from conflicts from internal failures.
func mapError(err error) error {
	switch {
	case errors.Is(err, history.ErrValidation), errors.Is(err, threshold.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, provider.ErrProvider):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}
