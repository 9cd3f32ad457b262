package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/smukkama/weather-monitor/pkg/config"
)

// ErrProvider marks any upstream fetch failure: network errors, non-2xx
// responses, unknown cities, malformed payloads. Callers check it with
// errors.Is and treat it as a per-city skip, never a cycle abort.
var ErrProvider = errors.New("weather provider error")

// Observation is one raw current-conditions result from the provider.
// Temperatures are in Kelvin, exactly as the provider reports them; the
// ingestion pipeline owns the Celsius conversion.
type Observation struct {
	City             string    `json:"city"`
	TemperatureK     float64   `json:"temperatureK"`
	FeelsLikeK       float64   `json:"feelsLikeK"`
	Humidity         float64   `json:"humidity"`
	WindSpeed        float64   `json:"windSpeed"`
	WeatherCondition string    `json:"weatherCondition"`
	ObservedAt       time.Time `json:"observedAt"`
}

// Client fetches current conditions from the OpenWeatherMap API.
type Client struct {
	baseURL string
	apiKey  string
	httpCfg httpClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewClient creates a provider client from configuration.
func NewClient(httpClient *http.Client, cfg config.ProviderConfig) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpCfg: httpClientConfig{
			Client: httpClient,
			Backoff: backoffConfig{
				MaxRetries:      2,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

// FetchCurrent returns the provider's current conditions for a city.
func (c *Client) FetchCurrent(ctx context.Context, city string) (Observation, error) {
	if city == "" {
		return Observation{}, fmt.Errorf("%w: city is required", ErrProvider)
	}
	if c.apiKey == "" {
		return Observation{}, fmt.Errorf("%w: api key is not configured", ErrProvider)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("appid", c.apiKey)

		u := fmt.Sprintf("%s/weather?%s", c.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return Observation{}, fmt.Errorf("%w: fetch %s: %v", ErrProvider, city, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Observation{}, fmt.Errorf("%w: decode %s response: %v", ErrProvider, city, err)
	}
	if len(payload.Weather) == 0 {
		return Observation{}, fmt.Errorf("%w: %s response missing weather condition", ErrProvider, city)
	}

	observedAt := time.Unix(payload.Dt, 0).UTC()
	if payload.Dt == 0 {
		observedAt = time.Now().UTC()
	}

	return Observation{
		City:             city,
		TemperatureK:     payload.Main.Temp,
		FeelsLikeK:       payload.Main.FeelsLike,
		Humidity:         payload.Main.Humidity,
		WindSpeed:        payload.Wind.Speed,
		WeatherCondition: payload.Weather[0].Main,
		ObservedAt:       observedAt,
	}, nil
}
