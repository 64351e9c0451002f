// Package openweather is a small client for the OpenWeatherMap 2.5 API:
// current conditions and the 5 day / 3 hour forecast.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

const (
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
	DefaultTileURL = "https://tile.openweathermap.org/map"
)

// Config holds client settings
type Config struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// APIError is a non-200 answer from the provider
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("openweathermap API error (status %d): %s", e.StatusCode, e.Message)
}

// IsTransient reports whether retrying later could succeed
func (e *APIError) IsTransient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client talks to OpenWeatherMap. Every call waits on a shared rate limiter.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *logging.StructuredLogger
	metrics    *metrics.Collector
}

// NewClient creates a rate limited OpenWeatherMap client
func NewClient(cfg Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return "OpenWeatherMap"
}

type weatherCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type currentResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []weatherCondition `json:"weather"`
}

type forecastResponse struct {
	List []struct {
		Dt     int64  `json:"dt"`
		DtText string `json:"dt_txt"`
		Main   struct {
			Temp     float64 `json:"temp"`
			Humidity int     `json:"humidity"`
		} `json:"main"`
		Weather []weatherCondition `json:"weather"`
	} `json:"list"`
}

// Current fetches current conditions for a city name
func (c *Client) Current(ctx context.Context, city string, unit models.Unit) (*models.CurrentConditions, error) {
	params := url.Values{}
	params.Set("q", city)

	var resp currentResponse
	if err := c.get(ctx, "weather", params, unit, &resp); err != nil {
		return nil, err
	}

	cond := primary(resp.Weather)
	return &models.CurrentConditions{
		ID:          resp.ID,
		Name:        resp.Name,
		Temperature: resp.Main.Temp,
		Unit:        unit,
		Condition:   cond.Main,
		Description: cond.Description,
		Icon:        cond.Icon,
	}, nil
}

// Forecast fetches the 3-hourly forecast for a city name
func (c *Client) Forecast(ctx context.Context, city string, unit models.Unit) ([]models.WeatherSample, error) {
	params := url.Values{}
	params.Set("q", city)
	return c.forecast(ctx, params, unit)
}

// ForecastByCoords fetches the 3-hourly forecast for a coordinate pair
func (c *Client) ForecastByCoords(ctx context.Context, lat, lon float64, unit models.Unit) ([]models.WeatherSample, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))
	return c.forecast(ctx, params, unit)
}

func (c *Client) forecast(ctx context.Context, params url.Values, unit models.Unit) ([]models.WeatherSample, error) {
	var resp forecastResponse
	if err := c.get(ctx, "forecast", params, unit, &resp); err != nil {
		return nil, err
	}

	samples := make([]models.WeatherSample, 0, len(resp.List))
	for _, item := range resp.List {
		cond := primary(item.Weather)
		samples = append(samples, models.WeatherSample{
			Timestamp:   time.Unix(item.Dt, 0).UTC(),
			TimeText:    item.DtText,
			Temperature: item.Main.Temp,
			Humidity:    item.Main.Humidity,
			WeatherType: cond.Main,
			Description: cond.Description,
			Icon:        cond.Icon,
		})
	}
	return samples, nil
}

// primary returns the first condition; an empty list yields empty labels
func primary(conds []weatherCondition) weatherCondition {
	if len(conds) == 0 {
		return weatherCondition{}
	}
	return conds[0]
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, unit models.Unit, dest interface{}) error {
	waitStart := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}
	c.metrics.ProviderRateLimitWait.Observe(time.Since(waitStart).Seconds())

	params.Set("units", unit.ProviderUnits())
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	outcome := "error"
	defer func() {
		c.metrics.RecordProviderCall(endpoint, outcome, time.Since(start))
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		outcome = strconv.Itoa(resp.StatusCode)
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(body)}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", endpoint, err)
	}
	outcome = "ok"

	c.logger.Debug(ctx, "[PROVIDER_CALL] Provider request completed", logging.Fields{
		"provider":    c.Name(),
		"endpoint":    endpoint,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// errorMessage extracts the "message" field OpenWeatherMap puts in error bodies
func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return string(body)
}
