package openweather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
	}, logging.NewNopLogger(), metrics.NewCollector("owm_test", prometheus.NewRegistry()))
}

func TestCurrent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/weather" {
			t.Errorf("path = %s, want /weather", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "Lagos" {
			t.Errorf("q = %q, want Lagos", q.Get("q"))
		}
		if q.Get("units") != "imperial" {
			t.Errorf("units = %q, want imperial", q.Get("units"))
		}
		if q.Get("appid") != "test-key" {
			t.Errorf("appid = %q, want test-key", q.Get("appid"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":2332459,"name":"Lagos","main":{"temp":86.5,"humidity":70},
			"weather":[{"main":"Clouds","description":"broken clouds","icon":"04d"}]}`))
	})

	got, err := client.Current(context.Background(), "Lagos", models.Fahrenheit)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}

	want := models.CurrentConditions{
		ID:          2332459,
		Name:        "Lagos",
		Temperature: 86.5,
		Unit:        models.Fahrenheit,
		Condition:   "Clouds",
		Description: "broken clouds",
		Icon:        "04d",
	}
	if *got != want {
		t.Errorf("Current() = %+v, want %+v", *got, want)
	}
	if client.Name() != "OpenWeatherMap" {
		t.Errorf("Name() = %q", client.Name())
	}
}

func TestForecastByCoords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lat") != "6.5244" || q.Get("lon") != "3.3792" {
			t.Errorf("lat/lon = %s/%s", q.Get("lat"), q.Get("lon"))
		}
		if q.Get("units") != "metric" {
			t.Errorf("units = %q, want metric", q.Get("units"))
		}
		w.Write([]byte(`{"list":[
			{"dt":1704067200,"dt_txt":"2024-01-01 00:00:00","main":{"temp":26.1,"humidity":88},"weather":[{"main":"Rain","description":"light rain","icon":"10n"}]},
			{"dt":1704078000,"dt_txt":"2024-01-01 03:00:00","main":{"temp":25.4,"humidity":90},"weather":[]}
		]}`))
	})

	got, err := client.ForecastByCoords(context.Background(), 6.5244, 3.3792, models.Celsius)
	if err != nil {
		t.Fatalf("ForecastByCoords() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d samples, want 2", len(got))
	}

	first := got[0]
	if !first.Timestamp.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Timestamp = %v", first.Timestamp)
	}
	if first.Temperature != 26.1 || first.Humidity != 88 || first.WeatherType != "Rain" {
		t.Errorf("first sample = %+v", first)
	}
	if got[1].WeatherType != "" {
		t.Errorf("empty weather list should give empty type, got %q", got[1].WeatherType)
	}
}

func TestForecast_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	})

	_, err := client.Forecast(context.Background(), "Atlantis", models.Celsius)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "city not found" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if apiErr.IsTransient() {
		t.Error("404 should not be transient")
	}
}

func TestForecast_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"list": "nope"`))
	})

	if _, err := client.Forecast(context.Background(), "Paris", models.Celsius); err == nil {
		t.Error("expected parse error")
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"list":[]}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		APIKey:            "k",
		BaseURL:           server.URL,
		RequestsPerSecond: 0.001,
		Burst:             1,
	}, logging.NewNopLogger(), metrics.NewCollector("owm_rl_test", prometheus.NewRegistry()))

	if _, err := client.Forecast(context.Background(), "Berlin", models.Celsius); err != nil {
		t.Fatalf("first call error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := client.Forecast(ctx, "Berlin", models.Celsius); err == nil {
		t.Error("second call should fail waiting on the limiter")
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls, want 1", calls.Load())
	}
}

func TestAPIError_Transient(t *testing.T) {
	if !(&APIError{StatusCode: 429}).IsTransient() {
		t.Error("429 should be transient")
	}
	if !(&APIError{StatusCode: 503}).IsTransient() {
		t.Error("503 should be transient")
	}
}
