package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

const (
	// StripSamples is how many forecast samples the strip shows
	StripSamples = 12
	// GraphSamples is how many forecast samples the graph plots
	GraphSamples = 10
)

// DefaultCities is the overview city list
var DefaultCities = []string{
	"Abia", "Rivers", "Lagos", "Abuja", "London", "New York", "Cairo",
	"Paris", "Nairobi", "Berlin", "Beijing", "Johannesburg", "Dubai", "Toronto",
}

// WeatherProvider is the upstream weather source
type WeatherProvider interface {
	Current(ctx context.Context, city string, unit models.Unit) (*models.CurrentConditions, error)
	Forecast(ctx context.Context, city string, unit models.Unit) ([]models.WeatherSample, error)
	ForecastByCoords(ctx context.Context, lat, lon float64, unit models.Unit) ([]models.WeatherSample, error)
}

// WeatherService serves the overview page: city cards, forecast strip and graph
type WeatherService struct {
	provider WeatherProvider
	cities   []string
	loc      *time.Location
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewWeatherService creates a new weather service. An empty city list falls
// back to DefaultCities; loc is used for graph time labels.
func NewWeatherService(provider WeatherProvider, cities []string, loc *time.Location, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *WeatherService {
	if len(cities) == 0 {
		cities = DefaultCities
	}
	if loc == nil {
		loc = time.Local
	}
	return &WeatherService{
		provider: provider,
		cities:   cities,
		loc:      loc,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Cities returns the configured overview cities
func (s *WeatherService) Cities() []string {
	return append([]string(nil), s.cities...)
}

// Overview fetches current conditions for every configured city in parallel.
// Cities that fail are logged and left out; the order of the city list is kept.
// A non-empty query keeps only cities whose name contains it, ignoring case.
func (s *WeatherService) Overview(ctx context.Context, query string, unit models.Unit) []models.CurrentConditions {
	results := make([]*models.CurrentConditions, len(s.cities))

	var wg sync.WaitGroup
	for i, city := range s.cities {
		wg.Add(1)
		go func(i int, city string) {
			defer wg.Done()
			cond, err := s.provider.Current(ctx, city, unit)
			if err != nil {
				s.logger.WarnErr(ctx, "[OVERVIEW_FETCH_ERROR] Skipping city", logging.Fields{
					"city": city,
				}, err)
				return
			}
			results[i] = cond
		}(i, city)
	}
	wg.Wait()

	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.CurrentConditions, 0, len(results))
	for i, cond := range results {
		if cond == nil {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(cond.Name), needle) &&
			!strings.Contains(strings.ToLower(s.cities[i]), needle) {
			continue
		}
		out = append(out, *cond)
	}

	s.logger.Debug(ctx, "[OVERVIEW] Overview assembled", logging.Fields{
		"requested": len(s.cities),
		"returned":  len(out),
		"query":     query,
	})
	return out
}

// ForecastStrip returns the first StripSamples forecast samples for a city.
// Provider failures yield an empty strip.
func (s *WeatherService) ForecastStrip(ctx context.Context, city string, unit models.Unit) []models.WeatherSample {
	samples := s.forecast(ctx, city, unit)
	if len(samples) > StripSamples {
		samples = samples[:StripSamples]
	}
	return samples
}

// ForecastGraph returns the first GraphSamples samples as time/temperature points
func (s *WeatherService) ForecastGraph(ctx context.Context, city string, unit models.Unit) []models.TemperaturePoint {
	samples := s.forecast(ctx, city, unit)
	if len(samples) > GraphSamples {
		samples = samples[:GraphSamples]
	}

	points := make([]models.TemperaturePoint, 0, len(samples))
	for _, sample := range samples {
		points = append(points, models.TemperaturePoint{
			Label:       sample.Timestamp.In(s.loc).Format("15:04"),
			Temperature: sample.Temperature,
		})
	}
	return points
}

func (s *WeatherService) forecast(ctx context.Context, city string, unit models.Unit) []models.WeatherSample {
	samples, err := s.provider.Forecast(ctx, city, unit)
	if err != nil {
		s.logger.WarnErr(ctx, "[FORECAST_FETCH_ERROR] Returning empty forecast", logging.Fields{
			"city": city,
		}, err)
		return []models.WeatherSample{}
	}
	return samples
}
