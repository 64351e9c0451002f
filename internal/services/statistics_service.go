package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

// StatisticsCities is the catalog the statistics page can report on
var StatisticsCities = []models.City{
	{Name: "Lagos", Lat: 6.5244, Lon: 3.3792},
	{Name: "London", Lat: 51.5072, Lon: -0.1276},
	{Name: "New York", Lat: 40.7128, Lon: -74.006},
}

// NotFoundError is returned for a city outside the catalog
type NotFoundError struct {
	Resource string
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Name)
}

// IsTransient is always false for NotFoundError
func (e *NotFoundError) IsTransient() bool {
	return false
}

// StatisticsReport is everything the statistics page renders for one city
type StatisticsReport struct {
	City             models.City                    `json:"city"`
	Unit             models.Unit                    `json:"unit"`
	Summaries        []models.DailySummary          `json:"summaries"`
	TemperatureTrend []models.TemperaturePoint      `json:"temperature_trend"`
	Humidity         []models.HumidityReading       `json:"humidity"`
	Distribution     models.WeatherTypeDistribution `json:"distribution"`
	AvgTemperature   *float64                       `json:"avg_temperature"`
	AvgHumidity      *int                           `json:"avg_humidity"`
}

// StatisticsService builds per-city forecast statistics
type StatisticsService struct {
	provider WeatherProvider
	cities   []models.City
	loc      *time.Location
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewStatisticsService creates a new statistics service over StatisticsCities.
// Days are bucketed in loc.
func NewStatisticsService(provider WeatherProvider, loc *time.Location, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatisticsService {
	if loc == nil {
		loc = time.Local
	}
	return &StatisticsService{
		provider: provider,
		cities:   StatisticsCities,
		loc:      loc,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Cities returns the catalog
func (s *StatisticsService) Cities() []models.City {
	return append([]models.City(nil), s.cities...)
}

// Lookup finds a catalog city by name, ignoring case and surrounding space
func (s *StatisticsService) Lookup(name string) (models.City, error) {
	trimmed := strings.TrimSpace(name)
	for _, c := range s.cities {
		if strings.EqualFold(c.Name, trimmed) {
			return c, nil
		}
	}
	return models.City{}, &NotFoundError{Resource: "city", Name: name}
}

// Report fetches the forecast for a catalog city and reduces it to daily
// summaries. A provider failure yields an empty report, not an error.
func (s *StatisticsService) Report(ctx context.Context, cityName string, unit models.Unit) (*StatisticsReport, error) {
	city, err := s.Lookup(cityName)
	if err != nil {
		return nil, err
	}

	samples, err := s.provider.ForecastByCoords(ctx, city.Lat, city.Lon, unit)
	if err != nil {
		s.logger.WarnErr(ctx, "[STATS_FETCH_ERROR] Returning empty statistics", logging.Fields{
			"city": city.Name,
			"unit": unit,
		}, err)
		samples = nil
	}

	timer := s.metrics.NewTimer(s.metrics.AggregationDuration)
	agg := Aggregate(samples, s.loc)
	timer.ObserveDuration()
	s.metrics.AggregatedDays.Observe(float64(len(agg.Summaries)))

	report := &StatisticsReport{
		City:             city,
		Unit:             unit,
		Summaries:        agg.Summaries,
		TemperatureTrend: TemperatureTrend(agg.Summaries),
		Humidity:         HumiditySnapshot(agg.Summaries),
		Distribution:     agg.Distribution,
	}
	if len(agg.Summaries) > 0 {
		first := agg.Summaries[0]
		report.AvgTemperature = &first.Temperature
		report.AvgHumidity = &first.Humidity
	}

	s.logger.Info(ctx, "[STATS_REPORT] Statistics computed", logging.Fields{
		"city":    city.Name,
		"unit":    unit,
		"samples": len(samples),
		"days":    len(agg.Summaries),
	})
	return report, nil
}
