package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"weather-dashboard/internal/models"
	"weather-dashboard/pkg/logging"
)

func TestStatisticsService_Lookup(t *testing.T) {
	svc := NewStatisticsService(&fakeProvider{}, time.UTC, logging.NewNopLogger(), testCollector())

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "exact", input: "Lagos", want: "Lagos"},
		{name: "case and space", input: "  new york ", want: "New York"},
		{name: "unknown", input: "Paris", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Lookup(tt.input)
			if tt.wantErr {
				var nf *NotFoundError
				if !errors.As(err, &nf) {
					t.Fatalf("expected NotFoundError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup() error = %v", err)
			}
			if got.Name != tt.want {
				t.Errorf("Lookup() = %q, want %q", got.Name, tt.want)
			}
		})
	}
}

func TestStatisticsService_Report(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) // Monday
	day2 := day1.AddDate(0, 0, 1)
	provider := &fakeProvider{coords: []models.WeatherSample{
		{Timestamp: day1, Temperature: 20, Humidity: 60, WeatherType: "Clouds"},
		{Timestamp: day1.Add(3 * time.Hour), Temperature: 22, Humidity: 70, WeatherType: "Clouds"},
		{Timestamp: day2, Temperature: 18, Humidity: 80, WeatherType: "Rain"},
	}}
	svc := NewStatisticsService(provider, time.UTC, logging.NewNopLogger(), testCollector())

	report, err := svc.Report(context.Background(), "london", models.Fahrenheit)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if provider.calls[0] != "coords:51.5072,-0.1276:F" {
		t.Errorf("provider call = %q", provider.calls[0])
	}
	if report.City.Name != "London" || report.Unit != models.Fahrenheit {
		t.Errorf("report header = %+v / %s", report.City, report.Unit)
	}
	if len(report.Summaries) != 2 || report.Summaries[0].Day != "Mon" || report.Summaries[1].Day != "Tue" {
		t.Fatalf("summaries = %+v", report.Summaries)
	}
	if report.AvgTemperature == nil || *report.AvgTemperature != 21 {
		t.Errorf("AvgTemperature = %v, want 21", report.AvgTemperature)
	}
	if report.AvgHumidity == nil || *report.AvgHumidity != 65 {
		t.Errorf("AvgHumidity = %v, want 65", report.AvgHumidity)
	}
	if report.Humidity[1].Name != "Yesterday" || report.Humidity[1].Humidity != 80 {
		t.Errorf("humidity snapshot = %+v", report.Humidity)
	}
	if report.Distribution["Clouds"] != 1 || report.Distribution["Rain"] != 1 {
		t.Errorf("distribution = %v", report.Distribution)
	}
	if len(report.TemperatureTrend) != 2 || report.TemperatureTrend[1].Temperature != 18 {
		t.Errorf("trend = %+v", report.TemperatureTrend)
	}
}

func TestStatisticsService_ProviderFailureIsEmptyReport(t *testing.T) {
	provider := &fakeProvider{err: errors.New("timeout")}
	svc := NewStatisticsService(provider, time.UTC, logging.NewNopLogger(), testCollector())

	report, err := svc.Report(context.Background(), "Lagos", models.Celsius)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if len(report.Summaries) != 0 || report.AvgTemperature != nil {
		t.Errorf("expected empty report, got %+v", report)
	}
	if report.Humidity[0].Humidity != 0 || report.Humidity[1].Humidity != 0 {
		t.Errorf("humidity = %+v, want zeros", report.Humidity)
	}
}

func TestStatisticsService_UnknownCity(t *testing.T) {
	provider := &fakeProvider{}
	svc := NewStatisticsService(provider, time.UTC, logging.NewNopLogger(), testCollector())

	_, err := svc.Report(context.Background(), "Atlantis", models.Celsius)
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if len(provider.calls) != 0 {
		t.Errorf("provider should not be called, got %v", provider.calls)
	}
}
