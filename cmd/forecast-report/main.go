package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"weather-dashboard/internal/config"
	"weather-dashboard/internal/models"
	"weather-dashboard/internal/repository"
	"weather-dashboard/internal/services"
	"weather-dashboard/pkg/database"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
	"weather-dashboard/pkg/openweather"
)

func main() {
	// Parse command-line flags
	city := flag.String("city", "", "City to report on (defaults to the saved preference)")
	unit := flag.String("unit", "", "Temperature unit C or F (defaults to the saved preference)")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout for provider calls")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("weather-forecast-report", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	metricsCollector := metrics.NewCollector("weather_forecast_report", nil)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Saved preferences fill in missing flags
	prefs := models.DefaultPreferences()
	if cfg.Database.Driver != config.DriverMemory {
		db, err := database.Open(cfg.Database.Connection(), logger, metricsCollector)
		if err != nil {
			logger.WarnErr(ctx, "[REPORT_DB_ERROR] Preferences unavailable, using defaults", logging.Fields{
				"driver": cfg.Database.Driver,
			}, err)
		} else {
			defer db.Close()
			store := repository.NewSQLKeyValueStore(db, logger)
			recent := services.NewRecentCities(ctx, store, logger, metricsCollector)
			prefs = services.NewPreferenceStore(ctx, store, recent, logger, metricsCollector).Preferences()
		}
	}

	reportCity := prefs.City
	if *city != "" {
		reportCity, err = models.NormalizeCity(*city)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid city: %v\n", err)
			os.Exit(1)
		}
	}
	reportUnit := prefs.Unit
	if *unit != "" {
		reportUnit, err = models.ParseUnit(*unit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid unit: %v\n", err)
			os.Exit(1)
		}
	}

	client := openweather.NewClient(openweather.Config{
		APIKey:            cfg.Provider.APIKey,
		BaseURL:           cfg.Provider.BaseURL,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
		Timeout:           cfg.Provider.Timeout,
	}, logger, metricsCollector)

	logger.Info(ctx, "[REPORT_START] Building forecast report", logging.Fields{
		"city": reportCity,
		"unit": reportUnit,
	})

	samples, err := client.Forecast(ctx, reportCity, reportUnit)
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Forecast fetch failed", logging.Fields{
			"city": reportCity,
		}, err)
	}

	loc := cfg.Dashboard.Location
	agg := services.Aggregate(samples, loc)
	symbol := reportUnit.Symbol()

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("FORECAST REPORT: %s\n", reportCity)
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Provider: %s\n", client.Name())
	fmt.Printf("Samples:  %d\n", len(samples))
	if len(samples) > 0 {
		fmt.Printf("From:     %s\n", samples[0].Timestamp.In(loc).Format("Mon Jan 2 15:04"))
		fmt.Printf("Until:    %s\n", samples[len(samples)-1].Timestamp.In(loc).Format("Mon Jan 2 15:04"))
	}

	fmt.Println("\nDaily summaries")
	fmt.Println(strings.Repeat("-", 80))
	for _, d := range agg.Summaries {
		fmt.Printf("  %-4s %7.1f%s  %3d%%  %-12s (%d samples)\n", d.Day, d.Temperature, symbol, d.Humidity, d.WeatherType, d.SampleCount)
	}

	fmt.Println("\nHumidity")
	fmt.Println(strings.Repeat("-", 80))
	for _, h := range services.HumiditySnapshot(agg.Summaries) {
		fmt.Printf("  %-4s %s %d%%\n", h.Name, strings.Repeat("#", h.Humidity/5), h.Humidity)
	}

	fmt.Println("\nWeather types")
	fmt.Println(strings.Repeat("-", 80))
	types := make([]string, 0, len(agg.Distribution))
	for t := range agg.Distribution {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-12s %d day(s)\n", t, agg.Distribution[t])
	}

	logger.Info(ctx, "[REPORT_COMPLETE] Forecast report printed", logging.Fields{
		"city":    reportCity,
		"samples": len(samples),
		"days":    len(agg.Summaries),
	})
}
