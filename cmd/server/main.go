package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"weather-dashboard/internal/config"
	"weather-dashboard/internal/handlers"
	"weather-dashboard/internal/repository"
	"weather-dashboard/internal/services"
	"weather-dashboard/migrations"
	"weather-dashboard/pkg/database"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
	"weather-dashboard/pkg/openweather"
)

const version = "1.0.0"

func main() {
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

	logger := logging.NewStructuredLogger("weather-dashboard-api", version, logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting weather dashboard API server", logging.Fields{
		"version":     version,
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"db_driver":   cfg.Database.Driver,
		"timezone":    cfg.Dashboard.Location.String(),
	})

	metricsCollector := metrics.NewCollector("weather_dashboard", nil)

	// Preference storage
	var store repository.KeyValueStore
	if cfg.Database.Driver == config.DriverMemory {
		logger.Warn(ctx, "[STARTUP] Using in-memory preference storage, settings will not survive a restart", logging.Fields{})
		store = repository.NewMemoryKeyValueStore()
	} else {
		db, err := database.Open(cfg.Database.Connection(), logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{
				"driver": cfg.Database.Driver,
			}, err)
		}
		defer db.Close()

		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx, migrations.Up); err != nil {
				logger.Fatal(ctx, "[STARTUP_ERROR] Failed to migrate database", logging.Fields{}, err)
			}
		}
		store = repository.NewSQLKeyValueStore(db, logger)
	}

	// Provider
	client := openweather.NewClient(openweather.Config{
		APIKey:            cfg.Provider.APIKey,
		BaseURL:           cfg.Provider.BaseURL,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
		Timeout:           cfg.Provider.Timeout,
	}, logger, metricsCollector)
	logger.Info(ctx, "[STARTUP] Weather provider configured", logging.Fields{
		"provider":            client.Name(),
		"requests_per_second": cfg.Provider.RequestsPerSecond,
		"burst":               cfg.Provider.Burst,
	})

	// Services
	loc := cfg.Dashboard.Location
	recent := services.NewRecentCities(ctx, store, logger, metricsCollector)
	prefs := services.NewPreferenceStore(ctx, store, recent, logger, metricsCollector)
	weatherService := services.NewWeatherService(client, cfg.Dashboard.Cities, loc, logger, metricsCollector)
	statsService := services.NewStatisticsService(client, loc, logger, metricsCollector)
	mapService := services.NewMapService(cfg.Provider.TileURL, cfg.Provider.APIKey, handlers.TilePathPrefix)
	calendarService := services.NewCalendarService(loc)

	// Handlers
	dashboardHandler := handlers.NewDashboardHandler(
		weatherService, statsService, mapService, calendarService, prefs, store,
		handlers.DashboardDefaults{StripCity: cfg.Dashboard.StripCity, GraphCity: cfg.Dashboard.GraphCity},
		logger, metricsCollector,
	)
	settingsHandler := handlers.NewSettingsHandler(prefs, logger, metricsCollector)
	liveHandler := handlers.NewLiveHandler(weatherService, statsService, prefs, logger, metricsCollector)

	router := handlers.NewRouter(dashboardHandler, settingsHandler, liveHandler, promhttp.Handler(), logger, metricsCollector)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
