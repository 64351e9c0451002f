package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"weather-dashboard/internal/config"
	"weather-dashboard/migrations"
	"weather-dashboard/pkg/database"
	"weather-dashboard/pkg/logging"
	"weather-dashboard/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.Database.Driver == config.DriverMemory {
		fmt.Fprintln(os.Stderr, "The memory driver has no schema to migrate, set DB_DRIVER to postgres or sqlite3")
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("weather-dashboard-migrate", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	metricsCollector := metrics.NewCollector("weather_dashboard_migrate", nil)

	// Connect to database
	db, err := database.Open(cfg.Database.Connection(), logger, metricsCollector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("Connected to database successfully")
	fmt.Printf("Running %s migrations against %s\n", *direction, cfg.Database.Driver)

	if err := db.Migrate(context.Background(), migrations.Direction(*direction)); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migration completed successfully")
}
