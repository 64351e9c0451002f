package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"weather-dashboard/pkg/database"
)

const (
	DriverPostgres = database.DriverPostgres
	DriverSQLite   = database.DriverSQLite
	DriverMemory   = "memory"
)

// Config is the full application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Logging   LoggingConfig
	Provider  ProviderConfig
	Dashboard DashboardConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds preference storage settings
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	AutoMigrate     bool
}

// Connection converts the settings for database.Open. Only meaningful for the
// postgres and sqlite3 drivers.
func (d DatabaseConfig) Connection() *database.Config {
	return &database.Config{
		Driver:          d.Driver,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Database,
		SSLMode:         d.SSLMode,
		Path:            d.Path,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
		ConnMaxIdleTime: d.ConnMaxIdleTime,
	}
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level string
}

// ProviderConfig holds OpenWeatherMap settings
type ProviderConfig struct {
	APIKey            string
	BaseURL           string
	TileURL           string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// DashboardConfig holds view defaults
type DashboardConfig struct {
	Cities    []string
	StripCity string
	GraphCity string
	Timezone  string
	Location  *time.Location
}

// LoadConfig reads configuration from the environment. A .env file in the
// working directory is loaded first when present; real environment variables
// win over it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var errs []string
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getInt("SERVER_PORT", 8080, &errs),
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 15*time.Second, &errs),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 15*time.Second, &errs),
			IdleTimeout:     getDuration("SERVER_IDLE_TIMEOUT", 60*time.Second, &errs),
			ShutdownTimeout: getDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second, &errs),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getInt("DB_PORT", 5432, &errs),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "weather_dashboard"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			Path:            getEnv("DB_PATH", "weather-dashboard.db"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 10, &errs),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5, &errs),
			ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute, &errs),
			ConnMaxIdleTime: getDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute, &errs),
			AutoMigrate:     getBool("DB_AUTO_MIGRATE", true, &errs),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(getEnv("LOG_LEVEL", "info")),
		},
		Provider: ProviderConfig{
			APIKey:            getEnv("OPENWEATHER_API_KEY", ""),
			BaseURL:           getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5"),
			TileURL:           getEnv("OPENWEATHER_TILE_URL", "https://tile.openweathermap.org/map"),
			RequestsPerSecond: getFloat("OPENWEATHER_RATE_LIMIT", 1, &errs),
			Burst:             getInt("OPENWEATHER_BURST", 14, &errs),
			Timeout:           getDuration("OPENWEATHER_TIMEOUT", 10*time.Second, &errs),
		},
		Dashboard: DashboardConfig{
			Cities:    getList("DASHBOARD_CITIES"),
			StripCity: getEnv("DASHBOARD_STRIP_CITY", "Abuja"),
			GraphCity: getEnv("DASHBOARD_GRAPH_CITY", "Abia"),
			Timezone:  getEnv("DASHBOARD_TIMEZONE", "Local"),
		},
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}

	loc, err := time.LoadLocation(cfg.Dashboard.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid DASHBOARD_TIMEZONE %q: %w", cfg.Dashboard.Timezone, err)
	}
	cfg.Dashboard.Location = loc

	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" || c.Database.Database == "" {
			return errors.New("postgres driver requires DB_HOST and DB_NAME")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("sqlite3 driver requires DB_PATH")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want postgres, sqlite3 or memory)", c.Database.Driver)
	}

	if c.Provider.APIKey == "" {
		return errors.New("OPENWEATHER_API_KEY is required")
	}
	if c.Provider.RequestsPerSecond < 0 {
		return fmt.Errorf("OPENWEATHER_RATE_LIMIT must not be negative: %v", c.Provider.RequestsPerSecond)
	}
	if c.Provider.Burst < 1 {
		return fmt.Errorf("OPENWEATHER_BURST must be at least 1: %d", c.Provider.Burst)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported LOG_LEVEL %q", c.Logging.Level)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int, errs *[]string) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64, errs *[]string) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return defaultValue
	}
	return f
}

func getBool(key string, defaultValue bool, errs *[]string) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration, errs *[]string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return defaultValue
	}
	return d
}

// getList splits a comma separated variable, dropping blank entries
func getList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
