// Package config loads runtime settings from the environment, opens the
// database and sets up logging.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database drivers accepted in DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config holds every runtime setting.
type Config struct {
	Port string

	DBDriver string
	DBDSN    string

	UseGCS          bool
	GCSBucket       string
	GCSPrefix       string
	CredentialsFile string
	UploadDir       string

	SitesFile           string
	DefaultRadiusMeters float64
	PollInterval        time.Duration
	OrphanGracePeriod   time.Duration

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	LogLevel  string
	LogFormat string

	MaxUploadBytes int64
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using system environment variables")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function such as os.Getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:            env("PORT", "8080"),
		DBDriver:        strings.ToLower(env("DB_DRIVER", DriverPostgres)),
		DBDSN:           env("DB_DSN", ""),
		GCSBucket:       env("GCS_BUCKET", ""),
		GCSPrefix:       env("GCS_PREFIX", "readings"),
		CredentialsFile: env("GOOGLE_APPLICATION_CREDENTIALS", ""),
		UploadDir:       env("UPLOAD_DIR", "./uploads"),
		SitesFile:       env("SITES_FILE", ""),
		MQTTBroker:      env("MQTT_BROKER", ""),
		MQTTTopic:       env("MQTT_TOPIC", "gaugewatch/readings"),
		MQTTClientID:    env("MQTT_CLIENT_ID", "gaugewatch"),
		MQTTUsername:    env("MQTT_USERNAME", ""),
		MQTTPassword:    env("MQTT_PASSWORD", ""),
		LogLevel:        strings.ToLower(env("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(env("LOG_FORMAT", "text")),
	}

	// Production runs on Google Cloud: GOOGLE_APPLICATION_CREDENTIALS or
	// K_SERVICE (Cloud Run) switch photos to GCS.
	cfg.UseGCS = env("USE_GCS", "") == "true" ||
		cfg.CredentialsFile != "" ||
		env("K_SERVICE", "") != ""

	var err error
	if cfg.DefaultRadiusMeters, err = strconv.ParseFloat(env("DEFAULT_RADIUS_METERS", "100"), 64); err != nil || cfg.DefaultRadiusMeters <= 0 {
		return nil, fmt.Errorf("DEFAULT_RADIUS_METERS must be a positive number")
	}
	if cfg.PollInterval, err = time.ParseDuration(env("POLL_INTERVAL", "30s")); err != nil || cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("POLL_INTERVAL must be a positive duration")
	}
	if cfg.OrphanGracePeriod, err = time.ParseDuration(env("ORPHAN_GRACE_PERIOD", "1h")); err != nil || cfg.OrphanGracePeriod <= 0 {
		return nil, fmt.Errorf("ORPHAN_GRACE_PERIOD must be a positive duration")
	}
	maxMB, err := strconv.Atoi(env("MAX_UPLOAD_MB", "20"))
	if err != nil || maxMB <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be a positive integer")
	}
	cfg.MaxUploadBytes = int64(maxMB) << 20

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverPostgres, DriverMySQL, DriverSQLite:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required for driver %q", c.DBDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.UseGCS && c.GCSBucket == "" {
		return fmt.Errorf("GCS_BUCKET is required when GCS storage is enabled")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Connect opens the configured SQL database. It returns nil for the
// memory driver.
func Connect(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DBDSN)
	case DriverMySQL:
		dialector = mysql.Open(cfg.DBDSN)
	case DriverSQLite:
		dialector = sqlite.Open(cfg.DBDSN)
	case DriverMemory:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.WithField("driver", cfg.DBDriver).Info("database ready")
	return db, nil
}
