package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Sync     SyncConfig
	Mailer   MailerConfig
	Geocode  GeocodeConfig
	AWS      AWSConfig
	Users    UsersConfig
	Seed     SeedConfig
	Monitor  MonitorConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	Timezone           string // IANA name used for CSV timestamps and status evaluation
}

// StoreConfig selects the shared medium.
type StoreConfig struct {
	Driver string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/hapsayhub?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Sync notifications use Redis
// whenever Addr is set, even with a non-redis store driver.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SyncConfig holds surface refresh cadence.
type SyncConfig struct {
	StaffRefreshSec   int
	VisitorRefreshSec int
	SurfaceIdleMin    int
}

// MailerConfig points at the ticket email endpoint.
type MailerConfig struct {
	URL        string
	TimeoutSec int
}

// GeocodeConfig points at a Nominatim-compatible reverse geocoder.
type GeocodeConfig struct {
	URL        string
	UserAgent  string
	TimeoutSec int
}

// AWSConfig holds AWS credentials and the event image bucket.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ImagesBucket    string
}

// UsersConfig controls account credential storage.
type UsersConfig struct {
	HashPasswords bool
}

// SeedConfig names the optional YAML seed file.
type SeedConfig struct {
	File string
}

// MonitorConfig holds settings for the headless status monitor.
type MonitorConfig struct {
	Port      string
	ReportSec int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// StaffInterval is the organizer and admin refresh period.
func (c SyncConfig) StaffInterval() time.Duration {
	return time.Duration(c.StaffRefreshSec) * time.Second
}

// VisitorInterval is the visitor refresh period.
func (c SyncConfig) VisitorInterval() time.Duration {
	return time.Duration(c.VisitorRefreshSec) * time.Second
}

// IdleTimeout is how long an unused surface lives.
func (c SyncConfig) IdleTimeout() time.Duration {
	return time.Duration(c.SurfaceIdleMin) * time.Minute
}

// Location loads the configured timezone.
func (c ServerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			Timezone:           getEnv("APP_TIMEZONE", "Asia/Manila"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "hapsayhub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 0),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Sync: SyncConfig{
			StaffRefreshSec:   getEnvInt("REFRESH_ADMIN_SEC", 5),
			VisitorRefreshSec: getEnvInt("REFRESH_VISITOR_SEC", 10),
			SurfaceIdleMin:    getEnvInt("SURFACE_IDLE_MINUTES", 30),
		},
		Mailer: MailerConfig{
			URL:        getEnv("MAILER_URL", "http://localhost/backend/api/send_email.php"),
			TimeoutSec: getEnvInt("MAILER_TIMEOUT_SEC", 15),
		},
		Geocode: GeocodeConfig{
			URL:        getEnv("GEOCODE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:  getEnv("GEOCODE_USER_AGENT", "HapsayHub/1.0"),
			TimeoutSec: getEnvInt("GEOCODE_TIMEOUT_SEC", 10),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ImagesBucket:    getEnv("AWS_S3_IMAGES_BUCKET", "hapsayhub-event-images"),
		},
		Users: UsersConfig{
			HashPasswords: getEnvBool("USERS_HASH_PASSWORDS", false),
		},
		Seed: SeedConfig{
			File: getEnv("SEED_FILE", ""),
		},
		Monitor: MonitorConfig{
			Port:      getEnv("MONITOR_PORT", "9091"),
			ReportSec: getEnvInt("MONITOR_REPORT_SEC", 60),
		},
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverPostgres:
	case DriverRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("STORE_DRIVER=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if c.Sync.StaffRefreshSec <= 0 || c.Sync.VisitorRefreshSec <= 0 {
		return fmt.Errorf("refresh intervals must be positive")
	}
	if c.Sync.SurfaceIdleMin <= 0 {
		return fmt.Errorf("SURFACE_IDLE_MINUTES must be positive")
	}
	if _, err := c.Server.Location(); err != nil {
		return fmt.Errorf("APP_TIMEZONE: %w", err)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
