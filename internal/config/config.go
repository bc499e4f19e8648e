package config

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Risk     RiskConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled                bool
	RedisURL               string
	RedisHost              string
	RedisPort              string
	RedisPassword          string
	RedisDB                int
	RefreshLockTTLSeconds  int
	AlertEventsChannel     string
	PublishAlertSentEvents bool
}

// StorageConfig points at the S3-compatible bucket that receives refresh archives.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type RiskConfig struct {
	DefaultWindowDays        int
	DefaultLowStockThreshold float64
	WidgetFarmLimit          int
	Timezone                 string
	StrictFilters            bool
}

type LogConfig struct {
	Level string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DATABASE_URL", "")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "farmrisk")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_REFRESH_LOCK_TTL_SECONDS", 60)
		viper.SetDefault("CACHE_ALERT_EVENTS_CHANNEL", "farmrisk:alerts")
		viper.SetDefault("CACHE_PUBLISH_ALERT_EVENTS", true)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "farmrisk-archive")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("RISK_DEFAULT_WINDOW_DAYS", 30)
		viper.SetDefault("RISK_LOW_STOCK_THRESHOLD", 5)
		viper.SetDefault("RISK_WIDGET_FARM_LIMIT", 5)
		viper.SetDefault("RISK_TIMEZONE", "UTC")
		viper.SetDefault("RISK_STRICT_FILTERS", true)
		viper.SetDefault("LOG_LEVEL", "info")

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				URL:      viper.GetString("DATABASE_URL"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:                viper.GetBool("CACHE_ENABLED"),
				RedisURL:               viper.GetString("REDIS_URL"),
				RedisHost:              viper.GetString("REDIS_HOST"),
				RedisPort:              viper.GetString("REDIS_PORT"),
				RedisPassword:          viper.GetString("REDIS_PASSWORD"),
				RedisDB:                viper.GetInt("REDIS_DB"),
				RefreshLockTTLSeconds:  viper.GetInt("CACHE_REFRESH_LOCK_TTL_SECONDS"),
				AlertEventsChannel:     viper.GetString("CACHE_ALERT_EVENTS_CHANNEL"),
				PublishAlertSentEvents: viper.GetBool("CACHE_PUBLISH_ALERT_EVENTS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Risk: RiskConfig{
				DefaultWindowDays:        viper.GetInt("RISK_DEFAULT_WINDOW_DAYS"),
				DefaultLowStockThreshold: viper.GetFloat64("RISK_LOW_STOCK_THRESHOLD"),
				WidgetFarmLimit:          viper.GetInt("RISK_WIDGET_FARM_LIMIT"),
				Timezone:                 viper.GetString("RISK_TIMEZONE"),
				StrictFilters:            viper.GetBool("RISK_STRICT_FILTERS"),
			},
			Log: LogConfig{
				Level: viper.GetString("LOG_LEVEL"),
			},
		}
	})

	return instance
}

// Validate rejects settings that would make date or threshold math meaningless.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config is nil")
	}
	if c.Risk.DefaultWindowDays < 0 {
		return fmt.Errorf("RISK_DEFAULT_WINDOW_DAYS must not be negative")
	}
	if c.Risk.DefaultLowStockThreshold < 0 {
		return fmt.Errorf("RISK_LOW_STOCK_THRESHOLD must not be negative")
	}
	if c.Risk.WidgetFarmLimit < 0 {
		return fmt.Errorf("RISK_WIDGET_FARM_LIMIT must not be negative")
	}
	if _, err := c.Risk.Location(); err != nil {
		return err
	}
	if c.Storage.Enabled && c.Storage.Bucket == "" {
		return fmt.Errorf("STORAGE_BUCKET must be provided when storage is enabled")
	}
	return nil
}

// Location resolves the timezone that defines "today" for risk math.
func (r RiskConfig) Location() (*time.Location, error) {
	if r.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid RISK_TIMEZONE %q: %w", r.Timezone, err)
	}
	return loc, nil
}

// DSN builds a lib/pq keyword connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}
