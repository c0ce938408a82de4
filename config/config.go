// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Cache backend names
const (
	CacheBackendFile       = "file"
	CacheBackendS3         = "s3"
	CacheBackendRedis      = "redis"
	CacheBackendSQLite     = "sqlite"
	CacheBackendPostgreSQL = "postgresql"
	CacheBackendMongoDB    = "mongodb"
)

const (
	// DevelopmentCachePath is the long-lived cache file location used outside production
	DevelopmentCachePath = ".cache/citycost-cache.json"
	// ProductionCachePath is the ephemeral cache file location used in serverless deployments
	ProductionCachePath = "/tmp/citycost-cache.json"
)

// Config holds the application configuration
type Config struct {
	Env       string          `mapstructure:"APP_ENV" validate:"oneof=development production"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Cache     CacheConfig     `mapstructure:"cache"`
	S3        S3Config        `mapstructure:"s3"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `mapstructure:"PORT" validate:"required,numeric"`
	// MasterKey optionally protects the API with a bearer token
	MasterKey string `mapstructure:"MASTER_KEY"`
}

// LoggingConfig holds log output configuration
type LoggingConfig struct {
	Format string `mapstructure:"LOG_FORMAT" validate:"oneof=json pretty"`
	Level  string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
}

// CacheConfig holds cost-of-living cache configuration
type CacheConfig struct {
	Backend  string `mapstructure:"CACHE_BACKEND" validate:"oneof=file s3 redis sqlite postgresql mongodb"`
	FilePath string `mapstructure:"CACHE_FILE_PATH" validate:"required"`
	// BestEffortPersist tolerates cache write failures after a successful upstream fetch.
	BestEffortPersist bool `mapstructure:"CACHE_BEST_EFFORT_PERSIST"`
}

// S3Config holds the remote object store mirror configuration.
// Credentials come from the standard AWS chain (env, shared config, IMDS).
// The bucket is only needed on a cache miss, so it is not required at startup.
type S3Config struct {
	Bucket   string `mapstructure:"S3_BUCKET"`
	Key      string `mapstructure:"S3_KEY"`
	Region   string `mapstructure:"S3_REGION"`
	Endpoint string `mapstructure:"S3_ENDPOINT" validate:"omitempty,url"`
}

// RedisConfig holds Redis cache backend configuration
type RedisConfig struct {
	URL string `mapstructure:"REDIS_URL" validate:"omitempty,url"`
	Key string `mapstructure:"REDIS_KEY"`
}

// StorageConfig holds database cache backend configuration
type StorageConfig struct {
	SQLitePath       string `mapstructure:"SQLITE_PATH"`
	PostgreSQLURL    string `mapstructure:"POSTGRES_URL"`
	PostgreSQLMaxCon int    `mapstructure:"POSTGRES_MAX_CONNS" validate:"gte=0"`
	MongoDBURL       string `mapstructure:"MONGODB_URL"`
	MongoDBDatabase  string `mapstructure:"MONGODB_DATABASE"`
}

// ProvidersConfig holds the third-party API configuration
type ProvidersConfig struct {
	CostOfLiving RapidAPIConfig `mapstructure:"cost_of_living"`
	Zillow       RapidAPIConfig `mapstructure:"zillow"`
}

// RapidAPIConfig holds a RapidAPI-hosted provider's credentials.
// An empty APIKey is allowed at startup; it is only required on a cache miss.
type RapidAPIConfig struct {
	APIKey  string `mapstructure:"API_KEY"`
	Host    string `mapstructure:"HOST" validate:"required,hostname"`
	BaseURL string `mapstructure:"BASE_URL" validate:"required,url"`
}

// MetricsConfig holds Prometheus metrics configuration
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"METRICS_ENABLED"`
	Endpoint string `mapstructure:"METRICS_ENDPOINT" validate:"omitempty,startswith=/"`
}

// Load reads configuration from the .env file and environment
func Load() (*Config, error) {
	// Load .env file (optional, won't fail if not found). Real environment wins.
	_ = godotenv.Load()

	setDefaults()

	// Enable automatic environment variable reading
	viper.AutomaticEnv()

	env := strings.ToLower(viper.GetString("APP_ENV"))
	backend := viper.GetString("CACHE_BACKEND")
	cachePath := viper.GetString("CACHE_FILE_PATH")
	if backend == "" {
		backend = CacheBackendFile
		if env == EnvProduction {
			backend = CacheBackendS3
		}
	}
	if cachePath == "" {
		cachePath = DevelopmentCachePath
		if env == EnvProduction {
			cachePath = ProductionCachePath
		}
	}

	cfg := &Config{
		Env: env,
		Server: ServerConfig{
			Port:      viper.GetString("PORT"),
			MasterKey: viper.GetString("MASTER_KEY"),
		},
		Logging: LoggingConfig{
			Format: strings.ToLower(viper.GetString("LOG_FORMAT")),
			Level:  strings.ToLower(viper.GetString("LOG_LEVEL")),
		},
		Cache: CacheConfig{
			Backend:           strings.ToLower(backend),
			FilePath:          cachePath,
			BestEffortPersist: viper.GetBool("CACHE_BEST_EFFORT_PERSIST"),
		},
		S3: S3Config{
			Bucket:   viper.GetString("S3_BUCKET"),
			Key:      viper.GetString("S3_KEY"),
			Region:   viper.GetString("S3_REGION"),
			Endpoint: viper.GetString("S3_ENDPOINT"),
		},
		Redis: RedisConfig{
			URL: viper.GetString("REDIS_URL"),
			Key: viper.GetString("REDIS_KEY"),
		},
		Storage: StorageConfig{
			SQLitePath:       viper.GetString("SQLITE_PATH"),
			PostgreSQLURL:    viper.GetString("POSTGRES_URL"),
			PostgreSQLMaxCon: viper.GetInt("POSTGRES_MAX_CONNS"),
			MongoDBURL:       viper.GetString("MONGODB_URL"),
			MongoDBDatabase:  viper.GetString("MONGODB_DATABASE"),
		},
		Providers: ProvidersConfig{
			CostOfLiving: RapidAPIConfig{
				APIKey:  viper.GetString("RAPIDAPI_COST_OF_LIVING_KEY"),
				Host:    viper.GetString("RAPIDAPI_COST_OF_LIVING_HOST"),
				BaseURL: viper.GetString("RAPIDAPI_COST_OF_LIVING_BASE_URL"),
			},
			Zillow: RapidAPIConfig{
				APIKey:  viper.GetString("RAPIDAPI_ZILLOW_KEY"),
				Host:    viper.GetString("RAPIDAPI_ZILLOW_HOST"),
				BaseURL: viper.GetString("RAPIDAPI_ZILLOW_BASE_URL"),
			},
		},
		Metrics: MetricsConfig{
			Enabled:  viper.GetBool("METRICS_ENABLED"),
			Endpoint: viper.GetString("METRICS_ENDPOINT"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("APP_ENV", EnvDevelopment)
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CACHE_BEST_EFFORT_PERSIST", true)
	viper.SetDefault("S3_KEY", "citycost-cache.json")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("REDIS_KEY", "citycost:cost-of-living")
	viper.SetDefault("SQLITE_PATH", ".cache/citycost.db")
	viper.SetDefault("POSTGRES_MAX_CONNS", 10)
	viper.SetDefault("MONGODB_DATABASE", "citycost")
	viper.SetDefault("RAPIDAPI_COST_OF_LIVING_HOST", "cost-of-living-and-prices.p.rapidapi.com")
	viper.SetDefault("RAPIDAPI_COST_OF_LIVING_BASE_URL", "https://cost-of-living-and-prices.p.rapidapi.com")
	viper.SetDefault("RAPIDAPI_ZILLOW_HOST", "zillow-com1.p.rapidapi.com")
	viper.SetDefault("RAPIDAPI_ZILLOW_BASE_URL", "https://zillow-com1.p.rapidapi.com")
	viper.SetDefault("METRICS_ENDPOINT", "/metrics")
}

// Validate checks the configuration against its struct tags. Field errors are
// reported by environment variable name.
func Validate(cfg *Config) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %q)", fe.Field(), fe.Tag(), fe.Param(), fmt.Sprint(fe.Value())))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s (got %q)", fe.Field(), fe.Tag(), fmt.Sprint(fe.Value())))
		}
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
