package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	// SnowflakeNode identifies this instance for ID generation.
	SnowflakeNode int64

	// RBACConfigPath points at the capability vocabulary file (rbac.yml).
	// Empty means compiled-in defaults.
	RBACConfigPath string

	// RateLimit configures the per-actor API limiter; disabled unless a
	// redis address is set.
	RateLimit RateLimitConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
}

type RateLimitConfig struct {
	Enabled   bool
	RedisAddr string
	Rate      float64
	Burst     int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:        getenv("APP_SERVICE", "multilang"),
		AppVersion:     getenv("APP_VERSION", "0.1.0"),
		Environment:    getenv("ENVIRONMENT", "development"),
		HTTPAddr:       getenv("HTTP_ADDR", ":8080"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		SnowflakeNode:  getenvInt64("SNOWFLAKE_NODE", 1),
		RBACConfigPath: strings.TrimSpace(getenv("RBAC_CONFIG_PATH", "")),
		RateLimit: RateLimitConfig{
			Enabled:   getenv("RATE_LIMIT_ENABLED", "false") == "true",
			RedisAddr: strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			Rate:      getenvFloat("RATE_LIMIT_RATE", 20),
			Burst:     getenvInt("RATE_LIMIT_BURST", 40),
		},
		DBType:         getenv("DATABASE_TYPE", "postgres"),
		DBHost:         getenv("DATABASE_HOST", "localhost"),
		DBPort:         getenv("DATABASE_PORT", "5432"),
		DBName:         getenv("DATABASE_NAME", "multilang"),
		DBUser:         getenv("DATABASE_USER", "postgres"),
		DBPassword:     getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:      getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:  getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:  getenvInt("DATABASE_MAX_OPEN_CONN", 25),
	}
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// Module wires application configuration.
var Module = fx.Module("config",
	fx.Provide(Load),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	return int(getenvInt64(key, int64(def)))
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}
