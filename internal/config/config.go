package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	GitHub      GitHubConfig
	RateLimit   RateLimitConfig
	MetricsPush MetricsPushConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	MongoURI      string
	MongoDatabase string
}

// GitHubConfig points the ingestion jobs at the upstream Copilot API.
type GitHubConfig struct {
	MetricsURL     string
	BillingURL     string
	Token          string
	TimeoutSeconds int
}

type RateLimitConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	APIRate       float64
	APIBurst      int
	LockTTLSecond int
}

type MetricsPushConfig struct {
	Exporter  string
	Endpoint  string
	AuthToken string
}

const (
	DBTypePostgres = "postgres"
	DBTypeMySQL    = "mysql"
	DBTypeSQLite   = "sqlite"
	DBTypeMongo    = "mongodb"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "copilot-insights"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		GitHub: GitHubConfig{
			MetricsURL:     strings.TrimSpace(getenv("GITHUB_METRICS_URL", "")),
			BillingURL:     strings.TrimSpace(getenv("GITHUB_BILLING_URL", "")),
			Token:          strings.TrimSpace(getenv("GITHUB_TOKEN", "")),
			TimeoutSeconds: getenvInt("GITHUB_TIMEOUT_SECONDS", 30),
		},
		RateLimit: RateLimitConfig{
			RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			RedisPassword: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			RedisDB:       getenvInt("REDIS_DB", 0),
			APIRate:       getenvFloat("API_RATE_LIMIT", 0),
			APIBurst:      getenvInt("API_RATE_BURST", 0),
			LockTTLSecond: getenvInt("INGEST_LOCK_TTL_SECONDS", 300),
		},
		MetricsPush: MetricsPushConfig{
			Exporter:  strings.ToLower(strings.TrimSpace(getenv("METRICS_PUSH_EXPORTER", ""))),
			Endpoint:  strings.TrimSpace(getenv("METRICS_PUSH_ENDPOINT", "")),
			AuthToken: strings.TrimSpace(getenv("METRICS_PUSH_AUTH_TOKEN", "")),
		},
		DBType:            normalizeDBType(getenv("DATABASE_TYPE", DBTypePostgres)),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "copilot_insights"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "copilot-insights.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),
		MongoURI:          getenv("MONGODB_URI", "mongodb://localhost:27017/"),
		MongoDatabase:     getenv("MONGODB_DATABASE", "GitHubCopilotData"),
	}

	return cfg
}

// UsesMongo reports whether the document store backend is selected.
func (c Config) UsesMongo() bool {
	return c.DBType == DBTypeMongo
}

// RedisEnabled reports whether a redis address was configured.
func (c Config) RedisEnabled() bool {
	return strings.TrimSpace(c.RateLimit.RedisAddr) != ""
}

func normalizeDBType(raw string) string {
	value := strings.ToLower(strings.TrimSpace(raw))
	switch value {
	case "mongo", DBTypeMongo:
		return DBTypeMongo
	case "postgresql", "pg", DBTypePostgres:
		return DBTypePostgres
	default:
		return value
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
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
