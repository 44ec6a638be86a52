package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the service reads. Values come from the
// environment once at startup; there is no hot reload.
type Config struct {
	Environment string

	Server    ServerConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Gemini    GeminiConfig
	Collector CollectorConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type RedisConfig struct {
	URL      string
	Enabled  bool
	DedupTTL time.Duration
}

type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type GeminiConfig struct {
	APIKey   string
	Model    string
	Endpoint string
	Timeout  time.Duration
}

// CollectorConfig drives the collection pipeline: fetch timeouts, retry
// policy, fan-out cap and the relevance policy for the normalizer filter.
type CollectorConfig struct {
	RequestTimeout  time.Duration
	RetryCount      int
	ConcurrencyCap  int
	UserAgent       string
	CollectOnStart  bool
	CertInEnabled   bool
	NewsEnabled     bool
	FeedsEnabled    bool
	RelevancePolicy string // "strict" drops non-matching items, "inclusive" keeps them
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig reads .env (if present) and builds the typed configuration.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnvInt("PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			CORSOrigins:  getEnvList("CORS_ORIGINS", "http://localhost:3000"),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:   getEnv("DB_NAME", "cyber-incidents"),
			Collection: getEnv("COLLECTION_NAME", "incidents"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379/0"),
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			DedupTTL: getEnvDuration("DEDUP_CACHE_TTL", 72*time.Hour),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: getEnvList("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getEnv("KAFKA_TOPIC", "cyber-incidents"),
		},
		Gemini: GeminiConfig{
			APIKey:   getEnv("GEMINI_API_KEY", ""),
			Model:    getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Endpoint: getEnv("GEMINI_ENDPOINT", "https://generativelanguage.googleapis.com/v1beta"),
			Timeout:  getEnvDuration("GEMINI_TIMEOUT", 30*time.Second),
		},
		Collector: CollectorConfig{
			RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
			RetryCount:      getEnvInt("RETRY_COUNT", 2),
			ConcurrencyCap:  getEnvInt("MAX_CONCURRENT_REQUESTS", 5),
			UserAgent:       getEnv("USER_AGENT", "CyberFeed-Collector/1.0"),
			CollectOnStart:  getEnvBool("COLLECT_ON_START", true),
			CertInEnabled:   getEnvBool("CERT_IN_ENABLED", true),
			NewsEnabled:     getEnvBool("NEWS_SCRAPING_ENABLED", true),
			FeedsEnabled:    getEnvBool("RSS_FEEDS_ENABLED", true),
			RelevancePolicy: getEnv("RELEVANCE_POLICY", "strict"),
		},
		RateLimit: RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// StrictRelevance reports whether the normalizer should drop items that do
// not match the relevance keyword sets.
func (c *Config) StrictRelevance() bool {
	return strings.EqualFold(c.Collector.RelevancePolicy, "strict")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		// Bare integers are seconds, matching the older deployments.
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
