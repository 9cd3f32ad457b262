package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Provider ProviderConfig
	Pipeline PipelineConfig
	HTTP     HTTPConfig
	SMTP     SMTPConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers     []string
	TopicAlerts string
}

// ProviderConfig holds the upstream weather API settings.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// PipelineConfig controls the ingestion cycle.
type PipelineConfig struct {
	// Cities is the fixed set of monitored city names.
	Cities []string
	// FetchInterval is how often a full ingest-aggregate-evaluate cycle runs.
	FetchInterval time.Duration
	// ReadingRetention is how long raw readings are kept before the store expires them.
	ReadingRetention time.Duration
	// CurrentCacheTTL bounds staleness of the current-conditions passthrough cache.
	CurrentCacheTTL time.Duration
}

type HTTPConfig struct {
	Port        int
	MetricsPort int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "weather_user"),
			Password: getEnv("DB_PASSWORD", "weather_pass"),
			DBName:   getEnv("DB_NAME", "weather_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:     strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicAlerts: getEnv("KAFKA_TOPIC_ALERTS", "weather.alerts"),
		},
		Provider: ProviderConfig{
			BaseURL: getEnv("OPENWEATHER_API_URL", "https://api.openweathermap.org/data/2.5"),
			APIKey:  getEnv("OPENWEATHER_API_KEY", ""),
			Timeout: getEnvAsDuration("OPENWEATHER_TIMEOUT", 10*time.Second),
		},
		Pipeline: PipelineConfig{
			Cities:           splitCities(getEnv("CITIES", "Delhi,Mumbai,Chennai,Bangalore,Kolkata,Hyderabad")),
			FetchInterval:    getEnvAsDuration("FETCH_INTERVAL", 5*time.Minute),
			ReadingRetention: getEnvAsDuration("READING_RETENTION", 7*24*time.Hour),
			CurrentCacheTTL:  getEnvAsDuration("CURRENT_CACHE_TTL", 60*time.Second),
		},
		HTTP: HTTPConfig{
			Port:        getEnvAsInt("HTTP_PORT", 8080),
			MetricsPort: getEnvAsInt("METRICS_PORT", 9090),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "weather-monitor@example.com"),
		},
	}

	if len(config.Pipeline.Cities) == 0 {
		return nil, fmt.Errorf("CITIES must name at least one city")
	}

	return config, nil
}

// splitCities parses a comma-separated city list, trimming whitespace and
// dropping empty entries.
func splitCities(s string) []string {
	var cities []string
	for _, part := range strings.Split(s, ",") {
		if city := strings.TrimSpace(part); city != "" {
			cities = append(cities, city)
		}
	}
	return cities
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
