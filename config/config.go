package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string
	AppMode string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	ReservationServiceURL string
	PaymentServiceURL     string
	RemoteCallTimeout     time.Duration

	AppendLimitPerMin    int
	SagaStartLimitPerMin int
}

func LoadConfig() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		AppPort:    getEnv("APP_PORT", "8080"),
		AppMode:    getEnv("APP_MODE", "debug"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "tickethub_core"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		ReservationServiceURL: getEnv("RESERVATIONS_SERVICE_URL", "http://localhost:3000"),
		PaymentServiceURL:     getEnv("PAYMENTS_SERVICE_URL", "http://localhost:5000"),
		RemoteCallTimeout:     getEnvAsDuration("REMOTE_CALL_TIMEOUT", 10*time.Second),

		AppendLimitPerMin:    getEnvAsInt("APPEND_LIMIT_PER_MIN", 300),
		SagaStartLimitPerMin: getEnvAsInt("SAGA_START_LIMIT_PER_MIN", 30),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}
