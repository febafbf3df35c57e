package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	SMTP      SMTPConfig
	Auth      AuthConfig
	Assistant AssistantConfig
	Handoff   HandoffConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type AuthConfig struct {
	JwtSecret string
	TokenTTL  time.Duration
}

type AssistantConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxAttempts int
	RetryBase   time.Duration
}

// HandoffConfig carries the timing knobs for presence and session lifecycle.
type HandoffConfig struct {
	SweepInterval      time.Duration // how often the presence sweep runs
	PresenceThreshold  time.Duration // heartbeat staleness before available -> offline
	SessionIdleTimeout time.Duration // no user input before the session is ended
	ReaperInterval     time.Duration // how often the inactivity reaper runs
	SnapshotTurns      int           // conversation turns captured on handoff request
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "HandoffDesk"),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsDuration("JWT_TOKEN_TTL", 12*time.Hour),
		},
		Assistant: AssistantConfig{
			BaseURL:     getEnv("ASSISTANT_BASE_URL", "http://localhost:8090"),
			APIKey:      getEnv("ASSISTANT_API_KEY", ""),
			Model:       getEnv("ASSISTANT_MODEL", "default"),
			MaxAttempts: getEnvAsInt("ASSISTANT_MAX_ATTEMPTS", 3),
			RetryBase:   getEnvAsDuration("ASSISTANT_RETRY_BASE", 250*time.Millisecond),
		},
		Handoff: HandoffConfig{
			SweepInterval:      getEnvAsDuration("PRESENCE_SWEEP_INTERVAL", 60*time.Second),
			PresenceThreshold:  getEnvAsDuration("PRESENCE_THRESHOLD", 120*time.Second),
			SessionIdleTimeout: getEnvAsDuration("SESSION_IDLE_TIMEOUT", 5*time.Minute),
			ReaperInterval:     getEnvAsDuration("SESSION_REAPER_INTERVAL", 60*time.Second),
			SnapshotTurns:      getEnvAsInt("HANDOFF_SNAPSHOT_TURNS", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
