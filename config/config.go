package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	JwtSecret  string

	// Record Store (Firebase Realtime Database REST surface). When the
	// database URL is empty the server falls back to an in-memory store.
	FirebaseDatabaseURL    string
	FirebaseAuthToken      string
	FirebaseProjectID      string
	FirebaseServiceAccount string

	// Identity Service (admin credential checks). Optional; admin login
	// falls back to the stored password hash when unset.
	IdentityAPIKey string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheBackend  string // "redis" or "memory"

	PollInterval      time.Duration
	ReminderLead      time.Duration
	ReminderScanEvery time.Duration

	LogLevel  string
	LogFormat string
}

// NewConfig reads configuration from the environment. A local .env file is
// loaded first when present.
func NewConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "6066"),
		JwtSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),

		FirebaseDatabaseURL:    getEnv("FIREBASE_DATABASE_URL", ""),
		FirebaseAuthToken:      getEnv("FIREBASE_AUTH_TOKEN", ""),
		FirebaseProjectID:      getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseServiceAccount: getEnv("FIREBASE_SERVICE_ACCOUNT", ""),

		IdentityAPIKey: getEnv("IDENTITY_API_KEY", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		CacheBackend:  getEnv("CACHE_BACKEND", "memory"),

		PollInterval:      time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 2)) * time.Second,
		ReminderLead:      time.Duration(getEnvInt("REMINDER_LEAD_MINUTES", 5)) * time.Minute,
		ReminderScanEvery: time.Duration(getEnvInt("REMINDER_SCAN_SECONDS", 60)) * time.Second,

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}
