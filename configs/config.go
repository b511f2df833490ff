package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     int
	FrontendURL string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBNameTest string
	RedisHost  string
	RedisPort  int

	JWTSecret     string
	SessionTTL    time.Duration
	EncryptionKey string
	UploadDir     string
	LogDir        string
	Timezone      string

	IntakeTTL        time.Duration
	OllamaURL        string
	OllamaModel      string
	AssistantTimeout time.Duration

	PayPalClientID string
	PayPalSecret   string
	PayPalMode     string
	StripeKey      string
}

func LoadConfig() Config {
	// .env is optional; real deployments inject the environment directly
	if err := godotenv.Load(); err != nil {
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	return Config{
		AppPort:     getEnvInt("APP_PORT", 8081),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "tenantsync"),
		DBNameTest: os.Getenv("DB_NAME_TEST"),
		RedisHost:  os.Getenv("REDIS_HOST"),
		RedisPort:  getEnvInt("REDIS_PORT", 6379),

		JWTSecret:     getEnv("JWT_SECRET", "secret"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		EncryptionKey: getEnv("ENCRYPTION_KEY", "MySecretEncryptionKey!"),
		UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
		LogDir:        getEnv("LOG_DIR", "logs"),
		Timezone:      getEnv("APP_TIMEZONE", "Local"),

		IntakeTTL:        getEnvDuration("INTAKE_TTL", 30*time.Minute),
		OllamaURL:        getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:      getEnv("OLLAMA_MODEL", "llama3"),
		AssistantTimeout: getEnvDuration("ASSISTANT_TIMEOUT", 20*time.Second),

		PayPalClientID: os.Getenv("PAYPAL_CLIENT_ID"),
		PayPalSecret:   os.Getenv("PAYPAL_SECRET"),
		PayPalMode:     getEnv("PAYPAL_MODE", "sandbox"),
		StripeKey:      os.Getenv("STRIPE_SECRET_KEY"),
	}
}

// Location resolves Timezone, falling back to the process local zone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
