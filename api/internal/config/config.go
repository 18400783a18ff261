package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all dynamic configuration for the service.
type Config struct {
	Environment    string // "development" or "production"
	Port           string
	AllowedOrigins []string

	// DatabaseURL is optional: when empty the service runs stateless and
	// skips envelope/audit persistence.
	DatabaseURL string

	JWTSecret    string
	APIAccessKey string

	// EncryptionSecret is the password the cipher key is derived from.
	EncryptionSecret string

	// Classifier backends. Either may be empty, in which case that tier is
	// simply not configured and the detector falls through.
	OpenAIAPIKey      string
	OpenAIModel       string
	InferenceURL      string
	ClassifierTimeout time.Duration
}

// Load parses the environment (with .env autoload) and applies sensible
// default fallbacks. Missing secrets are fatal in production only.
func Load() *Config {
	// A missing .env file is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	env := getEnv("EMOTIONCRYPT_ENV", "production")

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		if env == "production" {
			log.Fatal("[FATAL] JWT_SECRET environment variable is required in production.")
		}
		jwtSecret = "dev-only-jwt-secret"
	}

	apiAccessKey := getEnv("API_ACCESS_KEY", "")
	if apiAccessKey == "" && env == "production" {
		log.Fatal("[FATAL] API_ACCESS_KEY environment variable is required in production.")
	}

	encryptionSecret := getEnv("ENCRYPTION_SECRET", "")
	if encryptionSecret == "" {
		// A generated secret keeps the service usable, but envelopes from
		// this run cannot be decrypted by a later run.
		encryptionSecret = generateSecret()
		log.Println("[WARN] ENCRYPTION_SECRET not set; generated an ephemeral secret for this process.")
	}

	corsOrigins := getEnv("CORS_ALLOWED_ORIGINS", "")
	if corsOrigins == "" {
		if env == "production" {
			log.Fatal("[FATAL] CORS_ALLOWED_ORIGINS environment variable is required in production.")
		}
		corsOrigins = "http://localhost:5173"
	}

	timeoutSecs, err := strconv.Atoi(getEnv("CLASSIFIER_TIMEOUT_SECONDS", "15"))
	if err != nil || timeoutSecs <= 0 {
		timeoutSecs = 15
	}

	return &Config{
		Environment:       env,
		Port:              getEnv("PORT", "8080"),
		AllowedOrigins:    strings.Split(corsOrigins, ","),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTSecret:         jwtSecret,
		APIAccessKey:      apiAccessKey,
		EncryptionSecret:  encryptionSecret,
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		InferenceURL:      getEnv("INFERENCE_URL", ""),
		ClassifierTimeout: time.Duration(timeoutSecs) * time.Second,
	}
}

func generateSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		log.Fatalf("[FATAL] Could not generate an encryption secret: %v", err)
	}
	return hex.EncodeToString(buf)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
