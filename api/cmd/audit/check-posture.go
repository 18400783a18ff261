// Command check-posture audits the deployment environment before launch.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	minJWTSecretLen        = 32
	minEncryptionSecretLen = 16
)

func main() {
	fmt.Println("EmotionCrypt: running deployment posture audit...")

	if err := godotenv.Load(); err != nil {
		fmt.Println("NOTICE: no .env file found, checking system env vars...")
	}

	hasErrors := false

	// --- Audit Point 1: Encryption secret ---
	encSecret := os.Getenv("ENCRYPTION_SECRET")
	switch {
	case encSecret == "":
		fmt.Println("FAIL: ENCRYPTION_SECRET is not set. The service would boot with an ephemeral secret and envelopes would not survive a restart.")
		hasErrors = true
	case len(encSecret) < minEncryptionSecretLen:
		fmt.Printf("FAIL: ENCRYPTION_SECRET is too short. Min: %d characters (Current: %d)\n", minEncryptionSecretLen, len(encSecret))
		hasErrors = true
	default:
		fmt.Println("PASS: Encryption secret is set and long enough.")
	}

	// --- Audit Point 2: JWT secret strength ---
	jwtSec := os.Getenv("JWT_SECRET")
	if len(jwtSec) < minJWTSecretLen {
		fmt.Printf("FAIL: JWT_SECRET is too short. Min: %d characters (Current: %d)\n", minJWTSecretLen, len(jwtSec))
		hasErrors = true
	} else {
		fmt.Println("PASS: JWT secret length is sufficient.")
	}

	// --- Audit Point 3: API access key ---
	if os.Getenv("API_ACCESS_KEY") == "" {
		fmt.Println("FAIL: API_ACCESS_KEY must be set; without it no client can mint read tokens.")
		hasErrors = true
	} else {
		fmt.Println("PASS: API access key is set.")
	}

	// --- Audit Point 4: CORS discipline ---
	cors := os.Getenv("CORS_ALLOWED_ORIGINS")
	if strings.Contains(cors, "*") {
		fmt.Println("FAIL: CORS_ALLOWED_ORIGINS must not contain a wildcard in production.")
		hasErrors = true
	} else if cors == "" {
		fmt.Println("NOTICE: CORS_ALLOWED_ORIGINS is unset (required in production).")
	} else {
		fmt.Println("PASS: CORS origins are explicitly pinned.")
	}

	// --- Audit Point 5: Database credentials ---
	dbURL := os.Getenv("DATABASE_URL")
	if strings.Contains(dbURL, "dev_password") {
		fmt.Println("FAIL: DATABASE_URL is using default development credentials.")
		hasErrors = true
	} else if dbURL == "" {
		fmt.Println("NOTICE: DATABASE_URL is unset; the service will run stateless.")
	} else {
		fmt.Println("PASS: Database URL does not use default credentials.")
	}

	fmt.Println("--------------------------------------------------")
	if hasErrors {
		fmt.Println("VERDICT: POSTURE FAILED. Fix the errors above before deployment.")
		os.Exit(1)
	}
	fmt.Println("VERDICT: POSTURE VALIDATED. System is ready for launch.")
}
