// Command emotioncrypt runs a local encrypt -> decrypt round trip with the
// deterministic fallback classifier. Useful for inspecting envelope output
// without standing up the API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"emotioncrypt/api/internal/core/services"
	"emotioncrypt/api/internal/infrastructure/crypto"
)

func main() {
	message := flag.String("message", "Feeling ecstatic about joining the new AI research team, though a bit anxious about the deadlines ahead.", "message to encrypt")
	secret := flag.String("secret", "demo-secret", "password the cipher key is derived from")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	engine, err := crypto.NewAESCipherEngine(*secret)
	if err != nil {
		logger.Error("cipher engine init failed", "error", err)
		os.Exit(1)
	}

	// No adapters: detection runs on the keyword fallback, so output is
	// fully deterministic for a given message.
	detector := services.NewDetector(logger)
	svc := services.NewEnvelopeService(engine, detector, logger)

	ctx := context.Background()

	envelope, err := svc.Encrypt(ctx, *message)
	if err != nil {
		logger.Error("encrypt failed", "error", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(envelope, "", "  ")
	fmt.Println("Envelope:")
	fmt.Println(string(out))

	result, err := svc.Decrypt(ctx, envelope)
	if err != nil {
		logger.Error("decrypt failed", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("Original Message:  %s\n", result.OriginalMessage)
	fmt.Printf("Detected Emotion:  %v\n", result.DetectedEmotion)
	fmt.Printf("Verified Emotion:  %v\n", result.VerifiedEmotion)
	fmt.Printf("Integrity OK:      %v\n", result.IntegrityOK)
	fmt.Printf("Round Trip OK:     %v\n", result.OriginalMessage == *message)
}
