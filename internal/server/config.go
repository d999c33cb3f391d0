package server

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the relay process configuration, read from the environment
// with an optional .env file for development.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// ExecuteBaseURL points at the Piston-compatible execution API.
	// Empty means the public default.
	ExecuteBaseURL string
}

// LoadConfig reads configuration with priority env > .env file > defaults.
func LoadConfig() Config {
	// Missing .env is fine; env vars alone are the production path.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		Addr:           ":" + port,
		ExecuteBaseURL: os.Getenv("EXECUTE_API_URL"),
	}
}
