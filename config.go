package arango

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	defaultHost = "localhost"
	defaultPort = 8529
)

// NewFromEnv builds a Config from environment variables, loading a .env file
// from the given directory first when one exists. Recognized variables:
//
//	ARANGO_PROTOCOL  http or https, defaults to http
//	ARANGO_HOST      defaults to localhost
//	ARANGO_PORT      defaults to 8529
//	ARANGO_USER
//	ARANGO_PASSWORD
//	ARANGO_USE_JWT   "true" switches to JWT authentication
func NewFromEnv(dir string) Config {
	if dir != "" {
		_ = godotenv.Load(dir + "/.env")
	}

	port := defaultPort
	if p, err := strconv.Atoi(os.Getenv("ARANGO_PORT")); err == nil && p > 0 {
		port = p
	}

	return Config{
		Protocol: getOrDefault("ARANGO_PROTOCOL", defaultProtocol),
		Host:     getOrDefault("ARANGO_HOST", defaultHost),
		Port:     port,
		User:     os.Getenv("ARANGO_USER"),
		Password: os.Getenv("ARANGO_PASSWORD"),
		UseJWT:   os.Getenv("ARANGO_USE_JWT") == "true",
	}
}

func getOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
