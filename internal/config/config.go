package config

import "os"

// Config collects server configuration from the environment. godotenv is
// loaded by main before this is read.
type Config struct {
	Port     string
	LogLevel string
	LogFile  string

	JWTSecret string

	// Media storage
	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string
}

// Load reads configuration from environment variables with defaults
func Load() Config {
	return Config{
		Port:       getEnvOrDefault("PORT", "8890"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:    getEnvOrDefault("LOG_FILE", "server.log"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		AWSRegion:  getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSBucket:  os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
