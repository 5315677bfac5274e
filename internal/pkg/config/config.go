package config

import (
	"fmt"
	"os"
	"time"
)

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AWSConfig struct {
	Region string
	Bucket string
}

type Config struct {
	ServerPort    string
	SessionSecret string
	GeminiAPIKey  string
	API           APIConfig
	AWS           AWSConfig
}

func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:    getEnvOrDefault("SERVER_PORT", "8091"),
		SessionSecret: getEnvOrDefault("SESSION_SECRET", ""),
		GeminiAPIKey:  getEnvOrDefault("GEMINI_API_KEY", ""),
		API: APIConfig{
			BaseURL: getEnvOrDefault("COREDEV_API_URL", ""),
			Timeout: 10 * time.Second,
		},
		AWS: AWSConfig{
			Region: getEnvOrDefault("AWS_REGION", "ap-southeast-1"),
			Bucket: getEnvOrDefault("AWS_BUCKET_NAME", ""),
		},
	}

	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("COREDEV_API_URL environment variable is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
