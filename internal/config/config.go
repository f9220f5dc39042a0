// Package config loads process configuration from an optional .env file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration.
type Config struct {
	// Provider is "gemini" or "openai".
	Provider string

	GeminiBaseURL    string
	GeminiAPIVersion string
	GeminiModel      string
	// FacePreservation appends the face-preservation suffix to Gemini prompts.
	FacePreservation bool

	OpenAIBaseURL string
	OpenAIModel   string

	// APIKey is handed to new sessions so users don't have to enter one.
	// APIKeyParam names an SSM parameter to fetch it from instead.
	APIKey      string
	APIKeyParam string

	// ModesFile is an optional YAML overlay for the mode registry.
	ModesFile string

	// S3 export (optional)
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
	// StoreDir exports to a local directory when no bucket is set.
	StoreDir    string
	StorePrefix string

	ServerAddress string
	LogLevel      string
	LogFormat     string

	// Timeout bounds one upstream call; zero means no extra timeout.
	Timeout time.Duration

	// Local request budget; zero RequestsPerMinute uses the provider default.
	RequestsPerMinute int
	Burst             int
}

// Load reads the given .env files (".env" when none are named), then the
// environment. Variables already set in the environment win over the files.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading env file: %w", err)
	}

	cfg := &Config{
		Provider:          strings.ToLower(getEnv("STYLEGEN_PROVIDER", "gemini")),
		GeminiBaseURL:     getEnv("GEMINI_BASE_URL", ""),
		GeminiAPIVersion:  getEnv("GEMINI_API_VERSION", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", ""),
		FacePreservation:  getEnvBool("GEMINI_FACE_PRESERVATION", true),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", ""),
		APIKey:            getEnv("STYLEGEN_API_KEY", ""),
		APIKeyParam:       getEnv("STYLEGEN_API_KEY_PARAM", ""),
		ModesFile:         getEnv("STYLEGEN_MODES_FILE", ""),
		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Region:          getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKey:       getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:       getEnv("S3_SECRET_KEY", ""),
		S3PublicURL:       getEnv("S3_PUBLIC_URL", ""),
		StoreDir:          getEnv("STYLEGEN_STORE_DIR", ""),
		StorePrefix:       getEnv("STYLEGEN_STORE_PREFIX", "generated"),
		ServerAddress:     getEnv("SERVER_ADDRESS", ":8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		Timeout:           time.Duration(getEnvInt("STYLEGEN_TIMEOUT_SECONDS", 0)) * time.Second,
		RequestsPerMinute: getEnvInt("STYLEGEN_REQUESTS_PER_MINUTE", 0),
		Burst:             getEnvInt("STYLEGEN_BURST", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("unsupported STYLEGEN_PROVIDER: %q", c.Provider)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("STYLEGEN_TIMEOUT_SECONDS must not be negative")
	}
	if c.RequestsPerMinute < 0 || c.Burst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes" || value == "on"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if i, err := strconv.Atoi(value); err == nil {
		return i
	}
	return defaultValue
}
