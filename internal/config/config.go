package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values loaded from environment variables.
type Config struct {
	HTTPPort        string
	DatabaseURL     string
	JWTSecret       string
	TokenExpiration time.Duration

	// Upstream text-generation provider (Cohere chat API).
	CohereAPIKey   string
	CohereAPIURL   string
	CohereModel    string
	LLMTemperature float64
	LLMMaxTokens   int

	// Web search provider (SerpAPI).
	SerpAPIKey        string
	SerpAPIURL        string
	SearchResultCount int

	// Messages mentioning a year strictly greater than this trigger the
	// web-search strategy.
	SearchCutoffYear int
}

// LoadConfig loads configuration from environment variables.
// It looks for a .env file first, then checks actual environment variables.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file (useful for development)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Could not load .env file. Using environment variables only.", err)
		// Don't fail if .env is not present, might be in production
	}

	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		log.Fatal("FATAL: DATABASE_URL environment variable is not set.")
	}

	cohereKey := getEnv("COHERE_API_KEY", "")
	if cohereKey == "" {
		log.Fatal("FATAL: COHERE_API_KEY environment variable is not set.")
	}

	serpKey := getEnv("SERP_API_KEY", "")
	if serpKey == "" {
		log.Fatal("FATAL: SERP_API_KEY environment variable is not set.")
	}

	cfg := &Config{
		HTTPPort:          getEnv("HTTP_PORT", "8080"),
		DatabaseURL:       dbURL,
		JWTSecret:         getEnv("JWT_SECRET", "default-super-secret-key"), // CHANGE THIS IN PRODUCTION!
		TokenExpiration:   time.Hour * time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)),
		CohereAPIKey:      cohereKey,
		CohereAPIURL:      getEnv("COHERE_API_URL", "https://api.cohere.ai/v1/chat"),
		CohereModel:       getEnv("COHERE_MODEL", "command-r-plus"),
		LLMTemperature:    0.5,
		LLMMaxTokens:      1000,
		SerpAPIKey:        serpKey,
		SerpAPIURL:        getEnv("SERP_API_URL", "https://serpapi.com/search"),
		SearchResultCount: getEnvInt("SEARCH_RESULT_COUNT", 3),
		SearchCutoffYear:  getEnvInt("SEARCH_CUTOFF_YEAR", 2022),
	}

	log.Printf("Loaded config: Port=%s, DB_URL=***, TokenExp=%s, Model=%s, CutoffYear=%d",
		cfg.HTTPPort, cfg.TokenExpiration, cfg.CohereModel, cfg.SearchCutoffYear)

	return cfg, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Env variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvInt retrieves an integer environment variable or returns a default value.
func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s', using default %d. Error: %v", key, value, fallback, err)
		return fallback
	}
	return n
}
