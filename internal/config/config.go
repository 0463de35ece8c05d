package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	NodeEnv   string
	Port      string
	JWTSecret string
	LogLevel  string
	Database  DatabaseConfig
	Catalog   CatalogConfig
	Lookup    LookupConfig
	OCR       OCRConfig
	Assist    AssistConfig
	Storage   StorageConfig
	Matching  MatchingConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Alter    bool
}

// CatalogConfig selects the product catalog backend
type CatalogConfig struct {
	Backend      string // database, odoo
	OdooURL      string
	OdooDatabase string
	OdooUsername string
	OdooPassword string
}

// LookupConfig holds the external product lookup (Open Food Facts) settings
type LookupConfig struct {
	BaseURL        string
	TimeoutSeconds int
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	CacheTTLHours  int
}

// OCRConfig holds Azure Computer Vision settings
type OCRConfig struct {
	Endpoint string
	APIKey   string
	Enhance  bool
}

// AssistConfig holds the Gemini assisted matcher settings
type AssistConfig struct {
	GeminiAPIKey string
	Model        string
}

// StorageConfig holds receipt image upload settings
type StorageConfig struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

// MatchingConfig holds reconciliation thresholds
type MatchingConfig struct {
	Strategy          string // greedy, best-first
	FuzzyAccept       float64
	FuzzyHigh         float64
	VarianceThreshold decimal.Decimal
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	variance, err := decimal.NewFromString(getEnv("VARIANCE_THRESHOLD", "1.00"))
	if err != nil {
		return nil, fmt.Errorf("VARIANCE_THRESHOLD: %w", err)
	}

	strategy := getEnv("MATCH_STRATEGY", "greedy")
	if strategy != "greedy" && strategy != "best-first" {
		return nil, fmt.Errorf("MATCH_STRATEGY must be greedy or best-first, got %q", strategy)
	}

	backend := getEnv("CATALOG_BACKEND", "database")
	if backend != "database" && backend != "odoo" {
		return nil, fmt.Errorf("CATALOG_BACKEND must be database or odoo, got %q", backend)
	}

	return &Config{
		NodeEnv:   getEnv("NODE_ENV", "development"),
		Port:      getEnv("PORT", "3210"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "eckreceive"),
			Alter:    getEnv("DB_ALTER", "false") == "true",
		},
		Catalog: CatalogConfig{
			Backend:      backend,
			OdooURL:      os.Getenv("ODOO_URL"),
			OdooDatabase: os.Getenv("ODOO_DB"),
			OdooUsername: os.Getenv("ODOO_USER"),
			OdooPassword: os.Getenv("ODOO_PASSWORD"),
		},
		Lookup: LookupConfig{
			BaseURL:        getEnv("OFF_BASE_URL", "https://world.openfoodfacts.org"),
			TimeoutSeconds: getEnvInt("OFF_TIMEOUT_SECONDS", 8),
			RedisAddr:      os.Getenv("REDIS_ADDR"),
			RedisPassword:  os.Getenv("REDIS_PASSWORD"),
			RedisDB:        getEnvInt("REDIS_DB", 0),
			CacheTTLHours:  getEnvInt("OFF_CACHE_TTL_HOURS", 72),
		},
		OCR: OCRConfig{
			Endpoint: os.Getenv("AZURE_VISION_ENDPOINT"),
			APIKey:   os.Getenv("AZURE_VISION_KEY"),
			Enhance:  getEnv("OCR_ENHANCE", "true") == "true",
		},
		Assist: AssistConfig{
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
			Model:        os.Getenv("GEMINI_MODEL"),
		},
		Storage: StorageConfig{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			PublicBaseURL:   os.Getenv("S3_PUBLIC_BASE_URL"),
		},
		Matching: MatchingConfig{
			Strategy:          strategy,
			FuzzyAccept:       getEnvFloat("FUZZY_ACCEPT", 0.3),
			FuzzyHigh:         getEnvFloat("FUZZY_HIGH", 0.6),
			VarianceThreshold: variance,
		},
	}, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
