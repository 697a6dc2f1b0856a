package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string
	LogLevel     string
	LogFormat    string

	// Upload settings
	MaxUploadSizeBytes int64
	ColumnAliasesPath  string

	// CORS
	AllowedOrigins []string

	// Tradier API
	TradierAPIKey  string
	TradierBaseURL string

	// Webull API
	WebullAPIKey  string
	WebullBaseURL string

	// Upstream behaviour
	QuoteTimeout    time.Duration
	OrderTimeout    time.Duration
	QuoteCacheTTL   time.Duration
	QuoteMaxRetries int

	// Trading authorization. Empty disables the place-trade endpoint.
	TradeSigningSecret []byte
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	errEnv := godotenv.Load()

	// Running from /backend usually means the .env lives one level up.
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	tradeSecret := getEnv("TRADE_SIGNING_SECRET", "")
	if tradeSecret == "" {
		log.Println("WARNING: TRADE_SIGNING_SECRET not set. Order placement is disabled.")
	} else if len(tradeSecret) < 32 {
		log.Println("WARNING: TRADE_SIGNING_SECRET is shorter than 32 characters.")
	}

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./optionledger.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFormat:    getEnv("LOG_FORMAT", "json"),

		MaxUploadSizeBytes: maxUploadSizeBytes,
		ColumnAliasesPath:  getEnv("COLUMN_ALIASES_PATH", ""),

		AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),

		TradierAPIKey:  getEnv("TRADIER_API_KEY", ""),
		TradierBaseURL: strings.TrimRight(getEnv("TRADIER_BASE_URL", "https://api.tradier.com/v1"), "/"),
		WebullAPIKey:   getEnv("WEBULL_API_KEY", ""),
		WebullBaseURL:  strings.TrimRight(getEnv("WEBULL_BASE_URL", "https://api.webull.com/api"), "/"),

		QuoteTimeout:    getEnvAsDuration("QUOTE_TIMEOUT", 10*time.Second),
		OrderTimeout:    getEnvAsDuration("ORDER_TIMEOUT", 30*time.Second),
		QuoteCacheTTL:   getEnvAsDuration("QUOTE_CACHE_TTL", time.Minute),
		QuoteMaxRetries: getEnvAsInt("QUOTE_MAX_RETRIES", 3),

		TradeSigningSecret: []byte(tradeSecret),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, TradierConfigured=%t, WebullConfigured=%t",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.TradierAPIKey != "", Cfg.WebullAPIKey != "")
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if strings.HasSuffix(key, "_KEY") || strings.HasSuffix(key, "_SECRET") {
		log.Printf("Environment variable %s not set", key)
		return fallback
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList splits a comma-separated variable, dropping empty entries.
func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
