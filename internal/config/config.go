package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Public URL of the inquiry endpoint, handed to the storefront page.
	PublicEndpointURL string
	// Redirect target returned after a successful submission.
	OrdersRedirectURL string
	// Allowed CORS origin for the storefront.
	StorefrontOrigin string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// WooCommerce backend
	WooStoreURL       string
	WooConsumerKey    string
	WooConsumerSecret string
	UseWooCommerce    bool

	// Form tokens
	FormTokenSecret string
	FormTokenTTL    time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		PublicEndpointURL: getEnv("PUBLIC_ENDPOINT_URL", "/v1/inquiries"),
		OrdersRedirectURL: getEnv("ORDERS_REDIRECT_URL", "/my-account/orders/"),
		StorefrontOrigin:  getEnv("STOREFRONT_ORIGIN", "*"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		WooStoreURL:       getEnv("WOO_STORE_URL", ""),
		WooConsumerKey:    getEnv("WOO_CONSUMER_KEY", ""),
		WooConsumerSecret: getEnv("WOO_CONSUMER_SECRET", ""),
		UseWooCommerce:    getEnv("USE_WOOCOMMERCE", "true") == "true",

		FormTokenSecret: getEnv("FORM_TOKEN_SECRET", "inquiry-default-dev-secret-change-me"),
		FormTokenTTL:    getEnvDuration("FORM_TOKEN_TTL", 12*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
