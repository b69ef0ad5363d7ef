package app

import (
	"os"
	"strconv"
	"time"

	httpapi "github.com/aussiebroadwan/oauth2d/internal/oauth2d/http"
	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
)

type Config struct {
	ConfigFile string // Path to the clients/users/endpoints YAML file (default: oauth2d.yaml)
	Issuer     string // Issuer claim for tokens (default: oauth2d)

	Algorithm      string        // JWT signing algorithm, RS256 or HS256 (default: RS256)
	KeyID          string        // Optional: kid of the initial key (generated when empty)
	PrivateKeyFile string        // Optional: PEM RSA private key for RS256 (generated when empty)
	RSABits        int           // Optional: RSA key size for generated keys (default: 2048)
	HMACSecret     string        // HS256 secret, at least 32 bytes
	HMACSecretFile string        // Alternative to HMACSecret
	KeyGracePeriod time.Duration // How long a rotated-out key keeps verifying (default: longest refresh token TTL)

	AccessTokenTTL  time.Duration // Server default access token lifetime (default: 12h)
	RefreshTokenTTL time.Duration // Server default refresh token lifetime (default: 30d)
	CodeTTL         time.Duration // Authorization code lifetime (default: 5m)

	StoreDriver   string        // memory, sqlite or redis (default: memory)
	DatabaseFile  string        // sqlite database file (default: oauth2d.db)
	RedisAddr     string        // redis address (default: localhost:6379)
	RedisPassword string        // Optional
	RedisDB       int           // redis database number (default: 0)
	RedisPrefix   string        // Optional: key prefix
	StoreTimeout  time.Duration // Per-call store deadline (default: 2s)
	AuthTimeout   time.Duration // Per-call user authentication deadline (default: 2s)

	PepperFile          string        // Path to the pepper for secret hashing (default: ./pepper)
	Env                 string        // Environment (dev, test, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	RateLimits httpapi.RateLimits
}

func LoadConfig() Config {
	cfg := Config{
		ConfigFile: getEnvOrDefault("OAUTH2D_CONFIG", "oauth2d.yaml"),
		Issuer:     getEnvOrDefault("AUTH_ISSUER", "oauth2d"),

		Algorithm:      getEnvOrDefault("AUTH_ALGORITHM", "RS256"),
		KeyID:          os.Getenv("AUTH_KEY_ID"),
		PrivateKeyFile: os.Getenv("AUTH_PRIVATE_KEY_FILE"),
		RSABits:        getEnvIntOrDefault("AUTH_RSA_BITS", 0), // 0 lets the KeyManager pick
		HMACSecret:     os.Getenv("AUTH_HMAC_SECRET"),
		HMACSecretFile: os.Getenv("AUTH_HMAC_SECRET_FILE"),
		KeyGracePeriod: getEnvDurationOrDefault("AUTH_KEY_GRACE_PERIOD", 0), // 0 resolves to the longest refresh TTL

		AccessTokenTTL:  getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_TTL", 12*time.Hour),
		RefreshTokenTTL: getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_TTL", 30*24*time.Hour),
		CodeTTL:         getEnvDurationOrDefault("AUTH_CODE_TTL", 5*time.Minute),

		StoreDriver:   getEnvOrDefault("STORE_DRIVER", "memory"),
		DatabaseFile:  getEnvOrDefault("STORE_DATABASE_FILE", "oauth2d.db"),
		RedisAddr:     getEnvOrDefault("STORE_REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("STORE_REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("STORE_REDIS_DB", 0),
		RedisPrefix:   os.Getenv("STORE_REDIS_PREFIX"),
		StoreTimeout:  getEnvDurationOrDefault("STORE_TIMEOUT", 2*time.Second),
		AuthTimeout:   getEnvDurationOrDefault("AUTH_PROVIDER_TIMEOUT", 2*time.Second),

		PepperFile:          getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	def := httpapi.DefaultRateLimits()
	cfg.RateLimits = httpapi.RateLimits{
		Token:     httpx.ParseRateLimitFromEnv("TOKEN", def.Token),
		Authorize: httpx.ParseRateLimitFromEnv("AUTHORIZE", def.Authorize),
		Client:    httpx.ParseRateLimitFromEnv("CLIENT", def.Client),
		Public:    httpx.ParseRateLimitFromEnv("PUBLIC", def.Public),
	}
	if os.Getenv("RATELIMIT_DISABLED") == "true" {
		cfg.RateLimits = httpapi.RateLimits{}
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
