package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment names recognized by the app. Anything other than "production"
// is treated as development.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config stores the application configuration. It is built once at startup
// and injected into constructors; nothing reads environment variables after Load.
type Config struct {
	AppEnv     string // "development" or "production"
	ServerAddr string // listen address, e.g. ":8080"

	// CORS origin allowed on the proxy and API endpoints. Empty means "*".
	AllowedOrigin string

	// Proxy host allow-list. Each entry is an exact host ("cdn.example.com",
	// may include a port), a wildcard ("*.example.com"), or a full URL whose
	// host component is kept.
	ProxyAllowedHosts []string

	// Hosts whose media is already public/CORS-enabled and never needs the
	// proxy (optional).
	ProxyExemptHosts []string

	// MinIO object storage (session documents and rendered mixes).
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Public base URL under which stored objects are reachable anonymously,
	// e.g. "https://blob.example.com/cliplink". Session documents live at
	// {base}/videos/{id}.json.
	StoragePublicBaseURL string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// splitList splits a comma-separated value into trimmed, non-empty entries.
func splitList(value string) []string {
	var out []string
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			out = append(out, entry)
		}
	}
	return out
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	appEnv := getEnv("APP_ENV", EnvDevelopment)
	if appEnv != EnvProduction {
		appEnv = EnvDevelopment
	}

	return &Config{
		AppEnv:     appEnv,
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		AllowedOrigin:     getEnv("APP_ORIGIN", ""),
		ProxyAllowedHosts: splitList(getEnv("PROXY_ALLOWED_HOSTS", "")),
		ProxyExemptHosts:  splitList(getEnv("PROXY_EXEMPT_HOSTS", "")),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"), // no hardcoded default for secrets
		MinioBucket:    getEnv("MINIO_BUCKET", "cliplink"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		StoragePublicBaseURL: getEnv("STORAGE_PUBLIC_BASE_URL", ""),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}

// IsProduction reports whether the app runs with production defaults
// (restrictive proxy behavior when no allow-list is configured).
func (c *Config) IsProduction() bool {
	return c.AppEnv == EnvProduction
}
