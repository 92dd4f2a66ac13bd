package config

import (
	"os"
	"strconv"
)

// Platform identifiers for purchase-capability selection.
const (
	PlatformIOS = "ios"
	PlatformWeb = "web"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Bridge server
	Port    string
	AppName string

	// Remote backend
	BackendURL string

	// Supabase
	SupabaseURL     string
	SupabaseAnonKey string

	// Platform the shell runs on: "ios" (in-app purchase) or "web"
	// (Stripe checkout).
	Platform string

	// Environment tag forwarded with receipt verification.
	// "sandbox" for development builds, "production" otherwise.
	AppEnv string

	// Local cache
	CachePath string

	// Chat
	MessageHistoryLimit int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		Port:    envOrDefault("PORT", "4517"),
		AppName: envOrDefault("APP_NAME", "Chema Bridge"),

		BackendURL: envOrDefault("BACKEND_URL", "https://chema-00yh.onrender.com"),

		SupabaseURL:     os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey: os.Getenv("SUPABASE_ANON_KEY"),

		Platform: envOrDefault("PLATFORM", PlatformIOS),
		AppEnv:   envOrDefault("APP_ENV", "production"),

		CachePath: envOrDefault("CACHE_PATH", "./chema-cache.db"),

		MessageHistoryLimit: envOrDefaultInt("MESSAGE_HISTORY_LIMIT", 40),
	}
}

// Environment returns the store-verification environment tag.
func (c *Config) Environment() string {
	if c.AppEnv == "development" {
		return "sandbox"
	}
	return "production"
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return fallback
}
