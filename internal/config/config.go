package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Process-wide startup configuration. Nothing here is runtime-mutable.
type Config struct {
	ListenAddr     string
	DBPath         string
	AllowedOrigins []string
}

// Load reads configuration from the environment, after loading a .env
// file when one is present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ListenAddr:     ":" + envOrDefault("PORT", "8080"),
		DBPath:         envOrDefault("DEVCOLLAB_DB_PATH", "./data/devcollab.db"),
		AllowedOrigins: splitList(envOrDefault("DEVCOLLAB_ALLOWED_ORIGINS", "*")),
	}
}

func envOrDefault(key, value string) string {
	if env, ok := os.LookupEnv(key); ok {
		return env
	}
	return value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
