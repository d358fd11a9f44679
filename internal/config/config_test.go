package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ListenAddr != ":8080" {
		t.Errorf("Expected default addr ':8080', got '%s'", cfg.ListenAddr)
	}
	if cfg.DBPath == "" {
		t.Error("DB path should have a default")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("Expected default origins ['*'], got %v", cfg.AllowedOrigins)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEVCOLLAB_DB_PATH", "/tmp/test.db")
	t.Setenv("DEVCOLLAB_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.ListenAddr != ":9000" {
		t.Errorf("Expected addr ':9000', got '%s'", cfg.ListenAddr)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("Expected DB path '/tmp/test.db', got '%s'", cfg.DBPath)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("Expected 2 origins, got %v", cfg.AllowedOrigins)
	}
	if cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Origins should be trimmed, got '%s'", cfg.AllowedOrigins[1])
	}
}
