package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APP_REDIS_ADDR")
	os.Unsetenv("APP_APP_PORT")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Port != 8080 {
		t.Errorf("App.Port = %d, want 8080", cfg.App.Port)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q, want localhost:6379", cfg.Redis.Addr)
	}
	if cfg.Mongo.DB != "converse" {
		t.Errorf("Mongo.DB = %q, want converse", cfg.Mongo.DB)
	}
	if !cfg.Development() {
		t.Errorf("Development() = false for default env %q", cfg.App.Env)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	os.Setenv("APP_REDIS_ADDR", "redis.internal:6380")
	defer os.Unsetenv("APP_REDIS_ADDR")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Errorf("Redis.Addr = %q, want env override", cfg.Redis.Addr)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("app:\n  env: production\n  port: 9000\njwt:\n  secret: sekrit\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.App.Port != 9000 {
		t.Errorf("App.Port = %d, want 9000", cfg.App.Port)
	}
	if cfg.Development() {
		t.Error("Development() = true for production env")
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("app:\n  env: production\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() accepted production config without a jwt secret")
	}
}
