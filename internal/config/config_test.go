package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("MONGO_DB", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mongo.DB != "afrioffres" {
		t.Fatalf("db=%q", cfg.Mongo.DB)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Fatalf("ttl=%s", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.JWTSecret == "" {
		t.Fatal("dev secret not applied")
	}
	if cfg.Rabbit.Exchange != "tenders.events" {
		t.Fatalf("exchange=%q", cfg.Rabbit.Exchange)
	}
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without JWT_SECRET_KEY in production")
	}
}

func TestParseList(t *testing.T) {
	got := parseList(" http://a.com , ,http://b.com")
	if len(got) != 2 || got[0] != "http://a.com" || got[1] != "http://b.com" {
		t.Fatalf("got %v", got)
	}
	if parseList("  ") != nil {
		t.Fatal("blank should be nil")
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_AppEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.env"), []byte("MONGO_DB=from_file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Mongo.DB != "from_file" {
		t.Fatalf("db=%q", cfg.Mongo.DB)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Fatalf("metrics addr=%q", cfg.MetricsAddr)
	}
}

func TestLoad_BrokenAppEnvFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "app.env"), []byte("this line is not a key value pair\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	t.Setenv("APP_ENV", "development")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unparsable app.env")
	}
}
