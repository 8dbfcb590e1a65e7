package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Success(t *testing.T) {
	setMinimalEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.App.Env != "production" {
		t.Fatalf("expected App.Env to be production, got %q", cfg.App.Env)
	}
	if cfg.Redis.URL != "redis://localhost:6379/0" {
		t.Fatalf("unexpected Redis URL: %q", cfg.Redis.URL)
	}
	if cfg.Redis.KeyPrefix != "cg" || cfg.App.LogFormat != "json" {
		t.Fatalf("unexpected defaults prefix=%q format=%q", cfg.Redis.KeyPrefix, cfg.App.LogFormat)
	}
	if cfg.Sheets.DataTab != "Cronograma" || cfg.Sheets.UsersTab != "Usuários" {
		t.Fatalf("unexpected tab defaults %q/%q", cfg.Sheets.DataTab, cfg.Sheets.UsersTab)
	}
	if got := cfg.Schedule.CacheTTL; got != 300*time.Second {
		t.Fatalf("expected cache ttl 300s, got %v", got)
	}
	want := []string{"Referência", "Setor", "Descrição Meta", "Responsável", "Status"}
	if len(cfg.Schedule.FilterColumns) != len(want) {
		t.Fatalf("unexpected filter columns %v", cfg.Schedule.FilterColumns)
	}
	for i := range want {
		if cfg.Schedule.FilterColumns[i] != want[i] {
			t.Fatalf("filter column %d: expected %q got %q", i, want[i], cfg.Schedule.FilterColumns[i])
		}
	}
	if cfg.PubSub.Enabled() {
		t.Fatalf("pubsub should be disabled without topic")
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvAppEnv); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvAppEnv, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing required env to return an error")
	}
}

func TestLoad_RequiresSheetsCredential(t *testing.T) {
	setMinimalEnv(t)
	if err := os.Unsetenv(EnvSheetsCredentialsJSON); err != nil {
		t.Fatalf("failed to unset %s: %v", EnvSheetsCredentialsJSON, err)
	}

	if _, err := Load(); err == nil {
		t.Fatal("expected missing credentials to return an error")
	}
}

func TestLoad_FilterColumnsOverride(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvScheduleFilterColumns, "Status,Responsável")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}
	if len(cfg.Schedule.FilterColumns) != 2 || cfg.Schedule.FilterColumns[0] != "Status" {
		t.Fatalf("unexpected filter columns %v", cfg.Schedule.FilterColumns)
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvAppEnv, "production")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvJWTSecret, "secret")
	t.Setenv(EnvJWTIssuer, "cronograma")
	t.Setenv(EnvJWTExpMins, "60")
	t.Setenv(EnvRefreshTokenTTLMinutes, "43200")
	t.Setenv(EnvSheetsURL, "https://docs.google.com/spreadsheets/d/abc123/edit#gid=0")
	t.Setenv(EnvSheetsCredentialsJSON, `{"type":"service_account"}`)
}

func TestAppConfigEnvHelpers(t *testing.T) {
	devConfig := AppConfig{Env: "DEV"}
	if !devConfig.IsDev() {
		t.Fatalf("expected IsDev true for %q", devConfig.Env)
	}
	if devConfig.IsProd() {
		t.Fatalf("expected IsProd false for %q", devConfig.Env)
	}

	prodConfig := AppConfig{Env: "prod"}
	if !prodConfig.IsProd() {
		t.Fatalf("expected IsProd true for %q", prodConfig.Env)
	}
	if prodConfig.IsDev() {
		t.Fatalf("expected IsDev false for %q", prodConfig.Env)
	}
}
