package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Fatalf("expected default port, got %d", cfg.Server.Port)
	}
	if cfg.Forecast.Window != 750 || cfg.Forecast.Trees != 150 || cfg.Forecast.Seed != 42 {
		t.Fatalf("forecast defaults wrong: %+v", cfg.Forecast)
	}
	if cfg.Cache.TTLDaily != 24*time.Hour {
		t.Fatalf("expected 24h daily ttl, got %v", cfg.Cache.TTLDaily)
	}
	if cfg.Cache.TTLMonthly != 7*24*time.Hour {
		t.Fatalf("expected 7d monthly ttl, got %v", cfg.Cache.TTLMonthly)
	}
	if cfg.Providers.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", cfg.Providers.Attempts)
	}
	if cfg.Runner.MaxParallel != 4 || cfg.Runner.HorizonDays != 5 {
		t.Fatalf("runner defaults wrong: %+v", cfg.Runner)
	}
}

func TestLoadRejectsMissingEnvironment(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsKafkaWithoutBrokers(t *testing.T) {
	path := writeConfig(t, "environment: test\nkafka:\n  enabled: true\n  topic: preds\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsWindowBelowMinTrain(t *testing.T) {
	path := writeConfig(t, "environment: test\nforecast:\n  window: 10\n  min_train: 60\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	t.Setenv("ALPHAVANTAGE_API_KEY", "secret")
	t.Setenv("TICKERS", "AAPL,MSFT")
	t.Setenv("CACHE_DIR", "/tmp/prices")

	cfg, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Providers.AlphaVantage.APIKey != "secret" {
		t.Fatalf("api key not overridden")
	}
	if len(cfg.Runner.Tickers) != 2 || cfg.Runner.Tickers[0] != "AAPL" {
		t.Fatalf("tickers not overridden: %v", cfg.Runner.Tickers)
	}
	if cfg.Cache.Dir != "/tmp/prices" {
		t.Fatalf("cache dir not overridden: %s", cfg.Cache.Dir)
	}
}
