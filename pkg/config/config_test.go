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

	if cfg.App.Env != "prod" || !cfg.App.IsProd() {
		t.Fatalf("expected App.Env to be prod, got %q", cfg.App.Env)
	}
	if cfg.Storage.Driver != StorageDriverMemory {
		t.Fatalf("expected memory driver default, got %q", cfg.Storage.Driver)
	}
	if got := cfg.Catalog.SyncInterval; got != 5*time.Minute {
		t.Fatalf("expected sync interval 5m, got %v", got)
	}
	if cfg.Events.Sink != EventSinkNone {
		t.Fatalf("expected no event sink, got %q", cfg.Events.Sink)
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

func TestLoad_StorageDriverRequirements(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvStorageDriver, "Redis")
	if _, err := Load(); err == nil {
		t.Fatal("expected redis driver without address to fail")
	}

	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != StorageDriverRedis {
		t.Fatalf("driver should be normalized, got %q", cfg.Storage.Driver)
	}

	t.Setenv(EnvStorageDriver, "sqlite")
	if _, err := Load(); err == nil {
		t.Fatal("expected sqlite driver without dsn to fail")
	}

	t.Setenv(EnvStorageDriver, "etcd")
	if _, err := Load(); err == nil {
		t.Fatal("expected unknown driver to fail")
	}
}

func TestLoad_EventSinks(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvEventSink, "kafka")
	if _, err := Load(); err == nil {
		t.Fatal("expected kafka sink without brokers to fail")
	}

	t.Setenv(EnvKafkaBrokers, "broker-1:9092,broker-2:9092")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Kafka.Brokers) != 2 {
		t.Fatalf("expected two brokers, got %v", cfg.Kafka.Brokers)
	}

	t.Setenv(EnvEventSink, "pubsub")
	if _, err := Load(); err == nil {
		t.Fatal("expected pubsub sink without project to fail")
	}
}

func TestLoad_InvalidFeedURL(t *testing.T) {
	setMinimalEnv(t)
	t.Setenv(EnvCatalogFeedURL, "not a url")
	if _, err := Load(); err == nil {
		t.Fatal("expected invalid feed url to fail")
	}
}

func setMinimalEnv(t *testing.T) {
	t.Helper()

	t.Setenv(EnvAppEnv, "prod")
	t.Setenv(EnvPort, "8081")
	t.Setenv(EnvCatalogFeedURL, "https://example.com/feed.csv?output=csv")
}
