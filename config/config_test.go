package config

import (
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	cfg := LoadEnv()

	if cfg.Catalog.DefaultPageSize != 12 {
		t.Errorf("expected default page size 12, got %d", cfg.Catalog.DefaultPageSize)
	}
	if cfg.Storage.Bucket != "products" {
		t.Errorf("expected bucket 'products', got %q", cfg.Storage.Bucket)
	}
	if len(cfg.Kafka.Brokers) != 0 {
		t.Errorf("expected no brokers, got %v", cfg.Kafka.Brokers)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("CATALOG_ROLLBACK_BACKOFF", "1s")
	t.Setenv("STORAGE_URL", "https://example.supabase.co/")
	t.Setenv("CATALOG_PAGE_SIZE", "not-a-number")

	cfg := LoadEnv()

	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:9092" {
		t.Errorf("unexpected brokers %v", cfg.Kafka.Brokers)
	}
	if cfg.Catalog.RollbackBackoff != time.Second {
		t.Errorf("expected 1s backoff, got %s", cfg.Catalog.RollbackBackoff)
	}
	if cfg.Storage.URL != "https://example.supabase.co" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.Storage.URL)
	}
	if cfg.Catalog.DefaultPageSize != 12 {
		t.Errorf("invalid int should fall back, got %d", cfg.Catalog.DefaultPageSize)
	}
}

func TestLoadEnvAdmin(t *testing.T) {
	cfg := LoadEnv()
	if cfg.Admin.Email != "admin@example.com" || cfg.Admin.Password != "admin123" {
		t.Errorf("unexpected admin defaults %+v", cfg.Admin)
	}

	t.Setenv("ADMIN_EMAIL", "owner@example.com")
	t.Setenv("ADMIN_PASSWORD", "s3cret-pass")
	cfg = LoadEnv()
	if cfg.Admin.Email != "owner@example.com" || cfg.Admin.Password != "s3cret-pass" {
		t.Errorf("expected admin from env, got %+v", cfg.Admin)
	}
}
