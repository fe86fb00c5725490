package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Fatalf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if cfg.CacheType != "memory" || cfg.CacheTTL != 0 {
		t.Fatalf("unexpected cache defaults type=%q ttl=%v", cfg.CacheType, cfg.CacheTTL)
	}
	if cfg.OutbreakPageSize != 5 {
		t.Fatalf("OutbreakPageSize = %d", cfg.OutbreakPageSize)
	}
	if cfg.SymptomsURL != DefaultSymptomsURL {
		t.Fatalf("SymptomsURL = %q", cfg.SymptomsURL)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CACHE_TYPE", " BBolt ")
	t.Setenv("CACHE_TTL_SECONDS", "3600")
	t.Setenv("OUTBREAK_PAGE_SIZE", "10")
	t.Setenv("NLU_TYPE", "OpenAI")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.CacheType != "bbolt" {
		t.Fatalf("CacheType = %q", cfg.CacheType)
	}
	if cfg.CacheTTL != time.Hour {
		t.Fatalf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.OutbreakPageSize != 10 {
		t.Fatalf("OutbreakPageSize = %d", cfg.OutbreakPageSize)
	}
	if cfg.NLUType != "openai" {
		t.Fatalf("NLUType = %q", cfg.NLUType)
	}
}

func TestLoadRejectsInvalidTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero fetch timeout")
	}
}
