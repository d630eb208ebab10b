package utils

import (
	"testing"
	"time"
)

func TestPostgresPoolConfig_Defaults(t *testing.T) {
	cfg := PostgresPoolConfig{}.withDefaults()
	if cfg.MaxOpenConns <= 0 || cfg.MaxIdleConns <= 0 {
		t.Fatalf("expected positive pool sizes, got %+v", cfg)
	}
	if cfg.PingTimeout != 5*time.Second {
		t.Fatalf("expected 5s ping timeout default, got %v", cfg.PingTimeout)
	}
}

func TestPostgresPoolConfig_KeepsExplicitValues(t *testing.T) {
	cfg := PostgresPoolConfig{MaxOpenConns: 3, PingTimeout: time.Second}.withDefaults()
	if cfg.MaxOpenConns != 3 {
		t.Fatalf("expected explicit MaxOpenConns kept, got %d", cfg.MaxOpenConns)
	}
	if cfg.PingTimeout != time.Second {
		t.Fatalf("expected explicit PingTimeout kept, got %v", cfg.PingTimeout)
	}
}
