package appconfig

import (
	"testing"
	"time"

	"pkt.systems/companion/schema"
)

func TestDefaultConfig(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.Namespace != schema.DefaultNamespace {
		t.Fatalf("expected default namespace, got %q", cfg.Namespace)
	}
	if cfg.LookupTimeout() != 2*time.Second {
		t.Fatalf("expected 2s lookup timeout, got %s", cfg.LookupTimeout())
	}
	if !cfg.Registry.IncludeActions {
		t.Fatalf("expected actions to be offered by default")
	}
	if err := validate(cfg); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}
