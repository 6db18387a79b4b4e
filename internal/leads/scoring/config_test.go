package scoring

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaultsWhenPathEmpty(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\") returned error: %v", err)
	}
	if cfg.Tiers.A != 85 || cfg.Tiers.B != 70 || cfg.Tiers.C != 50 {
		t.Errorf("default tiers = %+v, want 85/70/50", cfg.Tiers)
	}
	if cfg.Intent.Events["demo_request"] != 35 {
		t.Errorf("default demo_request weight = %f, want 35", cfg.Intent.Events["demo_request"])
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	raw := `
weights:
  fit: 0.5
  intent: 0.3
  behavior: 0.2
tiers:
  a: 90
  b: 75
  c: 55
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Weights.Fit != 0.5 || cfg.Weights.Intent != 0.3 || cfg.Weights.Behavior != 0.2 {
		t.Errorf("weights = %+v, want 0.5/0.3/0.2", cfg.Weights)
	}
	if cfg.Tiers.A != 90 || cfg.Tiers.B != 75 || cfg.Tiers.C != 55 {
		t.Errorf("tiers = %+v, want 90/75/55", cfg.Tiers)
	}
	// Sections omitted from the file keep their defaults.
	if cfg.Intent.Events["demo_request"] != 35 {
		t.Errorf("demo_request weight = %f, want default 35", cfg.Intent.Events["demo_request"])
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	raw := "weighst:\n  fit: 1.0\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected an error for a misspelled key, got nil")
	}
}

func TestNormalizeBackfillsBrokenTiers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tiers = TierThresholds{A: 60, B: 80, C: 90}
	cfg.Normalize()

	if !(cfg.Tiers.A > cfg.Tiers.B && cfg.Tiers.B > cfg.Tiers.C) {
		t.Fatalf("normalized tiers not strictly ordered: %+v", cfg.Tiers)
	}
}
