package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Game.StartingLife != 40 {
		t.Errorf("default starting life = %d, want 40", cfg.Game.StartingLife)
	}
	if cfg.Game.CommanderDamageThreshold != 21 {
		t.Errorf("default commander damage threshold = %d, want 21", cfg.Game.CommanderDamageThreshold)
	}
	if cfg.Database.Enabled {
		t.Error("database should be disabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
server:
  port: 9090
logging:
  level: debug
  format: console
game:
  starting_life: 30
  commander_tax_step: 3
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Game.StartingLife != 30 {
		t.Errorf("starting life = %d, want 30", cfg.Game.StartingLife)
	}
	// Values the file omits keep their defaults.
	if cfg.Game.LandLimit != 1 {
		t.Errorf("land limit = %d, want 1", cfg.Game.LandLimit)
	}
	rules := cfg.Game.Rules()
	if rules.CommanderTaxStep != 3 {
		t.Errorf("tax step = %d, want 3", rules.CommanderTaxStep)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad port", "server:\n  port: -1\n"},
		{"zero life", "game:\n  starting_life: 0\n"},
		{"db enabled without url", "database:\n  enabled: true\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
