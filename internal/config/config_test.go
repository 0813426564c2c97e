package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"battlefield/internal/battle"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TICK_RATE", "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.TickRate != 60 || cfg.ClientBuffer != 256 {
		t.Fatalf("defaults = %+v", cfg)
	}
	s := cfg.Settings()
	if s.Width != 3000 || s.Height != 6000 || s.CellSize != 100 {
		t.Fatalf("arena = %vx%v/%v", s.Width, s.Height, s.CellSize)
	}
	if s.Stats[battle.Commander] != battle.DefaultStats[battle.Commander] {
		t.Fatalf("commander stats = %+v", s.Stats[battle.Commander])
	}
}

func TestLoadOverridesStatsFieldByField(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
port: "9090"
arena:
  width: 2000
  height: 4000
units:
  cavalry:
    max_speed: 9
    attack: 12
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("port = %q", cfg.Port)
	}

	s := cfg.Settings()
	if s.Width != 2000 || s.Height != 4000 || s.CellSize != 100 {
		t.Fatalf("arena = %vx%v/%v", s.Width, s.Height, s.CellSize)
	}
	cav := s.Stats[battle.Cavalry]
	if cav.MaxSpeed != 9 || cav.Attack != 12 {
		t.Fatalf("cavalry overrides not applied: %+v", cav)
	}
	if cav.Accel != battle.DefaultStats[battle.Cavalry].Accel || cav.Weight != 10 {
		t.Fatalf("untouched cavalry fields changed: %+v", cav)
	}
	if s.Stats[battle.Infantry] != battle.DefaultStats[battle.Infantry] {
		t.Fatal("infantry stats changed without an override")
	}
	if battle.DefaultStats[battle.Cavalry].MaxSpeed != 8 {
		t.Fatal("override leaked into the default table")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "7000")
	t.Setenv("DATABASE_URL", "postgres://localhost/battle")
	t.Setenv("TICK_RATE", "30")

	cfg, err := Load(writeConfig(t, "port: \"9090\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7000" || cfg.DatabaseURL != "postgres://localhost/battle" || cfg.TickRate != 30 {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"misaligned arena": "arena:\n  width: 3050\n",
		"cells too small":  "arena:\n  cell_size: 50\n",
		"unknown unit":     "units:\n  archer:\n    max_speed: 3\n",
		"bad stat":         "units:\n  infantry:\n    decel: 0\n",
		"bad yaml":         "arena: [",
		"no buffer":        "client_buffer: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			if _, err := Load(writeConfig(t, body)); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err = %v, want ErrInvalid", err)
			}
		})
	}

	t.Run("bad tick rate", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TICK_RATE", "fast")
		if _, err := Load(""); !errors.Is(err, ErrInvalid) {
			t.Fatalf("err = %v, want ErrInvalid", err)
		}
	})

	t.Run("tick rate too high", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TICK_RATE", "5000")
		if _, err := Load(""); !errors.Is(err, ErrInvalid) {
			t.Fatalf("err = %v, want ErrInvalid", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("missing config file accepted")
		}
	})
}
