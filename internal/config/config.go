package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"battlefield/internal/battle"
)

var ErrInvalid = errors.New("invalid config")

type Arena struct {
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	CellSize float64 `yaml:"cell_size"`
	Padding  float64 `yaml:"padding"`
}

// Config is the server configuration. Fields missing from the file keep their defaults.
type Config struct {
	Port         string `yaml:"port"`
	DatabaseURL  string `yaml:"database_url"`
	MedalsPath   string `yaml:"medals_path"`
	TickRate     int    `yaml:"tick_rate"`
	ClientBuffer int    `yaml:"client_buffer"`
	Arena        Arena  `yaml:"arena"`

	// Units overrides archetype stats field by field, keyed by archetype name.
	Units map[string]yaml.Node `yaml:"units"`

	stats map[battle.Archetype]battle.UnitStats
}

func Default() Config {
	d := battle.DefaultSettings()
	return Config{
		Port:         "8080",
		MedalsPath:   "internal/data/medals.json",
		TickRate:     d.TickRate,
		ClientBuffer: 256,
		Arena: Arena{
			Width:    d.Width,
			Height:   d.Height,
			CellSize: d.CellSize,
			Padding:  d.Padding,
		},
		stats: d.Stats,
	}
}

// Load reads the YAML file at path (if any) over the defaults, then applies
// PORT and DATABASE_URL from the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.parse(raw); err != nil {
			return Config{}, err
		}
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}
	if tr := os.Getenv("TICK_RATE"); tr != "" {
		n, err := strconv.Atoi(tr)
		if err != nil {
			return Config{}, fmt.Errorf("%w: TICK_RATE=%q", ErrInvalid, tr)
		}
		cfg.TickRate = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) parse(raw []byte) error {
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for name, node := range c.Units {
		arch, err := battle.ParseArchetype(name)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		st := c.stats[arch]
		if err := node.Decode(&st); err != nil {
			return fmt.Errorf("%w: units.%s: %v", ErrInvalid, name, err)
		}
		c.stats[arch] = st
	}
	return nil
}

// Settings converts the config into match settings.
func (c Config) Settings() battle.Settings {
	stats := make(map[battle.Archetype]battle.UnitStats, len(c.stats))
	for k, v := range c.stats {
		stats[k] = v
	}
	return battle.Settings{
		Width:    c.Arena.Width,
		Height:   c.Arena.Height,
		CellSize: c.Arena.CellSize,
		Padding:  c.Arena.Padding,
		TickRate: c.TickRate,
		Stats:    stats,
	}
}

func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("%w: empty port", ErrInvalid)
	}
	if c.ClientBuffer <= 0 {
		return fmt.Errorf("%w: client_buffer must be positive", ErrInvalid)
	}
	if err := c.Settings().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
