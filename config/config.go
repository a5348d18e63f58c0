// Package config loads and validates the service configuration from a YAML or
// JSON file with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Battery       BatteryConfig       `json:"battery"`
	Tariff        TariffConfig        `json:"tariff"`
	Decision      DecisionConfig      `json:"decision"`
	Appliance     ApplianceConfig     `json:"appliance"`
	InfluxDB      InfluxConfig        `json:"influxdb"`
	HomeAssistant HomeAssistantConfig `json:"home_assistant"`
	Telegram      TelegramConfig      `json:"telegram"`
	MQTT          MQTTConfig          `json:"mqtt"`
	Metrics       MetricsConfig       `json:"metrics"`
	Schedule      ScheduleConfig      `json:"schedule"`
}

// Load reads the file at path, applies EM_ environment overrides, fills in
// defaults and validates every section. Malformed configuration is surfaced
// here, never inside the per-cycle computation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides, e.g. EM_INFLUXDB__TOKEN. The provider
	// delimiter must be the koanf one so the rewritten keys unflatten into
	// the nested sections.
	if err := k.Load(env.Provider("EM_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "em_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Battery.SetDefaults()
	cfg.Tariff.SetDefaults()
	cfg.Decision.SetDefaults()
	cfg.Appliance.SetDefaults()
	cfg.InfluxDB.SetDefaults()
	cfg.HomeAssistant.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Schedule.SetDefaults()
	if err := cfg.Battery.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Tariff.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Decision.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.InfluxDB.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ScheduleConfig controls the decision cycle cadence.
type ScheduleConfig struct {
	// UpdateIntervalMinutes is the time between decision cycles.
	UpdateIntervalMinutes int `json:"update_interval_minutes"`
}

// SetDefaults applies sane defaults.
func (c *ScheduleConfig) SetDefaults() {
	if c.UpdateIntervalMinutes == 0 {
		c.UpdateIntervalMinutes = 15
	}
}

// Validate checks mandatory fields.
func (c ScheduleConfig) Validate() error {
	if c.UpdateIntervalMinutes <= 0 {
		return fmt.Errorf("update_interval_minutes must be positive")
	}
	return nil
}

// DecisionConfig selects the active discharge policy.
type DecisionConfig struct {
	// Policy is "minsoc" or "savings".
	Policy string `json:"policy"`
}

// SetDefaults applies sane defaults.
func (c *DecisionConfig) SetDefaults() {
	if c.Policy == "" {
		c.Policy = "minsoc"
	}
}

// Validate checks mandatory fields.
func (c DecisionConfig) Validate() error {
	if c.Policy != "minsoc" && c.Policy != "savings" {
		return fmt.Errorf("unknown decision policy %s", c.Policy)
	}
	return nil
}
