package config

import "fmt"

// InfluxConfig defines the InfluxDB endpoint and the buckets used for
// forecast input and result output.
type InfluxConfig struct {
	URL   string `json:"url"`
	Token string `json:"token"`
	Org   string `json:"org"`
	// PVBucket and LoadBucket hold the energy forecasts produced upstream.
	PVBucket   string `json:"pv_bucket"`
	LoadBucket string `json:"load_bucket"`
	// OutputBucket receives projected trajectories and decisions.
	OutputBucket string `json:"output_bucket"`
	// Percentile selects the forecast ensemble band (p10, p50, p90).
	Percentile string `json:"percentile"`
	// SoC fallback source, queried when Home Assistant is unreachable.
	SoCBucket      string `json:"soc_bucket"`
	SoCMeasurement string `json:"soc_measurement"`
	SoCField       string `json:"soc_field"`
}

// SetDefaults applies sane defaults.
func (c *InfluxConfig) SetDefaults() {
	if c.PVBucket == "" {
		c.PVBucket = "pv_forecast"
	}
	if c.LoadBucket == "" {
		c.LoadBucket = "load_forecast"
	}
	if c.OutputBucket == "" {
		c.OutputBucket = "energy_manager"
	}
	if c.Percentile == "" {
		c.Percentile = "p50"
	}
	if c.SoCMeasurement == "" {
		c.SoCMeasurement = "Energy"
	}
	if c.SoCField == "" {
		c.SoCField = "BATT_Level"
	}
}

// Validate checks mandatory fields.
func (c InfluxConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("influxdb url is required")
	}
	if c.Org == "" {
		return fmt.Errorf("influxdb org is required")
	}
	switch c.Percentile {
	case "p10", "p50", "p90":
	default:
		return fmt.Errorf("unknown percentile %s", c.Percentile)
	}
	return nil
}
