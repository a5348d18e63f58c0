package config

import (
	"fmt"
	"time"

	"github.com/SensorsIot/Energy-Management/core/battery"
)

// BatteryConfig describes the physical battery, its inverter limits and the
// Home Assistant entities used to read and control it.
type BatteryConfig struct {
	CapacityKWh         float64 `json:"capacity_kwh"`
	ChargeEfficiency    float64 `json:"charge_efficiency"`
	DischargeEfficiency float64 `json:"discharge_efficiency"`
	MaxChargeW          float64 `json:"max_charge_w"`
	MaxDischargeW       float64 `json:"max_discharge_w"`
	// MinSoCPercent is the floor the decision engine protects during
	// expensive hours.
	MinSoCPercent float64 `json:"min_soc_percent"`
	// DischargePowerW is the setpoint sent when discharge is allowed;
	// blocking sends 0.
	DischargePowerW float64 `json:"discharge_power_w"`
	// SoCEntity is the Home Assistant sensor reporting the battery SOC.
	SoCEntity string `json:"soc_entity"`
	// DischargeControlEntity is the number entity limiting discharge power.
	DischargeControlEntity string `json:"discharge_control_entity"`
}

// SetDefaults applies sane defaults.
func (c *BatteryConfig) SetDefaults() {
	if c.CapacityKWh == 0 {
		c.CapacityKWh = 10
	}
	if c.ChargeEfficiency == 0 {
		c.ChargeEfficiency = 0.95
	}
	if c.DischargeEfficiency == 0 {
		c.DischargeEfficiency = 0.95
	}
	if c.MaxChargeW == 0 {
		c.MaxChargeW = 5000
	}
	if c.MaxDischargeW == 0 {
		c.MaxDischargeW = 5000
	}
	if c.MinSoCPercent == 0 {
		c.MinSoCPercent = 10
	}
	if c.DischargePowerW == 0 {
		c.DischargePowerW = c.MaxDischargeW
	}
	if c.SoCEntity == "" {
		c.SoCEntity = "sensor.battery_state_of_capacity"
	}
	if c.DischargeControlEntity == "" {
		c.DischargeControlEntity = "number.battery_maximum_discharging_power"
	}
}

// Validate checks mandatory fields.
func (c BatteryConfig) Validate() error {
	if c.CapacityKWh <= 0 {
		return fmt.Errorf("battery capacity must be positive")
	}
	if c.ChargeEfficiency <= 0 || c.ChargeEfficiency > 1 {
		return fmt.Errorf("charge_efficiency must be in (0,1]")
	}
	if c.DischargeEfficiency <= 0 || c.DischargeEfficiency > 1 {
		return fmt.Errorf("discharge_efficiency must be in (0,1]")
	}
	if c.MinSoCPercent < 0 || c.MinSoCPercent > 100 {
		return fmt.Errorf("min_soc_percent must be in [0,100]")
	}
	return nil
}

// Battery converts the section into core battery parameters for the given
// slot width.
func (c BatteryConfig) Battery(slot time.Duration) (battery.Battery, error) {
	return battery.New(c.CapacityKWh*1000, c.ChargeEfficiency, c.DischargeEfficiency,
		c.MaxChargeW, c.MaxDischargeW, c.MinSoCPercent, slot)
}
