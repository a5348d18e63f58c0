// Package battery holds the static parameters of the home battery.
package battery

import (
	"fmt"
	"time"
)

// Battery describes the physical battery and its inverter limits. Power
// limits are converted to per-slot energy caps at construction time.
type Battery struct {
	CapacityWh            float64
	ChargeEfficiency      float64
	DischargeEfficiency   float64
	MaxChargeWhPerSlot    float64
	MaxDischargeWhPerSlot float64
	MinSoCPercent         float64
	SlotWidth             time.Duration
}

// New validates the parameters and derives the per-slot energy caps from the
// power limits (watts times the slot duration in hours).
func New(capacityWh, chargeEff, dischargeEff, maxChargeW, maxDischargeW, minSoCPercent float64, slot time.Duration) (Battery, error) {
	if capacityWh <= 0 {
		return Battery{}, fmt.Errorf("capacity must be positive, got %g Wh", capacityWh)
	}
	if chargeEff <= 0 || chargeEff > 1 {
		return Battery{}, fmt.Errorf("charge efficiency must be in (0,1], got %g", chargeEff)
	}
	if dischargeEff <= 0 || dischargeEff > 1 {
		return Battery{}, fmt.Errorf("discharge efficiency must be in (0,1], got %g", dischargeEff)
	}
	if maxChargeW <= 0 || maxDischargeW <= 0 {
		return Battery{}, fmt.Errorf("power limits must be positive")
	}
	if minSoCPercent < 0 || minSoCPercent > 100 {
		return Battery{}, fmt.Errorf("min SOC must be in [0,100], got %g", minSoCPercent)
	}
	if slot <= 0 {
		return Battery{}, fmt.Errorf("slot width must be positive, got %s", slot)
	}
	return Battery{
		CapacityWh:            capacityWh,
		ChargeEfficiency:      chargeEff,
		DischargeEfficiency:   dischargeEff,
		MaxChargeWhPerSlot:    maxChargeW * slot.Hours(),
		MaxDischargeWhPerSlot: maxDischargeW * slot.Hours(),
		MinSoCPercent:         minSoCPercent,
		SlotWidth:             slot,
	}, nil
}

// EnergyWh converts a SOC percentage to stored energy.
func (b Battery) EnergyWh(socPercent float64) float64 {
	return socPercent / 100 * b.CapacityWh
}

// SoCPercent converts stored energy to a SOC percentage.
func (b Battery) SoCPercent(energyWh float64) float64 {
	return energyWh / b.CapacityWh * 100
}
