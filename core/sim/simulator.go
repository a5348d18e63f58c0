// Package sim projects the battery state of charge over a forecast horizon.
package sim

import (
	"time"

	"github.com/SensorsIot/Energy-Management/core/battery"
	"github.com/SensorsIot/Energy-Management/core/model"
)

// Simulator walks a net-energy forecast slot by slot and produces an SOC
// trajectory. It holds no mutable state; each call is independent.
type Simulator struct {
	Battery battery.Battery
}

// New returns a Simulator over the given battery parameters.
func New(b battery.Battery) Simulator { return Simulator{Battery: b} }

// Simulate projects the SOC forward from startSoCPercent over the forecast.
// Discharge is suppressed for slots inside [blockFrom, blockUntil); a zero
// blockUntil disables blocking, a zero blockFrom blocks from the first slot.
//
// Each returned point records the state as of the start of its slot, before
// the slot's energy is applied. The output has exactly one point per sample,
// in the same order; an empty forecast yields an empty trajectory.
func (s Simulator) Simulate(startSoCPercent float64, forecast model.Forecast, blockFrom, blockUntil time.Time) model.Trajectory {
	b := s.Battery
	eBat := b.EnergyWh(startSoCPercent)
	unclamped := eBat

	traj := make(model.Trajectory, 0, len(forecast))
	for _, sample := range forecast {
		point := model.SimulationPoint{
			Time:        sample.Time,
			SoCPercent:  b.SoCPercent(eBat),
			SoCWh:       eBat,
			UnclampedWh: unclamped,
		}

		net := sample.NetEnergyWh
		switch {
		case net > 0:
			// Surplus charges the battery, subject to the per-slot cap
			// and the remaining capacity.
			charge := min3(net*b.ChargeEfficiency, b.MaxChargeWhPerSlot, b.CapacityWh-eBat)
			eBat += charge
			unclamped += net * b.ChargeEfficiency
		case s.blocked(sample.Time, blockFrom, blockUntil):
			// Deficit while blocked: the battery stays untouched, the
			// unmet deficit still shows up in the unclamped tally.
			unclamped -= -net / b.DischargeEfficiency
		case net < 0:
			needed := -net / b.DischargeEfficiency
			discharge := min3(needed, b.MaxDischargeWhPerSlot, max(0, eBat))
			eBat = max(0, eBat-discharge)
			unclamped -= needed
			// Report the energy that would need to leave the battery,
			// even when capped, for downstream accounting.
			point.DischargeWh = needed
		}
		traj = append(traj, point)
	}
	return traj
}

// EndState returns the stored energy after applying the whole forecast, both
// clamped and unclamped. Used by policies that need the balance at the end of
// the horizon rather than the slot-start series.
func (s Simulator) EndState(startSoCPercent float64, forecast model.Forecast) (finalWh, finalUnclampedWh float64) {
	b := s.Battery
	eBat := b.EnergyWh(startSoCPercent)
	unclamped := eBat
	for _, sample := range forecast {
		net := sample.NetEnergyWh
		if net > 0 {
			eBat += min3(net*b.ChargeEfficiency, b.MaxChargeWhPerSlot, b.CapacityWh-eBat)
			unclamped += net * b.ChargeEfficiency
		} else if net < 0 {
			needed := -net / b.DischargeEfficiency
			eBat = max(0, eBat-min3(needed, b.MaxDischargeWhPerSlot, max(0, eBat)))
			unclamped -= needed
		}
	}
	return eBat, unclamped
}

func (s Simulator) blocked(t, from, until time.Time) bool {
	if until.IsZero() {
		return false
	}
	if !from.IsZero() && t.Before(from) {
		return false
	}
	return t.Before(until)
}

func min3(a, b, c float64) float64 { return min(min(a, b), c) }
