package decision

import (
	"fmt"

	"github.com/SensorsIot/Energy-Management/core/model"
)

// PolicySavings is the config name of the deficit/accumulated-savings policy.
const PolicySavings = "savings"

// SavingsPolicy is the earlier strategy kept as a selectable alternative. It
// measures the unclamped energy deficit at the target time and, when there is
// one, blocks discharge during the cheap period until the energy saved by not
// discharging has accumulated to cover the deficit (the switch-on time), or
// the cheap period ends.
//
// It can disagree with MinSoCPolicy on forecasts whose deep early deficit
// recovers later; the two are alternatives, not layers.
type SavingsPolicy struct{}

// Name implements Policy.
func (SavingsPolicy) Name() string { return PolicySavings }

// Evaluate implements Policy.
func (p SavingsPolicy) Evaluate(in Input) model.Decision {
	d := model.Decision{Policy: p.Name()}
	loc := in.Calendar.Location()
	capacity := in.Simulator.Battery.CapacityWh

	finalWh, unclampedWh := in.Simulator.EndState(in.SoCPercent, in.Forecast)
	deficit := max(0, -unclampedWh)
	d.DeficitWh = deficit

	if deficit == 0 {
		d.Allowed = true
		d.Reason = fmt.Sprintf("No deficit - SOC at target: %.0f%%", finalWh/capacity*100)
		return d
	}

	// Accumulate the discharge energy the battery would spend during the
	// cheap period; blocking until switch-on saves exactly that much.
	saved := 0.0
	switchOn := in.Period.CheapEnd
	for _, pt := range in.Base {
		if pt.Time.Before(in.Period.CheapStart) || !pt.Time.Before(in.Period.CheapEnd) {
			continue
		}
		saved += pt.DischargeWh
		if saved >= deficit {
			switchOn = pt.Time
			break
		}
	}
	d.SavedWh = saved
	d.SwitchOnTime = switchOn

	switch {
	case !in.Period.IsCheapNow:
		d.Allowed = true
		d.Reason = fmt.Sprintf("Expensive tariff - tonight block until %s (deficit %.0f Wh)",
			switchOn.In(loc).Format("15:04"), deficit)
	case !in.Now.Before(switchOn):
		d.Allowed = true
		d.Reason = fmt.Sprintf("Cheap tariff - discharge enabled (saved %.0f Wh)", saved)
	default:
		d.Allowed = false
		d.BlockUntil = switchOn
		if saved < deficit {
			d.Reason = fmt.Sprintf("Block discharge until %s - saved %.0f/%.0f Wh (shortfall)",
				switchOn.In(loc).Format("15:04"), saved, deficit)
		} else {
			d.Reason = fmt.Sprintf("Block discharge until %s - saved %.0f Wh",
				switchOn.In(loc).Format("15:04"), saved)
		}
	}
	return d
}
