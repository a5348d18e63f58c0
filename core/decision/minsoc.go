package decision

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/SensorsIot/Energy-Management/core/model"
)

// PolicyMinSoC is the config name of the minimum-SOC-floor policy.
const PolicyMinSoC = "minsoc"

// MinSoCPolicy blocks discharge during the cheap tariff whenever the
// unconstrained projection would drop below the SOC floor at any point of the
// next expensive window. During the expensive tariff it always allows: stored
// energy is then being used for its intended purpose.
type MinSoCPolicy struct {
	FloorPercent float64
}

// Name implements Policy.
func (MinSoCPolicy) Name() string { return PolicyMinSoC }

// Evaluate implements Policy.
func (p MinSoCPolicy) Evaluate(in Input) model.Decision {
	d := model.Decision{Policy: p.Name()}

	// Protected window: expensive slots on non-cheap days up to the end of
	// the next expensive window. With nothing to protect in the horizon the
	// minimum defaults to a full battery.
	minSoC, minAt := 100.0, in.Period.Target
	var socs []float64
	var times []int
	for i, pt := range in.Base {
		if pt.Time.Before(in.Period.Target) && !in.Calendar.CheapAt(pt.Time) {
			socs = append(socs, pt.SoCPercent)
			times = append(times, i)
		}
	}
	if len(socs) > 0 {
		idx := floats.MinIdx(socs)
		minSoC = socs[idx]
		minAt = in.Base[times[idx]].Time
	}
	d.MinSoCPercent = minSoC
	d.MinSoCTime = minAt

	loc := in.Calendar.Location()
	switch {
	case !in.Period.IsCheapNow:
		d.Allowed = true
		d.Reason = fmt.Sprintf("Expensive tariff - discharge allowed (min SOC %.1f%% at %s)",
			minSoC, minAt.In(loc).Format("15:04"))
	case minSoC >= p.FloorPercent:
		d.Allowed = true
		d.Reason = fmt.Sprintf("SOC stays >= %.0f%% during expensive hours (min %.1f%% at %s)",
			p.FloorPercent, minSoC, minAt.In(loc).Format("15:04"))
	default:
		d.Allowed = false
		d.BlockUntil = in.Period.CheapEnd
		d.Reason = fmt.Sprintf("Block discharge until %s - projected SOC %.1f%% at %s below %.0f%% floor",
			in.Period.CheapEnd.In(loc).Format("15:04"), minSoC, minAt.In(loc).Format("15:04"), p.FloorPercent)
	}
	return d
}
