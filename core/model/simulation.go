package model

import "time"

// SimulationPoint is one slot of a projected SOC trajectory. SoC values are
// the state as of the start of the slot, before the slot's energy is applied,
// so they align with actual meter readings taken at slot boundaries.
type SimulationPoint struct {
	Time       time.Time
	SoCPercent float64
	SoCWh      float64
	// UnclampedWh runs the same arithmetic without the 0..capacity clamps
	// and without power caps; negative values measure deficit depth.
	UnclampedWh float64
	// DischargeWh is the energy that must leave the battery to cover the
	// slot's deficit, 0 while charging or while discharge is blocked.
	DischargeWh float64
}

// Trajectory is an ordered SOC projection with one point per forecast sample.
type Trajectory []SimulationPoint

// Empty reports whether the trajectory holds no points.
func (tr Trajectory) Empty() bool { return len(tr) == 0 }

// SoCPercents extracts the clamped SoC percent series, for summary statistics.
func (tr Trajectory) SoCPercents() []float64 {
	out := make([]float64, len(tr))
	for i, p := range tr {
		out[i] = p.SoCPercent
	}
	return out
}
