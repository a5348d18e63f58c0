package model

import (
	"fmt"
	"time"
)

// ForecastSample is one slot of the combined PV/load forecast. Energies are
// totals for the slot in Wh.
type ForecastSample struct {
	Time         time.Time
	PVEnergyWh   float64
	LoadEnergyWh float64
	NetEnergyWh  float64
}

// NewForecastSample derives the net energy from PV and load.
func NewForecastSample(t time.Time, pvWh, loadWh float64) ForecastSample {
	return ForecastSample{Time: t, PVEnergyWh: pvWh, LoadEnergyWh: loadWh, NetEnergyWh: pvWh - loadWh}
}

// Forecast is an ordered sequence of samples at a fixed slot width.
type Forecast []ForecastSample

// Empty reports whether the forecast holds no samples.
func (f Forecast) Empty() bool { return len(f) == 0 }

// Start returns the timestamp of the first sample.
func (f Forecast) Start() time.Time {
	if len(f) == 0 {
		return time.Time{}
	}
	return f[0].Time
}

// End returns the timestamp of the last sample.
func (f Forecast) End() time.Time {
	if len(f) == 0 {
		return time.Time{}
	}
	return f[len(f)-1].Time
}

// TotalNetEnergyWh sums the net energy over the whole horizon.
func (f Forecast) TotalNetEnergyWh() float64 {
	var sum float64
	for _, s := range f {
		sum += s.NetEnergyWh
	}
	return sum
}

// Validate checks the simulation preconditions: samples strictly ascending at
// the given slot width, with no gaps or duplicate timestamps. A violation
// fails the cycle rather than producing a misleading trajectory.
func (f Forecast) Validate(slot time.Duration) error {
	if slot <= 0 {
		return fmt.Errorf("slot width must be positive, got %s", slot)
	}
	for i := 1; i < len(f); i++ {
		d := f[i].Time.Sub(f[i-1].Time)
		if d == slot {
			continue
		}
		if d <= 0 {
			return fmt.Errorf("forecast not ascending at %s", f[i].Time)
		}
		return fmt.Errorf("forecast gap of %s before %s, want %s slots", d, f[i].Time, slot)
	}
	return nil
}
