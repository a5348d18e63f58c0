// Package decision combines the tariff calendar and the SOC simulator into an
// allow/block verdict for battery discharge.
package decision

import (
	"time"

	"github.com/SensorsIot/Energy-Management/core/model"
	"github.com/SensorsIot/Energy-Management/core/sim"
	"github.com/SensorsIot/Energy-Management/core/tariff"
)

// Input carries everything a policy may evaluate. The base trajectory is the
// unconstrained simulation from the current SOC.
type Input struct {
	Now        time.Time
	SoCPercent float64
	Forecast   model.Forecast
	Period     model.TariffPeriod
	Base       model.Trajectory
	Calendar   *tariff.Calendar
	Simulator  sim.Simulator
}

// Policy turns a simulated trajectory into a discharge verdict. Policies are
// mutually exclusive strategies for the same question; exactly one is active.
type Policy interface {
	Name() string
	Evaluate(in Input) model.Decision
}
