package decision

import (
	"fmt"
	"time"

	"github.com/SensorsIot/Energy-Management/core/logger"
	"github.com/SensorsIot/Energy-Management/core/model"
	"github.com/SensorsIot/Energy-Management/core/sim"
	"github.com/SensorsIot/Energy-Management/core/tariff"
)

// Engine produces the discharge verdict for "right now". It is stateless and
// safe to call every cycle; repeated calls self-correct as the SOC reading
// and the forecast evolve.
type Engine struct {
	calendar  *tariff.Calendar
	simulator sim.Simulator
	policy    Policy
	log       logger.Logger
}

// NewEngine wires the calendar, simulator and active policy together.
func NewEngine(cal *tariff.Calendar, simulator sim.Simulator, policy Policy, log logger.Logger) *Engine {
	return &Engine{calendar: cal, simulator: simulator, policy: policy, log: log}
}

// Decide evaluates the active policy against the unconstrained SOC projection.
// It returns the decision plus two trajectories for visualization: the base
// projection and the "with strategy" projection (equal to the base when
// allowing). The only error case is a forecast violating the ordering
// precondition; degenerate inputs such as an empty forecast resolve to allow.
func (e *Engine) Decide(socPercent float64, forecast model.Forecast, now time.Time) (model.Decision, model.Trajectory, model.Trajectory, error) {
	if forecast.Empty() {
		// Fail open: missing data must never keep the battery blocked.
		e.log.Warnf("no forecast data, allowing discharge")
		d := model.Decision{Allowed: true, Reason: "No forecast data", Policy: e.policy.Name(), MinSoCPercent: 100}
		return d, nil, nil, nil
	}
	if err := forecast.Validate(e.calendar.SlotWidth()); err != nil {
		return model.Decision{}, nil, nil, fmt.Errorf("forecast precondition: %w", err)
	}

	period := e.calendar.Periods(now)
	e.log.Debugw("tariff periods", map[string]any{
		"is_cheap_now": period.IsCheapNow,
		"cheap_end":    period.CheapEnd,
		"target":       period.Target,
	})

	base := e.simulator.Simulate(socPercent, forecast, time.Time{}, time.Time{})

	d := e.policy.Evaluate(Input{
		Now:        now,
		SoCPercent: socPercent,
		Forecast:   forecast,
		Period:     period,
		Base:       base,
		Calendar:   e.calendar,
		Simulator:  e.simulator,
	})

	strategy := base
	if !d.Allowed {
		blockUntil := d.BlockUntil
		if blockUntil.IsZero() {
			blockUntil = period.CheapEnd
		}
		strategy = e.simulator.Simulate(socPercent, forecast, now, blockUntil)
	}

	e.log.Infof("decision: allowed=%t policy=%s reason=%q", d.Allowed, d.Policy, d.Reason)
	return d, base, strategy, nil
}
