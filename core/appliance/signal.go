// Package appliance computes a traffic-light readiness signal for deferrable
// household loads (washing machine, dishwasher).
package appliance

import (
	"fmt"

	"github.com/SensorsIot/Energy-Management/core/battery"
	"github.com/SensorsIot/Energy-Management/core/model"
)

// Level is the signal color.
type Level string

const (
	// Green: the appliance can run directly from the current PV excess.
	Green Level = "green"
	// Orange: the forecast shows enough surplus by the end of the horizon.
	Orange Level = "orange"
	// Red: running now would require grid import.
	Red Level = "red"
)

// Signal is the appliance readiness result.
type Signal struct {
	Level             Level
	Reason            string
	ExcessPowerW      float64
	ForecastSurplusWh float64
}

// Thresholds configure the signal.
type Thresholds struct {
	// PowerW is the appliance's running power; current PV excess above it
	// yields green.
	PowerW float64
	// EnergyWh is the energy of one appliance cycle; a forecast surplus of
	// at least this much yields orange.
	EnergyWh float64
}

// Calculate derives the signal from the instantaneous PV/load powers, the
// current SOC and the net-energy forecast. The forecast surplus is the
// unclamped energy balance at the end of the horizon: start SOC plus the sum
// of all net energies.
func Calculate(currentPVW, currentLoadW, socPercent float64, forecast model.Forecast, bat battery.Battery, th Thresholds) Signal {
	excess := currentPVW - currentLoadW

	if excess > th.PowerW {
		return Signal{
			Level:        Green,
			Reason:       fmt.Sprintf("PV excess %dW", int(excess)),
			ExcessPowerW: excess,
		}
	}

	surplus := bat.EnergyWh(socPercent) + forecast.TotalNetEnergyWh()
	if forecast.Empty() {
		surplus = 0
	}
	if surplus >= th.EnergyWh {
		return Signal{
			Level:             Orange,
			Reason:            fmt.Sprintf("Forecast +%dWh", int(surplus)),
			ExcessPowerW:      excess,
			ForecastSurplusWh: surplus,
		}
	}
	return Signal{
		Level:             Red,
		Reason:            "No surplus",
		ExcessPowerW:      excess,
		ForecastSurplusWh: surplus,
	}
}
