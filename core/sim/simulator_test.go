package sim

import (
	"math"
	"testing"
	"time"

	"github.com/SensorsIot/Energy-Management/core/battery"
	"github.com/SensorsIot/Energy-Management/core/model"
)

var slotStart = time.Date(2026, time.August, 24, 21, 0, 0, 0, time.UTC)

// testBattery returns a 10 kWh battery with hourly slots. Power limits of
// 40 kW make the per-slot caps irrelevant unless a test lowers them.
func testBattery(t *testing.T, chargeEff, dischargeEff float64) battery.Battery {
	t.Helper()
	b, err := battery.New(10000, chargeEff, dischargeEff, 40000, 40000, 10, time.Hour)
	if err != nil {
		t.Fatalf("battery: %v", err)
	}
	return b
}

// hourly builds a forecast of one sample per hour with the given net energies.
func hourly(nets ...float64) model.Forecast {
	f := make(model.Forecast, 0, len(nets))
	for i, net := range nets {
		f = append(f, model.ForecastSample{
			Time:        slotStart.Add(time.Duration(i) * time.Hour),
			NetEnergyWh: net,
		})
	}
	return f
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %g, want %g", name, got, want)
	}
}

func TestSimulateEmptyForecast(t *testing.T) {
	s := New(testBattery(t, 1, 1))
	if traj := s.Simulate(50, nil, time.Time{}, time.Time{}); !traj.Empty() {
		t.Errorf("empty forecast should yield empty trajectory, got %d points", len(traj))
	}
}

func TestSimulateRecordsSlotStart(t *testing.T) {
	s := New(testBattery(t, 1, 1))
	traj := s.Simulate(50, hourly(1000, -500), time.Time{}, time.Time{})
	if len(traj) != 2 {
		t.Fatalf("got %d points, want 2", len(traj))
	}
	// Each point carries the state before its own slot is applied.
	approx(t, "point[0].SoCWh", traj[0].SoCWh, 5000)
	approx(t, "point[0].SoCPercent", traj[0].SoCPercent, 50)
	approx(t, "point[1].SoCWh", traj[1].SoCWh, 6000)
	approx(t, "point[1].UnclampedWh", traj[1].UnclampedWh, 6000)

	finalWh, finalUnclamped := s.EndState(50, hourly(1000, -500))
	approx(t, "finalWh", finalWh, 5500)
	approx(t, "finalUnclamped", finalUnclamped, 5500)
}

func TestSimulateConservationWithoutLimits(t *testing.T) {
	s := New(testBattery(t, 1, 1))
	f := hourly(1000, -500, 200, -300)
	finalWh, finalUnclamped := s.EndState(50, f)
	want := 5000 + f.TotalNetEnergyWh()
	approx(t, "finalWh", finalWh, want)
	approx(t, "finalUnclamped", finalUnclamped, want)
}

func TestSimulateClampsAtCapacity(t *testing.T) {
	s := New(testBattery(t, 1, 1))
	traj := s.Simulate(90, hourly(2000, 0), time.Time{}, time.Time{})
	approx(t, "point[1].SoCWh", traj[1].SoCWh, 10000)
	approx(t, "point[1].SoCPercent", traj[1].SoCPercent, 100)
	// The parallel tally keeps the overflow.
	approx(t, "point[1].UnclampedWh", traj[1].UnclampedWh, 11000)
}

func TestSimulateClampsAtEmpty(t *testing.T) {
	s := New(testBattery(t, 1, 1))
	traj := s.Simulate(5, hourly(-1000, 0), time.Time{}, time.Time{})
	approx(t, "point[1].SoCWh", traj[1].SoCWh, 0)
	// The tally goes negative by the unmet deficit.
	approx(t, "point[1].UnclampedWh", traj[1].UnclampedWh, -500)
	// DischargeWh reports the full demand, not the capped delivery.
	approx(t, "point[0].DischargeWh", traj[0].DischargeWh, 1000)
}

func TestSimulatePerSlotCaps(t *testing.T) {
	b, err := battery.New(10000, 1, 1, 500, 1000, 10, time.Hour)
	if err != nil {
		t.Fatalf("battery: %v", err)
	}
	s := New(b)

	traj := s.Simulate(50, hourly(-3000, 0), time.Time{}, time.Time{})
	approx(t, "discharge-capped SoCWh", traj[1].SoCWh, 4000)
	approx(t, "discharge-capped UnclampedWh", traj[1].UnclampedWh, 2000)
	approx(t, "DischargeWh", traj[0].DischargeWh, 3000)

	traj = s.Simulate(50, hourly(2000, 0), time.Time{}, time.Time{})
	approx(t, "charge-capped SoCWh", traj[1].SoCWh, 5500)
	approx(t, "charge-capped UnclampedWh", traj[1].UnclampedWh, 7000)
}

func TestSimulateEfficiencies(t *testing.T) {
	s := New(testBattery(t, 0.5, 0.5))

	traj := s.Simulate(50, hourly(1000, 0), time.Time{}, time.Time{})
	approx(t, "charged SoCWh", traj[1].SoCWh, 5500)

	traj = s.Simulate(50, hourly(-1000, 0), time.Time{}, time.Time{})
	// Serving 1000 Wh at 50% efficiency drains 2000 Wh from the battery.
	approx(t, "discharged SoCWh", traj[1].SoCWh, 3000)
	approx(t, "DischargeWh", traj[0].DischargeWh, 2000)
}

func TestSimulateBlockWindow(t *testing.T) {
	s := New(testBattery(t, 1, 1))
	f := hourly(-1000, -1000, -1000, -1000)
	blockFrom := f[1].Time
	blockUntil := f[3].Time

	traj := s.Simulate(50, f, blockFrom, blockUntil)
	// Slot 0 discharges normally.
	approx(t, "point[1].SoCWh", traj[1].SoCWh, 4000)
	// Slots 1 and 2 are blocked: the battery holds, the tally keeps falling.
	approx(t, "point[2].SoCWh", traj[2].SoCWh, 4000)
	approx(t, "point[3].SoCWh", traj[3].SoCWh, 4000)
	approx(t, "point[3].UnclampedWh", traj[3].UnclampedWh, 2000)
	approx(t, "blocked DischargeWh", traj[1].DischargeWh, 0)
	// Slot 3 is outside the half-open window and discharges again.
	approx(t, "resumed DischargeWh", traj[3].DischargeWh, 1000)

	finalWh, _ := s.EndState(50, f)
	approx(t, "unblocked EndState", finalWh, 1000)
}

func TestSimulateBlockFromStart(t *testing.T) {
	s := New(testBattery(t, 1, 1))
	f := hourly(-1000, -1000)

	// Zero blockFrom blocks from the first slot.
	traj := s.Simulate(50, f, time.Time{}, f[1].Time.Add(time.Hour))
	approx(t, "point[1].SoCWh", traj[1].SoCWh, 5000)
	approx(t, "point[1].UnclampedWh", traj[1].UnclampedWh, 4000)

	// Zero blockUntil disables blocking entirely.
	traj = s.Simulate(50, f, time.Time{}, time.Time{})
	approx(t, "point[1].SoCWh", traj[1].SoCWh, 4000)
}
