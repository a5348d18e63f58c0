package decision

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SensorsIot/Energy-Management/core/battery"
	"github.com/SensorsIot/Energy-Management/core/model"
	"github.com/SensorsIot/Energy-Management/core/sim"
	"github.com/SensorsIot/Energy-Management/core/tariff"
	"github.com/SensorsIot/Energy-Management/infra/logger"
)

const slot = 15 * time.Minute

func testCalendar(t *testing.T) *tariff.Calendar {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Zurich")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	cal, err := tariff.NewCalendar(tariff.Options{
		CheapStart: tariff.Clock{Hour: 21},
		CheapEnd:   tariff.Clock{Hour: 6},
		Location:   loc,
		SlotWidth:  slot,
	})
	if err != nil {
		t.Fatalf("new calendar: %v", err)
	}
	return cal
}

func testSimulator(t *testing.T, chargeEff, dischargeEff float64) sim.Simulator {
	t.Helper()
	b, err := battery.New(10000, chargeEff, dischargeEff, 5000, 5000, 10, slot)
	if err != nil {
		t.Fatalf("battery: %v", err)
	}
	return sim.New(b)
}

// flatForecast yields hours of slots with a constant net energy, starting at
// the given local time.
func flatForecast(start time.Time, hours int, netPerSlotWh float64) model.Forecast {
	n := hours * 4
	f := make(model.Forecast, 0, n)
	for i := 0; i < n; i++ {
		f = append(f, model.ForecastSample{Time: start.Add(time.Duration(i) * slot), NetEnergyWh: netPerSlotWh})
	}
	return f
}

func newTestEngine(t *testing.T, policy Policy) (*Engine, *tariff.Calendar) {
	t.Helper()
	cal := testCalendar(t)
	return NewEngine(cal, testSimulator(t, 0.95, 0.95), policy, logger.NopLogger{}), cal
}

func TestDecideAllowsWhenSoCStaysAboveFloor(t *testing.T) {
	eng, cal := newTestEngine(t, MinSoCPolicy{FloorPercent: 10})
	now := time.Date(2026, time.August, 24, 22, 0, 0, 0, cal.Location()) // Monday, cheap
	forecast := flatForecast(now, 40, 0)

	d, base, strategy, err := eng.Decide(50, forecast, now)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("should allow, got %q", d.Reason)
	}
	if !strings.Contains(d.Reason, "SOC stays >= 10%") {
		t.Errorf("unexpected reason %q", d.Reason)
	}
	if d.MinSoCPercent != 50 {
		t.Errorf("min SOC = %g, want 50", d.MinSoCPercent)
	}
	if len(base) != len(forecast) {
		t.Errorf("base has %d points, want %d", len(base), len(forecast))
	}
	// Allowing means no alternative trajectory is needed.
	require.Equal(t, base, strategy)
}

func TestDecideBlocksWhenFloorWouldBeBreached(t *testing.T) {
	eng, cal := newTestEngine(t, MinSoCPolicy{FloorPercent: 10})
	now := time.Date(2026, time.August, 24, 22, 0, 0, 0, cal.Location())
	// A constant 1 kW load empties the battery long before the expensive
	// window ends.
	forecast := flatForecast(now, 40, -250)

	d, base, strategy, err := eng.Decide(12, forecast, now)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if d.Allowed {
		t.Fatalf("should block, got %q", d.Reason)
	}
	if !strings.Contains(d.Reason, "below 10% floor") {
		t.Errorf("unexpected reason %q", d.Reason)
	}
	cheapEnd := time.Date(2026, time.August, 25, 6, 0, 0, 0, cal.Location())
	if !d.BlockUntil.Equal(cheapEnd) {
		t.Errorf("BlockUntil = %s, want %s", d.BlockUntil, cheapEnd)
	}

	// The strategy trajectory holds the SOC through the block window.
	idx := 8 // Tuesday 00:00, inside [now, cheap end)
	if strategy[idx].SoCWh != 1200 {
		t.Errorf("blocked SoCWh = %g, want 1200", strategy[idx].SoCWh)
	}
	if base[idx].SoCWh >= 1200 {
		t.Errorf("base SoCWh = %g, should have discharged", base[idx].SoCWh)
	}
}

func TestDecideAlwaysAllowsDuringExpensiveTariff(t *testing.T) {
	eng, cal := newTestEngine(t, MinSoCPolicy{FloorPercent: 10})
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, cal.Location()) // Monday noon
	forecast := flatForecast(now, 40, -250)

	d, _, _, err := eng.Decide(12, forecast, now)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !d.Allowed {
		t.Fatalf("expensive tariff must allow, got %q", d.Reason)
	}
	if !strings.Contains(d.Reason, "Expensive tariff") {
		t.Errorf("unexpected reason %q", d.Reason)
	}
}

func TestDecideFailsOpenOnEmptyForecast(t *testing.T) {
	eng, cal := newTestEngine(t, MinSoCPolicy{FloorPercent: 10})
	now := time.Date(2026, time.August, 24, 22, 0, 0, 0, cal.Location())

	d, base, strategy, err := eng.Decide(50, nil, now)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if !d.Allowed {
		t.Error("empty forecast must fail open")
	}
	if d.Reason != "No forecast data" {
		t.Errorf("reason = %q", d.Reason)
	}
	if !base.Empty() || !strategy.Empty() {
		t.Error("no trajectories expected without a forecast")
	}
}

func TestDecideRejectsUnorderedForecast(t *testing.T) {
	eng, cal := newTestEngine(t, MinSoCPolicy{FloorPercent: 10})
	now := time.Date(2026, time.August, 24, 22, 0, 0, 0, cal.Location())
	forecast := model.Forecast{
		{Time: now.Add(slot)},
		{Time: now},
	}

	_, _, _, err := eng.Decide(50, forecast, now)
	if err == nil {
		t.Fatal("unordered forecast must be rejected")
	}
	if !strings.Contains(err.Error(), "forecast precondition") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestDecideIsIdempotent(t *testing.T) {
	eng, cal := newTestEngine(t, MinSoCPolicy{FloorPercent: 10})
	now := time.Date(2026, time.August, 24, 22, 0, 0, 0, cal.Location())
	forecast := flatForecast(now, 40, -250)

	d1, base1, strat1, err := eng.Decide(12, forecast, now)
	require.NoError(t, err)
	d2, base2, strat2, err := eng.Decide(12, forecast, now)
	require.NoError(t, err)

	require.Equal(t, d1, d2)
	require.Equal(t, base1, base2)
	require.Equal(t, strat1, strat2)
}
