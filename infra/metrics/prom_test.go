package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/SensorsIot/Energy-Management/core/model"
	"github.com/SensorsIot/Energy-Management/core/recorder"
)

func TestPromSinkRecordCycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	now := time.Date(2026, time.August, 24, 22, 0, 0, 0, time.UTC)
	rec := recorder.CycleRecord{
		RunID:      "test",
		Time:       now,
		SoCPercent: 42,
		Decision: model.Decision{
			Allowed:       false,
			Policy:        "minsoc",
			MinSoCPercent: 7.5,
			DeficitWh:     1200,
		},
		Base: model.Trajectory{
			{Time: now, SoCPercent: 40},
			{Time: now.Add(15 * time.Minute), SoCPercent: 20},
			{Time: now.Add(30 * time.Minute), SoCPercent: 30},
		},
		Duration: 80 * time.Millisecond,
	}
	if err := s.RecordCycle(context.Background(), rec); err != nil {
		t.Fatalf("record: %v", err)
	}

	checks := []struct {
		gauge prometheus.Gauge
		want  float64
		name  string
	}{
		{s.allowed, 0, "discharge_allowed"},
		{s.currentSoC, 42, "battery_soc_percent"},
		{s.minSoC, 7.5, "projected_min_soc_percent"},
		{s.deficit, 1200, "projected_deficit_wh"},
		{s.trajMin, 20, "trajectory_min_soc_percent"},
		{s.trajMean, 30, "trajectory_mean_soc_percent"},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.gauge); got != c.want {
			t.Errorf("%s = %g, want %g", c.name, got, c.want)
		}
	}
	if got := testutil.ToFloat64(s.cycles.WithLabelValues("false", "minsoc")); got != 1 {
		t.Errorf("cycle counter = %g, want 1", got)
	}
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	// Re-registering on the same registry must reuse the collectors.
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second registration: %v", err)
	}
}
