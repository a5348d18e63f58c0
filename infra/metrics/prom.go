// Package metrics exposes decision cycles as Prometheus metrics.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/SensorsIot/Energy-Management/core/recorder"
)

// PromSink records each decision cycle in Prometheus metrics.
type PromSink struct {
	cycles        *prometheus.CounterVec
	allowed       prometheus.Gauge
	currentSoC    prometheus.Gauge
	minSoC        prometheus.Gauge
	deficit       prometheus.Gauge
	trajMin       prometheus.Gauge
	trajMean      prometheus.Gauge
	cycleDuration prometheus.Histogram
}

// NewPromSink registers the metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A nil
// registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	s := &PromSink{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "discharge_decision_cycles_total",
			Help: "Total number of decision cycles by verdict",
		}, []string{"allowed", "policy"}),
		allowed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "discharge_allowed",
			Help: "Whether battery discharge is currently allowed (1) or blocked (0)",
		}),
		currentSoC: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "battery_soc_percent",
			Help: "Battery state of charge used for the latest decision",
		}),
		minSoC: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "projected_min_soc_percent",
			Help: "Minimum projected SOC inside the protected expensive window",
		}),
		deficit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "projected_deficit_wh",
			Help: "Unclamped energy deficit at the target time",
		}),
		trajMin: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trajectory_min_soc_percent",
			Help: "Minimum SOC over the whole projected trajectory",
		}),
		trajMean: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trajectory_mean_soc_percent",
			Help: "Mean SOC over the whole projected trajectory",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "decision_cycle_duration_seconds",
			Help:    "Wall time of one decision cycle",
			Buckets: prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{
		s.cycles, s.allowed, s.currentSoC, s.minSoC, s.deficit, s.trajMin, s.trajMean, s.cycleDuration,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return s, nil
}

// RecordCycle implements recorder.CycleRecorder.
func (s *PromSink) RecordCycle(_ context.Context, rec recorder.CycleRecord) error {
	d := rec.Decision
	allowed := "false"
	v := 0.0
	if d.Allowed {
		allowed = "true"
		v = 1
	}
	s.cycles.WithLabelValues(allowed, d.Policy).Inc()
	s.allowed.Set(v)
	s.currentSoC.Set(rec.SoCPercent)
	s.minSoC.Set(d.MinSoCPercent)
	s.deficit.Set(d.DeficitWh)
	if socs := rec.Base.SoCPercents(); len(socs) > 0 {
		s.trajMin.Set(floats.Min(socs))
		s.trajMean.Set(stat.Mean(socs, nil))
	}
	s.cycleDuration.Observe(rec.Duration.Seconds())
	return nil
}
