package influx

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/SensorsIot/Energy-Management/config"
	"github.com/SensorsIot/Energy-Management/core/model"
	"github.com/SensorsIot/Energy-Management/core/recorder"
	"github.com/SensorsIot/Energy-Management/infra/logger"
)

const (
	measurementComparison = "soc_comparison"
	measurementDecision   = "discharge_decision"
	measurementAppliance  = "appliance_signal"
)

// ResultWriter persists decision cycles: the two projected trajectories under
// soc_comparison (scenario tag) and one discharge_decision point per cycle.
type ResultWriter struct {
	client influxdb2.Client
	write  api.WriteAPIBlocking
	delete api.DeleteAPI
	org    string
	bucket string
	log    logger.Logger
}

// NewResultWriter creates a writer for the configured output bucket.
func NewResultWriter(cfg config.InfluxConfig) *ResultWriter {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, influxdb2.DefaultOptions())
	return &ResultWriter{
		client: client,
		write:  client.WriteAPIBlocking(cfg.Org, cfg.OutputBucket),
		delete: client.DeleteAPI(),
		org:    cfg.Org,
		bucket: cfg.OutputBucket,
		log:    logger.New("result-writer"),
	}
}

// NewResultWriterWithFallback pings the InfluxDB instance and returns a
// NopRecorder when the health check fails, so a missing database never stops
// the decision loop.
func NewResultWriterWithFallback(cfg config.InfluxConfig) recorder.CycleRecorder {
	w := NewResultWriter(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := w.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			w.log.Errorf("influx health check error: %v", err)
		} else {
			w.log.Errorf("influx health status: %s", health.Status)
		}
		w.client.Close()
		return recorder.NopRecorder{}
	}
	return w
}

// Close releases the underlying HTTP client.
func (w *ResultWriter) Close() { w.client.Close() }

// RecordCycle implements recorder.CycleRecorder. Old comparison data is
// deleted first so dashboards only show the latest projection.
func (w *ResultWriter) RecordCycle(ctx context.Context, rec recorder.CycleRecord) error {
	if !rec.Base.Empty() {
		if err := w.replaceComparison(ctx, rec); err != nil {
			return err
		}
	}
	if err := w.writeDecision(ctx, rec); err != nil {
		return err
	}
	if rec.Appliance != nil {
		if err := w.writeAppliance(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (w *ResultWriter) replaceComparison(ctx context.Context, rec recorder.CycleRecord) error {
	start := rec.Base[0].Time
	stop := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	predicate := `_measurement="` + measurementComparison + `"`
	if err := w.delete.DeleteWithName(ctx, w.org, w.bucket, start, stop, predicate); err != nil {
		// Stale projections are only a display problem; keep writing.
		w.log.Warnf("delete old comparison data: %v", err)
	}

	points := make([]*write.Point, 0, len(rec.Base)+len(rec.Strategy))
	points = append(points, trajectoryPoints(rec.Base, "no_strategy", rec.RunID)...)
	points = append(points, trajectoryPoints(rec.Strategy, "with_strategy", rec.RunID)...)
	if err := w.write.WritePoint(ctx, points...); err != nil {
		return err
	}
	w.log.Infof("written %d SOC comparison points", len(points))
	return nil
}

func trajectoryPoints(tr model.Trajectory, scenario, runID string) []*write.Point {
	points := make([]*write.Point, 0, len(tr))
	for _, p := range tr {
		points = append(points, write.NewPointWithMeasurement(measurementComparison).
			AddTag("scenario", scenario).
			AddTag("run_id", runID).
			AddField("soc_percent", p.SoCPercent).
			AddField("soc_wh", p.SoCWh).
			AddField("soc_wh_unclamped", p.UnclampedWh).
			AddField("discharge_wh", p.DischargeWh).
			SetTime(p.Time))
	}
	return points
}

func (w *ResultWriter) writeDecision(ctx context.Context, rec recorder.CycleRecord) error {
	d := rec.Decision
	p := write.NewPointWithMeasurement(measurementDecision).
		AddTag("policy", d.Policy).
		AddTag("run_id", rec.RunID).
		AddField("allowed", d.Allowed).
		AddField("reason", d.Reason).
		AddField("min_soc_percent", d.MinSoCPercent).
		AddField("deficit_wh", d.DeficitWh).
		AddField("saved_wh", d.SavedWh).
		AddField("current_soc", rec.SoCPercent).
		SetTime(rec.Time)
	if !d.MinSoCTime.IsZero() {
		p.AddField("min_soc_time", d.MinSoCTime.UTC().Format(time.RFC3339))
	}
	if !d.SwitchOnTime.IsZero() {
		p.AddField("switch_on_time", d.SwitchOnTime.UTC().Format(time.RFC3339))
	}
	return w.write.WritePoint(ctx, p)
}

func (w *ResultWriter) writeAppliance(ctx context.Context, rec recorder.CycleRecord) error {
	s := rec.Appliance
	p := write.NewPointWithMeasurement(measurementAppliance).
		AddTag("run_id", rec.RunID).
		AddTag("signal", string(s.Level)).
		AddField("reason", s.Reason).
		AddField("excess_power_w", s.ExcessPowerW).
		AddField("forecast_surplus_wh", s.ForecastSurplusWh).
		SetTime(rec.Time)
	return w.write.WritePoint(ctx, p)
}
