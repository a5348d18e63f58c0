// Package influx reads forecast input from and writes cycle results to an
// InfluxDB instance using the official client.
package influx

import (
	"context"
	"fmt"
	"sort"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/SensorsIot/Energy-Management/config"
	"github.com/SensorsIot/Energy-Management/core/model"
	"github.com/SensorsIot/Energy-Management/infra/logger"
)

// ForecastReader loads the combined PV/load energy forecast and provides the
// fallback SOC source.
type ForecastReader struct {
	client influxdb2.Client
	query  api.QueryAPI
	cfg    config.InfluxConfig
	log    logger.Logger
}

// NewForecastReader creates a reader for the configured endpoint.
func NewForecastReader(cfg config.InfluxConfig) *ForecastReader {
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, influxdb2.DefaultOptions())
	return &ForecastReader{
		client: client,
		query:  client.QueryAPI(cfg.Org),
		cfg:    cfg,
		log:    logger.New("forecast-reader"),
	}
}

// Close releases the underlying HTTP client.
func (r *ForecastReader) Close() { r.client.Close() }

// CombinedForecast returns the PV and load forecasts joined on their common
// timestamps within [start, end), sorted ascending, with net energy derived.
// Missing data from either bucket yields an empty forecast, not an error.
func (r *ForecastReader) CombinedForecast(ctx context.Context, start, end time.Time) (model.Forecast, error) {
	pv, err := r.energySeries(ctx, r.cfg.PVBucket, "pv_forecast", `|> filter(fn: (r) => r.inverter == "total")`, start, end)
	if err != nil {
		return nil, fmt.Errorf("pv forecast: %w", err)
	}
	load, err := r.energySeries(ctx, r.cfg.LoadBucket, "load_forecast", "", start, end)
	if err != nil {
		return nil, fmt.Errorf("load forecast: %w", err)
	}
	if len(pv) == 0 || len(load) == 0 {
		r.log.Warnf("missing forecast data: %d pv, %d load points", len(pv), len(load))
		return nil, nil
	}

	forecast := make(model.Forecast, 0, len(pv))
	for ts, pvWh := range pv {
		loadWh, ok := load[ts]
		if !ok {
			continue
		}
		t := time.Unix(0, ts).UTC()
		if t.Before(start) || !t.Before(end) {
			continue
		}
		forecast = append(forecast, model.NewForecastSample(t, pvWh, loadWh))
	}
	sort.Slice(forecast, func(i, j int) bool { return forecast[i].Time.Before(forecast[j].Time) })
	r.log.Infof("loaded %d forecast slots from %s to %s", len(forecast), start, end)
	return forecast, nil
}

// energySeries runs a flux query for one energy field and returns values
// keyed by unix-nano timestamp.
func (r *ForecastReader) energySeries(ctx context.Context, bucket, measurement, extraFilter string, start, end time.Time) (map[int64]float64, error) {
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: %s, stop: %s)
  |> filter(fn: (r) => r._measurement == %q)
  %s
  |> filter(fn: (r) => r._field == "energy_wh_%s")
  |> keep(columns: ["_time", "_value"])`,
		bucket, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339),
		measurement, extraFilter, r.cfg.Percentile)

	result, err := r.query.Query(ctx, flux)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := result.Close(); cerr != nil {
			r.log.Warnf("close query result: %v", cerr)
		}
	}()

	series := make(map[int64]float64)
	for result.Next() {
		v, ok := result.Record().Value().(float64)
		if !ok {
			continue
		}
		series[result.Record().Time().UnixNano()] = v
	}
	if result.Err() != nil {
		return nil, result.Err()
	}
	return series, nil
}

// CurrentSoC returns the most recent battery SOC recorded in the last hour,
// used when the Home Assistant sensor is unavailable.
func (r *ForecastReader) CurrentSoC(ctx context.Context) (float64, error) {
	if r.cfg.SoCBucket == "" {
		return 0, fmt.Errorf("no SOC bucket configured")
	}
	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: -1h)
  |> filter(fn: (r) => r._measurement == %q)
  |> filter(fn: (r) => r._field == %q)
  |> last()`, r.cfg.SoCBucket, r.cfg.SoCMeasurement, r.cfg.SoCField)

	result, err := r.query.Query(ctx, flux)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := result.Close(); cerr != nil {
			r.log.Warnf("close query result: %v", cerr)
		}
	}()
	for result.Next() {
		if v, ok := result.Record().Value().(float64); ok {
			return v, nil
		}
	}
	if result.Err() != nil {
		return 0, result.Err()
	}
	return 0, fmt.Errorf("no SOC value in the last hour")
}
