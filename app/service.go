// Package app wires the configuration into a running decision service.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SensorsIot/Energy-Management/config"
	"github.com/SensorsIot/Energy-Management/core/appliance"
	"github.com/SensorsIot/Energy-Management/core/battery"
	"github.com/SensorsIot/Energy-Management/core/decision"
	"github.com/SensorsIot/Energy-Management/core/model"
	"github.com/SensorsIot/Energy-Management/core/recorder"
	"github.com/SensorsIot/Energy-Management/core/sim"
	"github.com/SensorsIot/Energy-Management/core/tariff"
	"github.com/SensorsIot/Energy-Management/infra/homeassistant"
	"github.com/SensorsIot/Energy-Management/infra/influx"
	"github.com/SensorsIot/Energy-Management/infra/logger"
	"github.com/SensorsIot/Energy-Management/infra/metrics"
	"github.com/SensorsIot/Energy-Management/infra/mqtt"
	"github.com/SensorsIot/Energy-Management/infra/notify"
	"github.com/SensorsIot/Energy-Management/internal/eventbus"
)

// forecastHorizon is how far ahead forecast data is requested. Two days
// always covers the end of the next expensive window, holidays included.
const forecastHorizon = 48 * time.Hour

// defaultSoCPercent is assumed when no SOC source responds. Mid-range keeps
// both policies conservative without blocking outright.
const defaultSoCPercent = 50

// Service orchestrates the periodic decision cycle: read SOC and forecast,
// decide, actuate the battery and publish the results.
type Service struct {
	cfg        *config.Config
	calendar   *tariff.Calendar
	battery    battery.Battery
	engine     *decision.Engine
	reader     *influx.ForecastReader
	recorder   recorder.CycleRecorder
	haClient   *homeassistant.Client
	controller *homeassistant.BatteryController
	notifier   *notify.Telegram
	publisher  *mqtt.Publisher
	bus        *eventbus.Bus[recorder.CycleRecord]
	// notifySub is registered at construction so records published before
	// the notify loop starts are buffered, not dropped.
	notifySub <-chan recorder.CycleRecord
	log       logger.Logger
	closers   []func()
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	cal, err := cfg.Tariff.Calendar()
	if err != nil {
		return nil, fmt.Errorf("tariff calendar: %w", err)
	}
	bat, err := cfg.Battery.Battery(cal.SlotWidth())
	if err != nil {
		return nil, fmt.Errorf("battery: %w", err)
	}
	simulator := sim.New(bat)

	var policy decision.Policy
	switch cfg.Decision.Policy {
	case decision.PolicySavings:
		policy = decision.SavingsPolicy{}
	default:
		policy = decision.MinSoCPolicy{FloorPercent: cfg.Battery.MinSoCPercent}
	}
	engine := decision.NewEngine(cal, simulator, policy, logger.New("decision"))

	svc := &Service{
		cfg:      cfg,
		calendar: cal,
		battery:  bat,
		engine:   engine,
		notifier: notify.NewTelegram(cfg.Telegram),
		bus:      eventbus.New[recorder.CycleRecord](),
		log:      logg,
	}
	svc.notifySub = svc.bus.Subscribe()

	svc.reader = influx.NewForecastReader(cfg.InfluxDB)
	svc.closers = append(svc.closers, svc.reader.Close)

	recorders := []recorder.CycleRecorder{influx.NewResultWriterWithFallback(cfg.InfluxDB)}
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		recorders = append(recorders, sink)
	}
	if len(recorders) == 1 {
		svc.recorder = recorders[0]
	} else {
		svc.recorder = recorder.NewMultiRecorder(recorders...)
	}

	svc.haClient = homeassistant.NewClient(cfg.HomeAssistant)
	if cfg.HomeAssistant.Token != "" {
		svc.controller = homeassistant.NewBatteryController(
			svc.haClient, cfg.Battery.DischargeControlEntity, cfg.Battery.DischargePowerW)
	} else {
		logg.Warnf("no home assistant token, battery actuation disabled")
	}

	if cfg.MQTT.Broker != "" {
		pub, err := mqtt.NewPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
		svc.closers = append(svc.closers, pub.Close)
	}

	return svc, nil
}

// Run executes a cycle immediately, then every configured interval until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	go s.notifyLoop(ctx)

	if err := s.RunCycle(ctx); err != nil {
		s.log.Errorf("decision cycle: %v", err)
	}
	ticker := time.NewTicker(time.Duration(s.cfg.Schedule.UpdateIntervalMinutes) * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.RunCycle(ctx); err != nil {
				s.log.Errorf("decision cycle: %v", err)
			}
		}
	}
}

// RunCycle performs a single decision cycle. Data-source failures degrade the
// cycle (fail open, nop recording) rather than aborting it; only a forecast
// violating the ordering precondition is returned as an error.
func (s *Service) RunCycle(ctx context.Context) error {
	started := time.Now()
	now := started.UTC()

	soc := s.currentSoC(ctx)

	windowStart := s.calendar.FloorToSlot(now)
	forecast, err := s.reader.CombinedForecast(ctx, windowStart, windowStart.Add(forecastHorizon))
	if err != nil {
		s.log.Warnf("forecast unavailable: %v", err)
		forecast = nil
	}

	d, base, strategy, err := s.engine.Decide(soc, forecast, now)
	if err != nil {
		return err
	}

	sig := s.applianceSignal(ctx, soc, forecast)

	rec := recorder.CycleRecord{
		RunID:      uuid.NewString(),
		Time:       now,
		SoCPercent: soc,
		Decision:   d,
		Period:     s.calendar.Periods(now),
		Base:       base,
		Strategy:   strategy,
		Appliance:  sig,
		Duration:   time.Since(started),
	}
	if err := s.recorder.RecordCycle(ctx, rec); err != nil {
		s.log.Warnf("record cycle: %v", err)
	}

	if s.controller != nil {
		if err := s.controller.Apply(ctx, d.Allowed); err != nil {
			s.log.Errorf("apply discharge setting: %v", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishDecision(d, soc, now); err != nil {
			s.log.Warnf("publish decision: %v", err)
		}
		if sig != nil {
			if err := s.publisher.PublishAppliance(*sig, now); err != nil {
				s.log.Warnf("publish appliance signal: %v", err)
			}
		}
	}
	s.bus.Publish(rec)
	return nil
}

// currentSoC reads the battery SOC, preferring the Home Assistant sensor,
// falling back to the InfluxDB history, then to the default.
func (s *Service) currentSoC(ctx context.Context) float64 {
	if s.cfg.HomeAssistant.Token != "" {
		soc, err := s.haClient.SensorValue(ctx, s.cfg.Battery.SoCEntity)
		if err == nil {
			return soc
		}
		s.log.Warnf("home assistant SOC: %v", err)
	}
	soc, err := s.reader.CurrentSoC(ctx)
	if err == nil {
		return soc
	}
	s.log.Warnf("influx SOC fallback: %v, assuming %d%%", err, defaultSoCPercent)
	return defaultSoCPercent
}

// applianceSignal computes the readiness light for heavy appliances. Missing
// power sensors degrade to forecast-only classification.
func (s *Service) applianceSignal(ctx context.Context, soc float64, forecast model.Forecast) *appliance.Signal {
	ha := s.cfg.HomeAssistant
	var pvW, loadW float64
	if ha.Token != "" && ha.PVPowerEntity != "" && ha.LoadPowerEntity != "" {
		var err error
		if pvW, err = s.haClient.SensorValue(ctx, ha.PVPowerEntity); err != nil {
			s.log.Warnf("pv power sensor: %v", err)
			pvW = 0
		}
		if loadW, err = s.haClient.SensorValue(ctx, ha.LoadPowerEntity); err != nil {
			s.log.Warnf("load power sensor: %v", err)
			loadW = 0
		}
	}
	sig := appliance.Calculate(pvW, loadW, soc, forecast, s.battery, appliance.Thresholds{
		PowerW:   s.cfg.Appliance.PowerW,
		EnergyWh: s.cfg.Appliance.EnergyWh,
	})
	return &sig
}

// notifyLoop forwards decision flips to the operator channel.
func (s *Service) notifyLoop(ctx context.Context) {
	if !s.notifier.Configured() {
		return
	}
	var last *bool
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-s.notifySub:
			if !ok {
				return
			}
			if last != nil && *last == rec.Decision.Allowed {
				continue
			}
			allowed := rec.Decision.Allowed
			last = &allowed
			title := "Discharge blocked"
			if allowed {
				title = "Discharge enabled"
			}
			body := fmt.Sprintf("%s\nSOC: %.1f%%", rec.Decision.Reason, rec.SoCPercent)
			if err := s.notifier.Info(ctx, title, body); err != nil {
				s.log.Warnf("telegram notification: %v", err)
			}
		}
	}
}

// Close releases network resources held by the service.
func (s *Service) Close() {
	s.bus.Close()
	for _, c := range s.closers {
		c()
	}
}
