// Package recorder defines how decision cycles are exposed to observability
// backends. The core places no requirement on how records are persisted.
package recorder

import (
	"context"
	"time"

	"github.com/SensorsIot/Energy-Management/core/appliance"
	"github.com/SensorsIot/Energy-Management/core/model"
)

// CycleRecord is the full outcome of one decision cycle.
type CycleRecord struct {
	// RunID uniquely tags the cycle so superseded projections can be told
	// apart from the latest one.
	RunID      string
	Time       time.Time
	SoCPercent float64
	Decision   model.Decision
	Period     model.TariffPeriod
	// Base is the unconstrained projection, Strategy the one with the
	// policy's discharge block applied (equal to Base when allowing).
	Base     model.Trajectory
	Strategy model.Trajectory
	// Appliance is the readiness signal, nil when not computed.
	Appliance *appliance.Signal
	Duration  time.Duration
}

// CycleRecorder records decision cycles for observability purposes.
type CycleRecorder interface {
	RecordCycle(ctx context.Context, rec CycleRecord) error
}

// NopRecorder discards all records.
type NopRecorder struct{}

// RecordCycle implements CycleRecorder.
func (NopRecorder) RecordCycle(context.Context, CycleRecord) error { return nil }

// MultiRecorder fans records out to several recorders, returning the first
// error encountered.
type MultiRecorder struct {
	Recorders []CycleRecorder
}

// NewMultiRecorder creates a MultiRecorder over the provided recorders.
func NewMultiRecorder(recorders ...CycleRecorder) *MultiRecorder {
	return &MultiRecorder{Recorders: recorders}
}

// RecordCycle implements CycleRecorder.
func (m *MultiRecorder) RecordCycle(ctx context.Context, rec CycleRecord) error {
	for _, r := range m.Recorders {
		if err := r.RecordCycle(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
