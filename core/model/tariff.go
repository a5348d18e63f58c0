package model

import "time"

// TariffPeriod describes the tariff structure around a point in time. It is
// recomputed fresh on every decision cycle and never stored.
type TariffPeriod struct {
	// CheapStart and CheapEnd bound the cheap period currently or next in
	// effect as a half-open interval [CheapStart, CheapEnd).
	CheapStart time.Time
	CheapEnd   time.Time
	// Target is the end of the next expensive window, the horizon the
	// decision engine must keep covered.
	Target     time.Time
	IsCheapNow bool
}
