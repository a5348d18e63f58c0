package model

import "time"

// Decision is the discharge verdict for the current cycle. It is a value
// object recomputed from scratch each time; only the external actuator
// remembers the previous verdict to avoid redundant commands.
type Decision struct {
	Allowed bool
	// Reason is a human-readable justification. Informational only, never
	// machine-parsed.
	Reason string
	// Policy names the strategy that produced the verdict.
	Policy string

	// Evidence of the min-SOC policy: the lowest projected SOC inside the
	// protected expensive window and when it occurs.
	MinSoCPercent float64
	MinSoCTime    time.Time

	// Evidence of the savings policy.
	DeficitWh    float64
	SavedWh      float64
	SwitchOnTime time.Time

	// BlockUntil is the end of the discharge block the policy asks for when
	// Allowed is false. Zero when allowing.
	BlockUntil time.Time
}
