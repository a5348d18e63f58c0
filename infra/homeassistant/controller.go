package homeassistant

import (
	"context"
	"sync"

	"github.com/SensorsIot/Energy-Management/infra/logger"
)

// BatteryController translates the discharge verdict into a maximum-discharge
// power setpoint. It remembers the last value sent and suppresses redundant
// commands; this is the only state carried across decision cycles, and it
// lives here, outside the decision core.
type BatteryController struct {
	client        *Client
	entityID      string
	allowedPowerW float64
	log           logger.Logger

	mu   sync.Mutex
	last *bool
}

// NewBatteryController creates a controller for the given number entity.
func NewBatteryController(client *Client, entityID string, allowedPowerW float64) *BatteryController {
	return &BatteryController{
		client:        client,
		entityID:      entityID,
		allowedPowerW: allowedPowerW,
		log:           logger.New("battery-controller"),
	}
}

// Apply sends the setpoint matching the verdict, only when it changed since
// the previous call. A failed command clears the remembered state so the next
// cycle retries.
func (c *BatteryController) Apply(ctx context.Context, dischargeAllowed bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil && *c.last == dischargeAllowed {
		c.log.Debugf("discharge state unchanged (%t), no command sent", dischargeAllowed)
		return nil
	}

	value := 0.0
	if dischargeAllowed {
		value = c.allowedPowerW
	}
	if err := c.client.SetNumber(ctx, c.entityID, value); err != nil {
		c.last = nil
		return err
	}
	c.log.Infof("battery control: %s = %gW", c.entityID, value)
	state := dischargeAllowed
	c.last = &state
	return nil
}
