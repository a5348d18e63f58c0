// Package homeassistant is a minimal REST client for the home-automation
// platform: sensor reads and number-entity writes.
package homeassistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SensorsIot/Energy-Management/config"
	"github.com/SensorsIot/Energy-Management/infra/logger"
)

// Client calls the Home Assistant REST API with bearer-token auth.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     logger.Logger
}

// NewClient builds a client from the configuration. The token may be empty;
// calls then fail with ErrNoToken so callers can fall back to other sources.
func NewClient(cfg config.HomeAssistantConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     logger.New("ha-client"),
	}
}

// ErrNoToken is returned when the client has no credentials.
var ErrNoToken = fmt.Errorf("no home assistant token configured")

// entityState mirrors the relevant part of GET /api/states/<entity>.
type entityState struct {
	State string `json:"state"`
}

// SensorValue reads a numeric sensor state.
func (c *Client) SensorValue(ctx context.Context, entityID string) (float64, error) {
	if c.token == "" {
		return 0, ErrNoToken
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/states/"+entityID, nil)
	if err != nil {
		return 0, err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get state %s: %w", entityID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("get state %s: unexpected status %s", entityID, resp.Status)
	}

	var st entityState
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return 0, fmt.Errorf("decode state %s: %w", entityID, err)
	}
	v, err := strconv.ParseFloat(st.State, 64)
	if err != nil {
		return 0, fmt.Errorf("parse state %s=%q: %w", entityID, st.State, err)
	}
	return v, nil
}

// SetNumber sets a number entity via the number/set_value service.
func (c *Client) SetNumber(ctx context.Context, entityID string, value float64) error {
	if c.token == "" {
		return ErrNoToken
	}
	body, err := json.Marshal(map[string]any{
		"entity_id": entityID,
		"value":     value,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/services/number/set_value", bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("set %s: %w", entityID, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("set %s: unexpected status %s", entityID, resp.Status)
	}
	c.log.Infof("set %s to %g", entityID, value)
	return nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
}
