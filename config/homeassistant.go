package config

// HomeAssistantConfig defines the REST endpoint of the home-automation
// platform. An empty token disables actuation and the HA SOC source.
type HomeAssistantConfig struct {
	URL   string `json:"url"`
	Token string `json:"token"`
	// Optional sensors for the instantaneous PV and load power, used by
	// the appliance readiness signal.
	PVPowerEntity   string `json:"pv_power_entity"`
	LoadPowerEntity string `json:"load_power_entity"`
}

// SetDefaults applies sane defaults.
func (c *HomeAssistantConfig) SetDefaults() {
	if c.URL == "" {
		c.URL = "http://supervisor/core"
	}
}

// TelegramConfig carries the bot credentials for operator notifications.
// Both fields empty disables notifications.
type TelegramConfig struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
	// APIBase overrides the bot API endpoint, for self-hosted servers.
	APIBase string `json:"api_base"`
}

// Configured reports whether notifications can be sent.
func (c TelegramConfig) Configured() bool { return c.BotToken != "" && c.ChatID != "" }

// MQTTConfig defines the optional broker used to broadcast decisions and
// appliance signals to other home-automation consumers. An empty broker
// disables publishing.
type MQTTConfig struct {
	Broker         string `json:"broker"`
	ClientID       string `json:"client_id"`
	Username       string `json:"username"`
	Password       string `json:"password"`
	DecisionTopic  string `json:"decision_topic"`
	ApplianceTopic string `json:"appliance_topic"`
	QoS            byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *MQTTConfig) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "energymanager"
	}
	if c.DecisionTopic == "" {
		c.DecisionTopic = "energymanager/discharge"
	}
	if c.ApplianceTopic == "" {
		c.ApplianceTopic = "energymanager/appliance"
	}
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
}

// SetDefaults applies sane defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":2112"
	}
}

// ApplianceConfig holds the appliance readiness thresholds.
type ApplianceConfig struct {
	PowerW   float64 `json:"power_w"`
	EnergyWh float64 `json:"energy_wh"`
}

// SetDefaults applies sane defaults.
func (c *ApplianceConfig) SetDefaults() {
	if c.PowerW == 0 {
		c.PowerW = 2500
	}
	if c.EnergyWh == 0 {
		c.EnergyWh = 1500
	}
}
