// Package mqtt broadcasts decision cycles to other home-automation consumers
// as retained JSON messages.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/SensorsIot/Energy-Management/config"
	"github.com/SensorsIot/Energy-Management/core/appliance"
	"github.com/SensorsIot/Energy-Management/core/model"
	"github.com/SensorsIot/Energy-Management/infra/logger"
)

// Publisher publishes the discharge decision and appliance signal. Messages
// are retained so late subscribers see the current state immediately.
type Publisher struct {
	cli            paho.Client
	decisionTopic  string
	applianceTopic string
	qos            byte
	log            logger.Logger
}

// decisionMessage is the wire form of a published decision.
type decisionMessage struct {
	Allowed       bool      `json:"allowed"`
	Reason        string    `json:"reason"`
	Policy        string    `json:"policy"`
	MinSoCPercent float64   `json:"min_soc_percent"`
	DeficitWh     float64   `json:"deficit_wh"`
	SoCPercent    float64   `json:"soc_percent"`
	Time          time.Time `json:"time"`
}

// applianceMessage is the wire form of a published appliance signal.
type applianceMessage struct {
	Signal            string    `json:"signal"`
	Reason            string    `json:"reason"`
	ExcessPowerW      float64   `json:"excess_power_w"`
	ForecastSurplusWh float64   `json:"forecast_surplus_wh"`
	Time              time.Time `json:"time"`
}

// NewPublisher connects to the configured broker.
func NewPublisher(cfg config.MQTTConfig) (*Publisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	cli := paho.NewClient(opts)
	token := cli.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", cfg.Broker, err)
	}
	return &Publisher{
		cli:            cli,
		decisionTopic:  cfg.DecisionTopic,
		applianceTopic: cfg.ApplianceTopic,
		qos:            cfg.QoS,
		log:            logger.New("mqtt-publisher"),
	}, nil
}

// PublishDecision publishes the verdict of the current cycle.
func (p *Publisher) PublishDecision(d model.Decision, socPercent float64, at time.Time) error {
	return p.publish(p.decisionTopic, decisionMessage{
		Allowed:       d.Allowed,
		Reason:        d.Reason,
		Policy:        d.Policy,
		MinSoCPercent: d.MinSoCPercent,
		DeficitWh:     d.DeficitWh,
		SoCPercent:    socPercent,
		Time:          at,
	})
}

// PublishAppliance publishes the appliance readiness signal.
func (p *Publisher) PublishAppliance(s appliance.Signal, at time.Time) error {
	return p.publish(p.applianceTopic, applianceMessage{
		Signal:            string(s.Level),
		Reason:            s.Reason,
		ExcessPowerW:      s.ExcessPowerW,
		ForecastSurplusWh: s.ForecastSurplusWh,
		Time:              at,
	})
}

func (p *Publisher) publish(topic string, msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	token := p.cli.Publish(topic, p.qos, true, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.log.Debugf("published to %s", topic)
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() { p.cli.Disconnect(250) }
