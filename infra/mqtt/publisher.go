// Package mqtt streams live simulation telemetry to an MQTT broker. The
// engine stays unaware of the transport: a Relay subscribes to the event bus
// and forwards step events as JSON payloads.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremetrics "github.com/kilianp07/sitesim/core/metrics"
	"github.com/kilianp07/sitesim/infra/logger"
	"github.com/kilianp07/sitesim/internal/eventbus"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults fills the telemetry topic and a random client identity.
func (c *Config) SetDefaults() {
	if c.Topic == "" {
		c.Topic = "sitesim/telemetry"
	}
	if c.ClientID == "" {
		c.ClientID = "sitesim-" + uuid.NewString()[:8]
	}
}

// Publisher sends step telemetry somewhere.
type Publisher interface {
	PublishStep(ev coremetrics.StepEvent) error
	Close()
}

// PahoPublisher implements Publisher against a live broker.
type PahoPublisher struct {
	cli   paho.Client
	topic string
	qos   byte
	log   logger.Logger
}

// NewPahoPublisher connects to the broker described by cfg.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	cfg.SetDefaults()
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)
	cli := paho.NewClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &PahoPublisher{cli: cli, topic: cfg.Topic, qos: cfg.QoS, log: logger.New("mqtt-telemetry")}, nil
}

// PublishStep sends the allocation record as JSON on <topic>/<scenario>.
func (p *PahoPublisher) PublishStep(ev coremetrics.StepEvent) error {
	payload, err := json.Marshal(ev.Record)
	if err != nil {
		return err
	}
	topic := p.topic + "/" + ev.Scenario
	if token := p.cli.Publish(topic, p.qos, false, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt publish: %w", token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() {
	p.cli.Disconnect(250)
}

// Relay forwards step events from the bus to the publisher until the bus is
// closed or the returned stop function is called.
func Relay(bus eventbus.EventBus, pub Publisher, log logger.Logger) (stop func()) {
	sub := bus.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range sub {
			ev, ok := e.(coremetrics.StepEvent)
			if !ok {
				continue
			}
			if err := pub.PublishStep(ev); err != nil && log != nil {
				log.Errorf("telemetry publish: %v", err)
			}
		}
	}()
	return func() {
		bus.Unsubscribe(sub)
		<-done
	}
}
