package sink

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"btwatch/pkg/models"
)

const publishTimeout = 2 * time.Second

// MQTTConfig holds MQTT sink configuration
type MQTTConfig struct {
	Broker   string
	Topic    string
	ClientID string
	Username string
	Password string
}

// MQTT publishes presence events as JSON to a broker topic. Delivery is
// best-effort like the other sinks; the client reconnects on its own.
type MQTT struct {
	client mqtt.Client
	topic  string
	log    zerolog.Logger
}

// NewMQTT connects to the broker and returns an MQTT sink.
func NewMQTT(cfg MQTTConfig, log zerolog.Logger) (*MQTT, error) {
	log = log.With().Str("component", "mqtt").Logger()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("Connection lost")
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("Connected to broker")
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &MQTT{client: client, topic: cfg.Topic, log: log}, nil
}

// Write publishes the event to the configured topic.
func (s *MQTT) Write(e models.Event) error {
	if e.Kind == models.EventObservation {
		return nil
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	token := s.client.Publish(s.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: publish timed out", ErrWrite)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	return nil
}

// Close disconnects from the broker.
func (s *MQTT) Close() error {
	s.client.Disconnect(250)
	return nil
}
