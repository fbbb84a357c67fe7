package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// client is the part of mqtt.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

// Publisher mirrors dashboard updates to retained MQTT topics, so a
// subscriber always sees only the latest current conditions, forecast and
// status.
type Publisher struct {
	client      client
	topicPrefix string
	enabled     bool

	// publishTimeout bounds each publish; callers hold the coordinator lock.
	publishTimeout time.Duration
}

const defaultPublishTimeout = 2 * time.Second

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	Enabled     bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("ERROR: MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("INFO: MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return newPublisher(c, cfg.TopicPrefix), nil
}

func newPublisher(c client, topicPrefix string) *Publisher {
	if topicPrefix == "" {
		topicPrefix = "weather-dashboard"
	}
	return &Publisher{
		client:         c,
		topicPrefix:    topicPrefix,
		enabled:        true,
		publishTimeout: defaultPublishTimeout,
	}
}

type currentMessage struct {
	Place   string                    `json:"place"`
	Current weather.CurrentConditions `json:"current"`
}

type statusMessage struct {
	Message string    `json:"message"`
	IsError bool      `json:"isError"`
	At      time.Time `json:"at"`
}

func (p *Publisher) ShowCurrent(current weather.CurrentConditions, place string) {
	p.publish("current", currentMessage{Place: place, Current: current})
}

func (p *Publisher) ShowForecast(forecast weather.ForecastSeries) {
	if forecast == nil {
		forecast = weather.ForecastSeries{}
	}
	p.publish("forecast", forecast)
}

func (p *Publisher) ShowStatus(message string, isError bool) {
	p.publish("status", statusMessage{Message: message, IsError: isError, At: time.Now().UTC()})
}

func (p *Publisher) publish(name string, v any) {
	if !p.enabled {
		return
	}

	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("ERROR: failed to marshal %s: %v", name, err)
		return
	}

	topic := fmt.Sprintf("%s/%s", p.topicPrefix, name)
	token := p.client.Publish(topic, 0, true, payload)
	if !token.WaitTimeout(p.publishTimeout) {
		log.Printf("ERROR: publish to %s timed out after %s", topic, p.publishTimeout)
		return
	}
	if token.Error() != nil {
		log.Printf("ERROR: failed to publish to %s: %v", topic, token.Error())
	}
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
