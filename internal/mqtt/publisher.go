package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"netinventory/internal/service"
)

const (
	publishQoS     byte = 1
	publishTimeout      = 5 * time.Second
)

// tokenPublisher is the part of mqtt.Client the publisher needs
type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher forwards events from a channel to <prefix>/events/<type>
type Publisher struct {
	client tokenPublisher
	prefix string
	events <-chan service.Event
	logger zerolog.Logger
}

// NewPublisher creates a publisher reading from events
func NewPublisher(client tokenPublisher, topicPrefix string, events <-chan service.Event, logger zerolog.Logger) *Publisher {
	return &Publisher{
		client: client,
		prefix: topicPrefix,
		events: events,
		logger: logger,
	}
}

// Start publishes events until ctx is cancelled or the channel is closed
func (p *Publisher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-p.events:
			if !ok {
				return
			}
			if err := p.publish(event); err != nil {
				p.logger.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to publish event")
			}
		}
	}
}

// Topic returns the topic an event of the given type is published on
func (p *Publisher) Topic(eventType service.EventType) string {
	return fmt.Sprintf("%s/events/%s", p.prefix, eventType)
}

func (p *Publisher) publish(event service.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	topic := p.Topic(event.Type)
	token := p.client.Publish(topic, publishQoS, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.logger.Debug().Str("topic", topic).Str("event_id", event.ID).Msg("Published event")
	return nil
}
