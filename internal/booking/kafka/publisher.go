package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"ms-booking/internal/config"
	"ms-booking/internal/models"
)

// MessagePublisher is satisfied by the shared kafka producer and its no-op twin.
type MessagePublisher interface {
	Publish(topic, key string, value []byte) error
}

// Publisher turns ledger events into keyed JSON messages on the configured topics.
type Publisher struct {
	Producer MessagePublisher
	Topics   config.TopicConfig
}

func NewPublisher(producer MessagePublisher, topics config.TopicConfig) *Publisher {
	return &Publisher{Producer: producer, Topics: topics}
}

func (p *Publisher) PublishBookingEvent(ctx context.Context, event models.BookingEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	return p.Producer.Publish(p.Topics.BookingEvents, event.BookingID, value)
}

func (p *Publisher) PublishPackageDeleted(ctx context.Context, event models.PackageDeletedEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}
	return p.Producer.Publish(p.Topics.PackageEvents, event.PackageID, value)
}
