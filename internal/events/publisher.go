package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rental-site/internal/models"
)

// Publisher emits audit events. Implementations must not block the caller
// on broker availability.
type Publisher interface {
	PublishSecurity(ctx context.Context, ev *models.SecurityEvent)
	PublishDomain(ctx context.Context, ev *models.DomainEvent)
}

// Producer is the subset of the Kafka producer used here.
type Producer interface {
	ProduceMessage(ctx context.Context, key, value []byte, headers map[string]string) error
}

type KafkaPublisher struct {
	producer Producer
	source   string
	logger   *zap.Logger
}

func NewKafkaPublisher(producer Producer, source string, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source, logger: logger}
}

func (p *KafkaPublisher) PublishSecurity(ctx context.Context, ev *models.SecurityEvent) {
	stamp(&ev.EventID, &ev.EventTime)
	// keyed by fingerprint so one client's events stay on one partition
	p.publish(ctx, ev.Fingerprint, ev.EventType, ev)
}

func (p *KafkaPublisher) PublishDomain(ctx context.Context, ev *models.DomainEvent) {
	stamp(&ev.EventID, &ev.EventTime)
	p.publish(ctx, ev.Subject, ev.EventType, ev)
}

func (p *KafkaPublisher) publish(ctx context.Context, key, eventType string, ev interface{}) {
	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("Failed to encode event", zap.String("event_type", eventType), zap.Error(err))
		return
	}
	headers := map[string]string{
		"event_type": eventType,
		"source":     p.source,
	}
	if err := p.producer.ProduceMessage(ctx, []byte(key), value, headers); err != nil {
		p.logger.Warn("Failed to publish event",
			zap.String("event_type", eventType),
			zap.Error(fmt.Errorf("publish: %w", err)))
	}
}

func stamp(id *string, at *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if at.IsZero() {
		*at = time.Now().UTC()
	}
}

// NopPublisher drops every event. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) PublishSecurity(context.Context, *models.SecurityEvent) {}
func (NopPublisher) PublishDomain(context.Context, *models.DomainEvent)     {}
