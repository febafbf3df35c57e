package service

import (
	"encoding/json"
	"time"

	"chat-handoff-be/internal/pkg/logger"
	"chat-handoff-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IEventPublisher pushes domain events onto the in-process bus. Best-effort
// by design: a failed publish is logged and dropped, never bubbled into the
// state transition that triggered it.
type IEventPublisher interface {
	Publish(event events.Event)
}

// EventEnvelope is the wire form on the watermill bus.
type EventEnvelope struct {
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
	logger    logger.ILogger
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel, log logger.ILogger) IEventPublisher {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
		logger:    log,
	}
}

func (p *publisherService) Publish(event events.Event) {
	envelope := EventEnvelope{
		Type:       event.EventType(),
		Payload:    event.Payload(),
		OccurredAt: event.Timestamp(),
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		p.logger.Error("Publisher", "Failed to marshal event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	if err := p.pubSub.Publish(p.topicName, msg); err != nil {
		p.logger.Error("Publisher", "Failed to publish event", map[string]interface{}{
			"type":  event.EventType(),
			"error": err.Error(),
		})
	}
}
