package service

import (
	"context"
	"encoding/json"

	"chat-handoff-be/internal/pkg/logger"
	"chat-handoff-be/pkg/events"
	pktNats "chat-handoff-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// DashboardDelivery pushes a payload to every dashboard connected for the
// tenant. Implemented by the websocket hub.
type DashboardDelivery interface {
	BroadcastToTenant(tenantId uuid.UUID, payload []byte)
}

// IDispatcherService fans domain events out to the two best-effort sinks:
// connected dashboards and the NATS stream feeding workflow-automation
// webhooks. Correctness never depends on either; the polling endpoints are
// the source of truth.
type IDispatcherService interface {
	Consume(ctx context.Context) error
}

type dispatcherService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	delivery  DashboardDelivery
	natsPub   *pktNats.Publisher
	logger    logger.ILogger
}

func NewDispatcherService(
	pubSub *gochannel.GoChannel,
	topicName string,
	delivery DashboardDelivery,
	natsPub *pktNats.Publisher,
	log logger.ILogger,
) IDispatcherService {
	return &dispatcherService{
		pubSub:    pubSub,
		topicName: topicName,
		delivery:  delivery,
		natsPub:   natsPub,
		logger:    log,
	}
}

func (s *dispatcherService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *dispatcherService) processMessage(ctx context.Context, msg *message.Message) {
	// Always ack: these are fire-and-forget notifications, a redelivery loop
	// would be worse than a missed push.
	defer msg.Ack()

	var envelope EventEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		s.logger.Error("Dispatcher", "Failed to unmarshal event envelope", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if s.delivery != nil {
		if raw, ok := envelope.Payload["tenant_id"].(string); ok {
			if tenantId, err := uuid.Parse(raw); err == nil {
				s.delivery.BroadcastToTenant(tenantId, msg.Payload)
			}
		}
	}

	if s.natsPub != nil {
		event := events.BaseEvent{
			Type:       envelope.Type,
			Data:       envelope.Payload,
			OccurredAt: envelope.OccurredAt,
		}
		if err := s.natsPub.Publish(ctx, event); err != nil {
			s.logger.Warn("Dispatcher", "Failed to forward event to NATS", map[string]interface{}{
				"type":  envelope.Type,
				"error": err.Error(),
			})
		}
	}
}
