package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"chat-handoff-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub fans events out to operator dashboards. Connections are grouped per
// tenant: every dashboard of a tenant sees the same stream (multi-device,
// multi-operator). Delivery is best-effort; a slow consumer gets dropped, not
// buffered forever.
type Hub struct {
	// Registered clients map: TenantID -> list of dashboard connections
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.TenantID] = append(h.clients[client.TenantID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Dashboard connected", map[string]interface{}{
				"tenant_id": client.TenantID,
				"agent_id":  client.AgentID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.TenantID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.TenantID] = append(clients[:i], clients[i+1:]...)
						client.closeSend()
						break
					}
				}
				if len(h.clients[client.TenantID]) == 0 {
					delete(h.clients, client.TenantID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToTenant delivers a payload to every dashboard of the tenant, on
// this instance directly and on the others via Redis.
func (h *Hub) BroadcastToTenant(tenantId uuid.UUID, payload []byte) {
	h.deliverLocal(tenantId, payload)

	if h.rdb != nil {
		envelope, _ := json.Marshal(map[string]interface{}{
			"target_tenant_id": tenantId.String(),
			"message":          json.RawMessage(payload),
		})
		h.rdb.Publish(context.Background(), "cluster_events", envelope)
	}
}

func (h *Hub) deliverLocal(tenantId uuid.UUID, payload []byte) {
	h.mu.RLock()
	clients := h.clients[tenantId]
	h.mu.RUnlock()

	for _, client := range clients {
		if !client.trySend(payload) {
			h.logger.Warn("Hub", "Dashboard send buffer full, dropping connection", map[string]interface{}{
				"tenant_id": tenantId,
				"agent_id":  client.AgentID,
			})
			h.unregister <- client
		}
	}
}

// subscribeToRedis receives fan-out envelopes published by other instances
// and delivers them to the tenants connected here. The publishing instance
// has already delivered locally, but it also receives its own envelope back;
// duplicate pushes are harmless since dashboards dedup by message id.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var envelope struct {
			TargetTenantID string          `json:"target_tenant_id"`
			Message        json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		tenantId, err := uuid.Parse(envelope.TargetTenantID)
		if err != nil {
			continue
		}
		h.deliverLocal(tenantId, envelope.Message)
	}
}
