package handler

import (
	"os"

	"chat-handoff-be/internal/pkg/logger"
	internalWS "chat-handoff-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DashboardHandler upgrades authenticated operator connections into the
// event-stream hub.
type DashboardHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewDashboardHandler(hub *internalWS.Hub, log logger.ILogger) *DashboardHandler {
	return &DashboardHandler{hub: hub, logger: log}
}

// ServeWs authenticates the handshake and hands the connection to the hub.
// Browsers cannot set headers on websocket upgrades, so the token is accepted
// as a query param first, Authorization header second.
func (h *DashboardHandler) ServeWs(c *fiber.Ctx) error {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("DashboardHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	tenantStr, _ := claims["tenant_id"].(string)
	agentStr, _ := claims["agent_id"].(string)
	tenantID, err := uuid.Parse(tenantStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing tenant_id"})
	}
	agentID, err := uuid.Parse(agentStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing agent_id"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("DashboardHandler", "Starting WebSocket session", map[string]interface{}{
				"tenant_id": tenantID,
				"agent_id":  agentID,
			})
			internalWS.ServeWs(h.hub, conn, tenantID, agentID)
			h.logger.Info("DashboardHandler", "WebSocket session ended", map[string]interface{}{
				"tenant_id": tenantID,
				"agent_id":  agentID,
			})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes mounts the dashboard stream under the agent surface.
func (h *DashboardHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/agent/v1/ws", h.ServeWs)
}
