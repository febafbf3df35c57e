package controller

import (
	"chat-handoff-be/internal/dto"
	"chat-handoff-be/internal/pkg/serverutils"
	"chat-handoff-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IAgentController serves the operator dashboard. All routes sit behind the
// JWT middleware; agent and tenant identity come from the token, never from
// the request body.
type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	Heartbeat(ctx *fiber.Ctx) error
	UpdateStatus(ctx *fiber.Ctx) error
	PendingHandoffs(ctx *fiber.Ctx) error
	AssignHandoff(ctx *fiber.Ctx) error
	ResolveHandoff(ctx *fiber.Ctx) error
	ReplyToHandoff(ctx *fiber.Ctx) error
	HandoffMessages(ctx *fiber.Ctx) error
}

type agentController struct {
	presence service.IPresenceService
	handoffs service.IHandoffService
	chats    service.IChatService
}

func NewAgentController(presence service.IPresenceService, handoffs service.IHandoffService, chats service.IChatService) IAgentController {
	return &agentController{
		presence: presence,
		handoffs: handoffs,
		chats:    chats,
	}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/heartbeat", c.Heartbeat)
	h.Put("/status", c.UpdateStatus)
	h.Get("/handoffs/pending", c.PendingHandoffs)
	h.Post("/handoffs/:id/assign", c.AssignHandoff)
	h.Post("/handoffs/:id/resolve", c.ResolveHandoff)
	h.Post("/handoffs/:id/messages", c.ReplyToHandoff)
	h.Get("/handoffs/:id/messages", c.HandoffMessages)
}

func claimsFromLocals(ctx *fiber.Ctx) (tenantId, agentId uuid.UUID) {
	tenantStr, _ := ctx.Locals("tenant_id").(string)
	agentStr, _ := ctx.Locals("agent_id").(string)
	tenantId, _ = uuid.Parse(tenantStr)
	agentId, _ = uuid.Parse(agentStr)
	return tenantId, agentId
}

func (c *agentController) Heartbeat(ctx *fiber.Ctx) error {
	tenantId, agentId := claimsFromLocals(ctx)

	if err := c.presence.Heartbeat(ctx.Context(), tenantId, agentId); err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success heartbeat", dto.HeartbeatResponse{Ok: true}))
}

func (c *agentController) UpdateStatus(ctx *fiber.Ctx) error {
	tenantId, agentId := claimsFromLocals(ctx)

	var req dto.UpdateAgentStatusRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.presence.SetStatus(ctx.Context(), tenantId, agentId, req.Status); err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update status", dto.HeartbeatResponse{Ok: true}))
}

func (c *agentController) PendingHandoffs(ctx *fiber.Ctx) error {
	tenantId, _ := claimsFromLocals(ctx)

	res, err := c.handoffs.PendingForTenant(ctx.Context(), tenantId)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get pending handoffs", res))
}

func (c *agentController) AssignHandoff(ctx *fiber.Ctx) error {
	tenantId, agentId := claimsFromLocals(ctx)

	handoffId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid handoff id")
	}

	res, err := c.handoffs.Assign(ctx.Context(), tenantId, handoffId, agentId)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success assign handoff", res))
}

func (c *agentController) ResolveHandoff(ctx *fiber.Ctx) error {
	tenantId, _ := claimsFromLocals(ctx)

	handoffId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid handoff id")
	}

	res, err := c.handoffs.Resolve(ctx.Context(), tenantId, handoffId)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success resolve handoff", res))
}

func (c *agentController) ReplyToHandoff(ctx *fiber.Ctx) error {
	tenantId, agentId := claimsFromLocals(ctx)

	handoffId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid handoff id")
	}

	var req dto.AgentReplyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chats.AgentReply(ctx.Context(), tenantId, agentId, handoffId, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send reply", res))
}

func (c *agentController) HandoffMessages(ctx *fiber.Ctx) error {
	tenantId, _ := claimsFromLocals(ctx)

	handoffId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid handoff id")
	}

	res, err := c.chats.PollMessages(ctx.Context(), tenantId, handoffId, ctx.Query("since"))
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get handoff messages", res))
}
