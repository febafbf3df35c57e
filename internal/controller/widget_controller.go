package controller

import (
	"chat-handoff-be/internal/dto"
	"chat-handoff-be/internal/pkg/serverutils"
	"chat-handoff-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// IWidgetController serves the embeddable chat widget. Unauthenticated in the
// JWT sense: every request carries the tenant's api key, which the resolver
// maps to a tenant or rejects outright.
type IWidgetController interface {
	RegisterRoutes(r fiber.Router)
	SendChatMessage(ctx *fiber.Ctx) error
	RequestHandoff(ctx *fiber.Ctx) error
	HandoffStatus(ctx *fiber.Ctx) error
	HandoffMessages(ctx *fiber.Ctx) error
	EndChat(ctx *fiber.Ctx) error
}

type widgetController struct {
	resolver service.IResolverService
	chats    service.IChatService
	handoffs service.IHandoffService
}

func NewWidgetController(resolver service.IResolverService, chats service.IChatService, handoffs service.IHandoffService) IWidgetController {
	return &widgetController{
		resolver: resolver,
		chats:    chats,
		handoffs: handoffs,
	}
}

func (c *widgetController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/widget/v1")
	h.Post("/chat-message", c.SendChatMessage)
	h.Post("/handoff-request", c.RequestHandoff)
	h.Get("/handoff-status/:id", c.HandoffStatus)
	h.Get("/handoff-messages/:id", c.HandoffMessages)
	h.Post("/end-chat", c.EndChat)
}

func (c *widgetController) resolveTenant(ctx *fiber.Ctx, apiKey string) (uuid.UUID, error) {
	binding, err := c.resolver.Resolve(ctx.Context(), apiKey)
	if err != nil {
		return uuid.Nil, mapServiceError(err)
	}
	return binding.TenantId, nil
}

func (c *widgetController) SendChatMessage(ctx *fiber.Ctx) error {
	var req dto.SendChatMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	tenantId, err := c.resolveTenant(ctx, req.ApiKey)
	if err != nil {
		return err
	}

	res, err := c.chats.SendMessage(ctx.Context(), tenantId, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat message", res))
}

func (c *widgetController) RequestHandoff(ctx *fiber.Ctx) error {
	var req dto.RequestHandoffRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	tenantId, err := c.resolveTenant(ctx, req.ApiKey)
	if err != nil {
		return err
	}

	res, err := c.handoffs.Request(ctx.Context(), tenantId, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success request handoff", res))
}

func (c *widgetController) HandoffStatus(ctx *fiber.Ctx) error {
	handoffId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid handoff id")
	}

	tenantId, err := c.resolveTenant(ctx, ctx.Query("api_key"))
	if err != nil {
		return err
	}

	res, err := c.handoffs.StatusForWidget(ctx.Context(), tenantId, handoffId)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get handoff status", res))
}

func (c *widgetController) HandoffMessages(ctx *fiber.Ctx) error {
	handoffId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid handoff id")
	}

	tenantId, err := c.resolveTenant(ctx, ctx.Query("api_key"))
	if err != nil {
		return err
	}

	res, err := c.chats.PollMessages(ctx.Context(), tenantId, handoffId, ctx.Query("since"))
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get handoff messages", res))
}

func (c *widgetController) EndChat(ctx *fiber.Ctx) error {
	var req dto.EndChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	tenantId, err := c.resolveTenant(ctx, req.ApiKey)
	if err != nil {
		return err
	}

	res, err := c.chats.EndChat(ctx.Context(), tenantId, &req)
	if err != nil {
		return mapServiceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success end chat", res))
}
