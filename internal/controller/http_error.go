package controller

import (
	"errors"

	"chat-handoff-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

// mapServiceError translates service sentinels into HTTP statuses. Anything
// unmapped falls through to the error middleware as a 500.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, service.ErrUnknownAgentKey),
		errors.Is(err, service.ErrInvalidCredentials):
		return fiber.NewError(fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidCursor):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrAssignConflict),
		errors.Is(err, service.ErrNoCapacity):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return err
}
