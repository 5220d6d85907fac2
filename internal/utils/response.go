package utils

import (
	apperrors "kobo/internal/errors"

	"github.com/gofiber/fiber/v2"
)

// Respond sends a JSON response with the specified status code.
func Respond(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(data)
}

// Success sends a successful JSON response.
func Success(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusOK, data)
}

// Created sends a JSON response with status 201.
func Created(c *fiber.Ctx, data interface{}) error {
	return Respond(c, fiber.StatusCreated, data)
}

// Raw writes pre-encoded JSON unchanged.
func Raw(c *fiber.Ctx, status int, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(status).Send(body)
}

// Error writes a catalogue error.
func Error(c *fiber.Ctx, err *apperrors.DomainError) error {
	return Respond(c, err.Status, err)
}

// ValidationFailed sends the per-field errors with status 400.
func ValidationFailed(c *fiber.Ctx, fields map[string]string) error {
	return Respond(c, fiber.StatusBadRequest, fiber.Map{
		"code":   apperrors.ErrValidation.Code,
		"error":  apperrors.ErrValidation.Message,
		"fields": fields,
	})
}

// BadRequest sends a JSON error response with status 400.
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, apperrors.ErrBadRequest.WithMessage(message))
}

// Unauthorized sends a JSON error response with status 401.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, apperrors.ErrUnauthorized.WithMessage(message))
}

// Forbidden sends a JSON error response with status 403.
func Forbidden(c *fiber.Ctx, message string) error {
	return Error(c, apperrors.ErrForbidden.WithMessage(message))
}

// InternalError sends a JSON error response with status 500.
func InternalError(c *fiber.Ctx) error {
	return Error(c, apperrors.ErrInternal)
}
