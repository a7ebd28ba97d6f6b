package handler

import (
	"errors"

	"go-catalog-admin/internal/importer"
	"go-catalog-admin/internal/repository"
	"go-catalog-admin/internal/service"
	"go-catalog-admin/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps service and workflow errors to HTTP status codes.
func statusFor(err error) int {
	var ve *workflow.ValidationError
	var ue *service.UploadError
	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest
	case errors.Is(err, workflow.ErrBusy):
		return fiber.StatusConflict
	case errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &ue):
		return fiber.StatusBadGateway
	case errors.Is(err, service.ErrNotImage), errors.Is(err, service.ErrEmptyFile):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, importer.ErrNoSheets), errors.Is(err, importer.ErrEmptySheet), errors.Is(err, importer.ErrNoName),
		errors.Is(err, importer.ErrBadFile):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	body := fiber.Map{"error": err.Error()}
	var ve *workflow.ValidationError
	if errors.As(err, &ve) {
		body["error"] = "Validation failed"
		body["fields"] = ve.Fields
	}
	return c.Status(statusFor(err)).JSON(body)
}

// respondOutcome answers a drawer submission. Failed submissions still carry
// the outcome so the client can show the notification and drawer state.
func respondOutcome(c *fiber.Ctx, successStatus int, message string, out *workflow.Outcome, err error) error {
	if err == nil {
		return c.Status(successStatus).JSON(fiber.Map{"message": message, "data": out})
	}
	body := fiber.Map{"error": err.Error()}
	var ve *workflow.ValidationError
	if errors.As(err, &ve) {
		body["error"] = "Validation failed"
		body["fields"] = ve.Fields
	}
	if out != nil {
		body["outcome"] = out
	}
	return c.Status(statusFor(err)).JSON(body)
}
