package serverutils

import (
	"errors"

	"ai-researcher-be/pkg/llm"
	"ai-researcher-be/pkg/rag/cot"
	"ai-researcher-be/pkg/rag/pipeline"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler translates domain errors into HTTP responses. Fatal pipeline
// errors and invalid reasoning configuration are caller mistakes or hard
// preconditions; provider failures are upstream outages.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(400, validationErr.Error()))
	}

	if errors.Is(err, cot.ErrInvalidConfig) {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(400, err.Error()))
	}

	if pipeline.IsFatal(err) {
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse(422, err.Error()))
	}

	if providerErr, ok := llm.IsProviderError(err); ok {
		return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(502, providerErr.Error()))
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
	}

	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(500, "Internal server error"))
}
