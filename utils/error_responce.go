package utils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is a struct for error response
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// RespondError maps an error from the core services to an HTTP response.
// NotFoundError becomes 404 and BadRequestError 400, each carrying its own
// human-readable reason; anything else is a 500 with the fallback message.
func RespondError(c *fiber.Ctx, err error, fallback string) error {
	status := fiber.StatusInternalServerError
	message := fallback

	var notFound *NotFoundError
	var badRequest *BadRequestError
	switch {
	case errors.As(err, &notFound):
		status = fiber.StatusNotFound
		message = notFound.Message
	case errors.As(err, &badRequest):
		status = fiber.StatusBadRequest
		message = badRequest.Message
	}

	return c.Status(status).JSON(ErrorResponse{
		Message: message,
		Error:   err.Error(),
	})
}
