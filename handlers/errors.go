package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatihyuksel3109/mathlearn/logging"
	"github.com/fatihyuksel3109/mathlearn/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" "+fe.Tag())
			}
			return fmt.Errorf("validation failed: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "bad request",
		"cause": err.Error(),
	})
}

// fail maps service errors to HTTP statuses.
func fail(c *fiber.Ctx, msg string, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrProfileNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, services.ErrSessionOwnership):
		status = fiber.StatusForbidden
	case errors.Is(err, services.ErrSessionSubmitted):
		status = fiber.StatusConflict
	case errors.Is(err, services.ErrUnknownGameType), errors.Is(err, services.ErrInvalidPeriod):
		status = fiber.StatusBadRequest
	}
	if status == fiber.StatusInternalServerError {
		logging.Error().Err(err).Str("path", c.Path()).Msg(msg)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}
