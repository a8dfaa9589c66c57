package httpx

import (
	"errors"
	"strings"

	"github.com/Anchal0410/peer-connect/internal/apperr"
	"github.com/gofiber/fiber/v2"
)

type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func requestID(c *fiber.Ctx) string {
	if v := c.Locals("requestid"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func Error(c *fiber.Ctx, status int, code string, message string) error {
	if message == "" {
		message = "Request failed"
	}
	return c.Status(status).JSON(ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestID(c),
	})
}

func BadRequest(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusBadRequest, code, message)
}

func Unauthorized(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusUnauthorized, code, message)
}

func Forbidden(c *fiber.Ctx, code string, message string) error {
	return Error(c, fiber.StatusForbidden, code, message)
}

func Internal(c *fiber.Ctx, code string) error {
	return Error(c, fiber.StatusInternalServerError, code, "Internal server error")
}

// StatusOf maps an application error code to its HTTP status.
func StatusOf(code apperr.Code) int {
	switch code {
	case apperr.CodeInvalidArgument, apperr.CodeFailedPrecondition:
		return fiber.StatusBadRequest
	case apperr.CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case apperr.CodePermissionDenied:
		return fiber.StatusForbidden
	case apperr.CodeNotFound:
		return fiber.StatusNotFound
	case apperr.CodeAlreadyExists, apperr.CodeConflict:
		return fiber.StatusConflict
	case apperr.CodeUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// FromError writes err using its application code. Anything that is not an
// AppError becomes a generic 500.
func FromError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Error(c, fe.Code, "http_error", fe.Message)
	}
	code := apperr.CodeOf(err)
	return Error(c, StatusOf(code), strings.ToLower(string(code)), apperr.Message(err))
}

// ErrorHandler is the fiber.Config error handler; it keeps panics and
// unmatched routes in the same envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return FromError(c, err)
}

// Success writes {"success": true, "data": data} merged with extra.
func Success(c *fiber.Ctx, status int, data interface{}, extra fiber.Map) error {
	body := fiber.Map{"success": true}
	if data != nil {
		body["data"] = data
	}
	for k, v := range extra {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func OK(c *fiber.Ctx, data interface{}) error {
	return Success(c, fiber.StatusOK, data, nil)
}

func Created(c *fiber.Ctx, data interface{}) error {
	return Success(c, fiber.StatusCreated, data, nil)
}

// LocalString reads a string stored in c.Locals by middleware.
func LocalString(c *fiber.Ctx, key string) (string, error) {
	v := c.Locals(key)
	if v == nil {
		return "", apperr.Unauthorized("Not authorized to access this route")
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", apperr.Unauthorized("Not authorized to access this route")
	}
	return s, nil
}
