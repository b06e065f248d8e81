package serverutils

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	UserIdHeader   = "X-User-Id"
	UserIdLocalKey = "user_id"
)

// UserHeaderMiddleware requires the X-User-Id header. Requests without it
// are rejected with 400 before reaching any handler. The value is copied out
// of the request buffer since repositories keep it after the request ends.
func UserHeaderMiddleware(ctx *fiber.Ctx) error {
	userId := utils.CopyString(strings.TrimSpace(ctx.Get(UserIdHeader)))
	if userId == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, "X-User-Id header is required"))
	}
	ctx.Locals(UserIdLocalKey, userId)
	return ctx.Next()
}

// AuthMiddleware picks the identity middleware for the configured mode.
func AuthMiddleware(mode, jwtSecret string) fiber.Handler {
	if mode == "jwt" {
		return NewJwtMiddleware(jwtSecret)
	}
	return UserHeaderMiddleware
}

// UserId reads the identity stored by the auth middleware.
func UserId(ctx *fiber.Ctx) string {
	userId, _ := ctx.Locals(UserIdLocalKey).(string)
	return userId
}
