package controller

import (
	"medscribe-be/internal/dto"

	"github.com/gofiber/fiber/v2"
)

type IHealthController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
}

type healthController struct {
	degraded func() []string
}

// NewHealthController reports the optional backends that failed to start.
func NewHealthController(degraded func() []string) IHealthController {
	return &healthController{
		degraded: degraded,
	}
}

func (c *healthController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
}

func (c *healthController) Health(ctx *fiber.Ctx) error {
	degraded := c.degraded()
	if degraded == nil {
		degraded = []string{}
	}
	status := "ok"
	if len(degraded) > 0 {
		status = "degraded"
	}
	return ctx.JSON(dto.HealthResponse{Status: status, Degraded: degraded})
}
