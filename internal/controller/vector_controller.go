package controller

import (
	"medscribe-be/internal/pkg/serverutils"
	"medscribe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IVectorController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Cleanup(ctx *fiber.Ctx) error
}

type vectorController struct {
	indexService service.IIndexService
}

func NewVectorController(indexService service.IIndexService) IVectorController {
	return &vectorController{
		indexService: indexService,
	}
}

func (c *vectorController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/vector", auth)
	h.Post("cleanup/:case_id", c.Cleanup)
}

func (c *vectorController) Cleanup(ctx *fiber.Ctx) error {
	res, err := c.indexService.Cleanup(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("case_id"))
	if err != nil {
		return serviceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}
