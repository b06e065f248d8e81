package controller

import (
	"medscribe-be/internal/pkg/serverutils"
	"medscribe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IUserController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	RebuildIndex(ctx *fiber.Ctx) error
	IndexStatus(ctx *fiber.Ctx) error
}

type userController struct {
	indexService service.IIndexService
}

func NewUserController(indexService service.IIndexService) IUserController {
	return &userController{
		indexService: indexService,
	}
}

func (c *userController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/users", auth)
	h.Post(":user_id/index/rebuild", c.RebuildIndex)
	h.Get(":user_id/index/status", c.IndexStatus)
}

// RebuildIndex only schedules the work; the response does not wait for it.
func (c *userController) RebuildIndex(ctx *fiber.Ctx) error {
	res, err := c.indexService.RequestRebuild(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("user_id"))
	if err != nil {
		return serviceError(err)
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse(res.Message, res))
}

func (c *userController) IndexStatus(ctx *fiber.Ctx) error {
	res, err := c.indexService.Status(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("user_id"))
	if err != nil {
		return serviceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show index status", res))
}
