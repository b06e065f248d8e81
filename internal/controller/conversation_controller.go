package controller

import (
	"medscribe-be/internal/pkg/serverutils"
	"medscribe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IConversationController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	History(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
}

type conversationController struct {
	conversationService service.IConversationService
}

func NewConversationController(conversationService service.IConversationService) IConversationController {
	return &conversationController{
		conversationService: conversationService,
	}
}

func (c *conversationController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/conversations", auth)
	h.Get("", c.History)
	h.Delete("", c.Clear)
}

func (c *conversationController) History(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	res, err := c.conversationService.History(ctx.UserContext(), userId, ctx.Query("case_id"), ctx.QueryInt("limit", 0))
	if err != nil {
		return serviceError(err)
	}

	return ctx.JSON(res)
}

func (c *conversationController) Clear(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	res, err := c.conversationService.Clear(ctx.UserContext(), userId, ctx.Query("case_id"))
	if err != nil {
		return serviceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Conversation history cleared", res))
}
