package controller

import (
	"strings"

	"medscribe-be/internal/dto"
	"medscribe-be/internal/pkg/serverutils"
	"medscribe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Chat(ctx *fiber.Ctx) error
	Query(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	r.Post("/rag/chat", auth, c.Chat)
	r.Post("/chat/query", auth, c.Query)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid request body")
	}
	// a blank query fails the required tag
	req.Query = strings.TrimSpace(req.Query)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Chat(ctx.UserContext(), userId, &req)
	if err != nil {
		return serviceError(err)
	}

	return ctx.JSON(res)
}

func (c *chatController) Query(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return serverutils.BadRequest("Invalid request body")
	}
	// a blank query fails the required tag
	req.Query = strings.TrimSpace(req.Query)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.Query(ctx.UserContext(), userId, &req)
	if err != nil {
		return serviceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success query index", res))
}
