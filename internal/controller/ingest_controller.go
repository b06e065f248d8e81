package controller

import (
	"io"
	"mime"
	"path/filepath"

	"medscribe-be/internal/pkg/serverutils"
	"medscribe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Process(ctx *fiber.Ctx) error
}

type ingestController struct {
	ingestService service.IIngestService
}

func NewIngestController(ingestService service.IIngestService) IIngestController {
	return &ingestController{
		ingestService: ingestService,
	}
}

func (c *ingestController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/ingest", auth)
	h.Post("process", c.Process)
}

func (c *ingestController) Process(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	fh, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.BadRequest("file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return serverutils.BadRequest("file is unreadable")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return serverutils.BadRequest("file is unreadable")
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if guessed := mime.TypeByExtension(filepath.Ext(fh.Filename)); guessed != "" {
			contentType = guessed
		}
	}

	res, err := c.ingestService.Process(ctx.UserContext(), userId, fh.Filename, contentType, data)
	if err != nil {
		return serviceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process report", res))
}
