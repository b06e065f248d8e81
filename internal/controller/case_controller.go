package controller

import (
	"medscribe-be/internal/dto"
	"medscribe-be/internal/pkg/serverutils"
	"medscribe-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICaseController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	List(ctx *fiber.Ctx) error
	Meta(ctx *fiber.Ctx) error
	Raw(ctx *fiber.Ctx) error
	Data(ctx *fiber.Ctx) error
	Cleaned(ctx *fiber.Ctx) error
	Insights(ctx *fiber.Ctx) error
	Summary(ctx *fiber.Ctx) error
}

type caseController struct {
	caseService          service.ICaseService
	reportSummaryService service.IReportSummaryService
}

func NewCaseController(caseService service.ICaseService, reportSummaryService service.IReportSummaryService) ICaseController {
	return &caseController{
		caseService:          caseService,
		reportSummaryService: reportSummaryService,
	}
}

func (c *caseController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/cases", auth)
	h.Get("", c.List)
	h.Get(":id/meta", c.Meta)
	h.Get(":id/raw", c.Raw)
	h.Get(":id/data", c.Data)
	h.Get(":id/cleaned", c.Cleaned)
	h.Get(":id/insights", c.Insights)
	h.Post(":id/summary", c.Summary)
}

func (c *caseController) List(ctx *fiber.Ctx) error {
	userId := serverutils.UserId(ctx)

	res, err := c.caseService.List(ctx.UserContext(), userId)
	if err != nil {
		return serviceError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list cases", res))
}

func (c *caseController) Meta(ctx *fiber.Ctx) error {
	res, err := c.caseService.Meta(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("id"))
	if err != nil {
		return serviceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show case", res))
}

func (c *caseController) Raw(ctx *fiber.Ctx) error {
	res, err := c.caseService.Raw(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("id"))
	if err != nil {
		return serviceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show raw text", res))
}

func (c *caseController) Data(ctx *fiber.Ctx) error {
	res, err := c.caseService.Panels(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("id"))
	if err != nil {
		return serviceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show panels", res))
}

func (c *caseController) Cleaned(ctx *fiber.Ctx) error {
	res, err := c.caseService.Cleaned(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("id"))
	if err != nil {
		return serviceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show cleaned text", res))
}

func (c *caseController) Insights(ctx *fiber.Ctx) error {
	res, err := c.caseService.Insights(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("id"))
	if err != nil {
		return serviceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show insights", res))
}

func (c *caseController) Summary(ctx *fiber.Ctx) error {
	var req dto.ReportSummaryRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return serverutils.BadRequest("Invalid request body")
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.reportSummaryService.Summarize(ctx.UserContext(), serverutils.UserId(ctx), ctx.Params("id"), &req)
	if err != nil {
		return serviceError(err)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success summarize report", res))
}
