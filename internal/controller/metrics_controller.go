package controller

import (
	"ai-facilityops-be/internal/pkg/serverutils"
	"ai-facilityops-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMetricsController interface {
	RegisterRoutes(r fiber.Router)
	Analytics(ctx *fiber.Ctx) error
}

type metricsController struct {
	metricsService service.IMetricsService
}

func NewMetricsController(metricsService service.IMetricsService) IMetricsController {
	return &metricsController{metricsService: metricsService}
}

func (c *metricsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/metrics/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("analytics", c.Analytics)
}

func (c *metricsController) Analytics(ctx *fiber.Ctx) error {
	// Aggregates are admin-facing; regular users only see their own turns.
	if role, _ := ctx.Locals("role").(string); role != "admin" {
		return fiber.NewError(fiber.StatusForbidden, "admin role required")
	}

	windowDays := ctx.QueryInt("window_days", 7)

	res, err := c.metricsService.GetAggregates(ctx.Context(), windowDays)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get analytics", res))
}
