package handler

import (
	"net/http"

	"github.com/dushixiang/coinbook/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DashboardHandler 仪表盘与行情接口
type DashboardHandler struct {
	logger           *zap.Logger
	dashboardService *service.DashboardService
	priceService     *service.PriceService
}

func NewDashboardHandler(logger *zap.Logger, dashboardService *service.DashboardService, priceService *service.PriceService) *DashboardHandler {
	return &DashboardHandler{
		logger:           logger,
		dashboardService: dashboardService,
		priceService:     priceService,
	}
}

// Summary GET /api/dashboard
func (h *DashboardHandler) Summary(c echo.Context) error {
	d, err := h.dashboardService.Summary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// SearchTokens 代币搜索
// GET /api/tokens/search?q=
func (h *DashboardHandler) SearchTokens(c echo.Context) error {
	results, err := h.priceService.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, results)
}

// InvalidatePrice 清除代币行情缓存
// POST /api/prices/invalidate/:id
func (h *DashboardHandler) InvalidatePrice(c echo.Context) error {
	if err := h.priceService.Invalidate(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RegisterRoutes 注册路由
func (h *DashboardHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard", h.Summary)
	g.GET("/tokens/search", h.SearchTokens)
	g.POST("/prices/invalidate/:id", h.InvalidatePrice)
}
