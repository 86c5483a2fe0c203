package handler

import (
	"net/http"

	"github.com/dushixiang/coinbook/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ClaimHandler 领取记录接口
type ClaimHandler struct {
	logger       *zap.Logger
	claimService *service.ClaimService
}

func NewClaimHandler(logger *zap.Logger, claimService *service.ClaimService) *ClaimHandler {
	return &ClaimHandler{
		logger:       logger,
		claimService: claimService,
	}
}

// Submit 新建或合并当日领取
// POST /api/claims
func (h *ClaimHandler) Submit(c echo.Context) error {
	var req service.ClaimRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	view, err := h.claimService.Submit(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Update 覆盖领取记录
// PUT /api/claims/:id
func (h *ClaimHandler) Update(c echo.Context) error {
	var req service.ClaimRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	view, err := h.claimService.Update(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Delete 删除领取记录
// DELETE /api/claims/:id
func (h *ClaimHandler) Delete(c echo.Context) error {
	if err := h.claimService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Get GET /api/claims/:id
func (h *ClaimHandler) Get(c echo.Context) error {
	view, err := h.claimService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// List 按日期倒序，支持 from/to 过滤
// GET /api/claims?from=2024-01-01&to=2024-01-31
func (h *ClaimHandler) List(c echo.Context) error {
	views, err := h.claimService.List(c.Request().Context(), c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// Totals GET /api/claims/totals
func (h *ClaimHandler) Totals(c echo.Context) error {
	totals, err := h.claimService.Totals(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, totals)
}

// RegisterRoutes 注册路由
func (h *ClaimHandler) RegisterRoutes(g *echo.Group) {
	claims := g.Group("/claims")
	claims.GET("", h.List)
	claims.POST("", h.Submit)
	claims.GET("/totals", h.Totals)
	claims.GET("/:id", h.Get)
	claims.PUT("/:id", h.Update)
	claims.DELETE("/:id", h.Delete)
}
