package handler

import (
	"net/http"

	"github.com/dushixiang/coinbook/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TradeHandler 持仓接口
type TradeHandler struct {
	logger       *zap.Logger
	tradeService *service.TradeService
}

func NewTradeHandler(logger *zap.Logger, tradeService *service.TradeService) *TradeHandler {
	return &TradeHandler{
		logger:       logger,
		tradeService: tradeService,
	}
}

// Create 开仓
// POST /api/trades
func (h *TradeHandler) Create(c echo.Context) error {
	var req service.CreateTradeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	trade, err := h.tradeService.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trade)
}

// Close 全部或部分平仓
// POST /api/trades/:id/close
func (h *TradeHandler) Close(c echo.Context) error {
	var req service.CloseTradeRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.tradeService.Close(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// DeleteHistory 撤销一次平仓
// DELETE /api/trades/history/:id
func (h *TradeHandler) DeleteHistory(c echo.Context) error {
	trade, err := h.tradeService.DeleteHistoryEntry(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, trade)
}

// Get GET /api/trades/:id
func (h *TradeHandler) Get(c echo.Context) error {
	detail, err := h.tradeService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// Delete DELETE /api/trades/:id
func (h *TradeHandler) Delete(c echo.Context) error {
	if err := h.tradeService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// List 持仓列表及汇总
// GET /api/trades
func (h *TradeHandler) List(c echo.Context) error {
	list, err := h.tradeService.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// ListPnl GET /api/trades/pnl
func (h *TradeHandler) ListPnl(c echo.Context) error {
	entries, err := h.tradeService.ListPnl(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entries)
}

// RegisterRoutes 注册路由
func (h *TradeHandler) RegisterRoutes(g *echo.Group) {
	trades := g.Group("/trades")
	trades.GET("", h.List)
	trades.POST("", h.Create)
	trades.GET("/pnl", h.ListPnl)
	trades.DELETE("/history/:id", h.DeleteHistory)
	trades.GET("/:id", h.Get)
	trades.DELETE("/:id", h.Delete)
	trades.POST("/:id/close", h.Close)
}
