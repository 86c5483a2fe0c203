package handler

import (
	"net/http"

	"github.com/dushixiang/coinbook/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CashflowHandler 收支接口
type CashflowHandler struct {
	logger          *zap.Logger
	cashflowService *service.CashflowService
}

func NewCashflowHandler(logger *zap.Logger, cashflowService *service.CashflowService) *CashflowHandler {
	return &CashflowHandler{
		logger:          logger,
		cashflowService: cashflowService,
	}
}

func (h *CashflowHandler) CreateExpense(c echo.Context) error {
	var req service.CashflowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.cashflowService.CreateExpense(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CashflowHandler) UpdateExpense(c echo.Context) error {
	var req service.CashflowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.cashflowService.UpdateExpense(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CashflowHandler) DeleteExpense(c echo.Context) error {
	if err := h.cashflowService.DeleteExpense(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CashflowHandler) ListExpenses(c echo.Context) error {
	rng, err := service.ParseRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}
	items, err := h.cashflowService.ListExpenses(c.Request().Context(), rng)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CashflowHandler) CreateIncome(c echo.Context) error {
	var req service.CashflowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.cashflowService.CreateIncome(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CashflowHandler) UpdateIncome(c echo.Context) error {
	var req service.CashflowRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.cashflowService.UpdateIncome(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CashflowHandler) DeleteIncome(c echo.Context) error {
	if err := h.cashflowService.DeleteIncome(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CashflowHandler) ListIncomes(c echo.Context) error {
	rng, err := service.ParseRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}
	items, err := h.cashflowService.ListIncomes(c.Request().Context(), rng)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Summary 收支汇总
// GET /api/cashflow/summary?from=&to=
func (h *CashflowHandler) Summary(c echo.Context) error {
	rng, err := service.ParseRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return err
	}
	summary, err := h.cashflowService.Summary(c.Request().Context(), rng)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// RegisterRoutes 注册路由
func (h *CashflowHandler) RegisterRoutes(g *echo.Group) {
	expenses := g.Group("/expenses")
	expenses.GET("", h.ListExpenses)
	expenses.POST("", h.CreateExpense)
	expenses.PUT("/:id", h.UpdateExpense)
	expenses.DELETE("/:id", h.DeleteExpense)

	incomes := g.Group("/incomes")
	incomes.GET("", h.ListIncomes)
	incomes.POST("", h.CreateIncome)
	incomes.PUT("/:id", h.UpdateIncome)
	incomes.DELETE("/:id", h.DeleteIncome)

	g.GET("/cashflow/summary", h.Summary)
}
