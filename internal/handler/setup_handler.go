package handler

import (
	"net/http"

	"github.com/dushixiang/coinbook/internal/service"
	"github.com/go-orz/orz"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SetupHandler 首次设置处理器
type SetupHandler struct {
	logger      *zap.Logger
	authService *service.AuthService
}

// NewSetupHandler 创建设置处理器
func NewSetupHandler(logger *zap.Logger, authService *service.AuthService) *SetupHandler {
	return &SetupHandler{
		logger:      logger,
		authService: authService,
	}
}

// CheckSetupStatus 检查是否需要初始化设置
// GET /api/setup/status
func (h *SetupHandler) CheckSetupStatus(c echo.Context) error {
	needsSetup, err := h.authService.NeedsSetup(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orz.Map{
		"needs_setup": needsSetup,
	})
}

// InitialSetup 创建唯一的账户
// POST /api/setup/init
func (h *SetupHandler) InitialSetup(c echo.Context) error {
	var req service.SetupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.authService.Setup(c.Request().Context(), req)
	if err != nil {
		return err
	}

	h.logger.Info("initial user created",
		zap.String("username", user.Username),
		zap.String("ip", c.RealIP()))

	return c.JSON(http.StatusOK, orz.Map{
		"message": "初始化设置成功",
		"user":    user,
	})
}

// RegisterRoutes 注册路由
func (h *SetupHandler) RegisterRoutes(g *echo.Group) {
	setup := g.Group("/setup")
	setup.GET("/status", h.CheckSetupStatus)
	setup.POST("/init", h.InitialSetup)
}
