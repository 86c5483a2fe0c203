package internal

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/dushixiang/coinbook/internal/config"
	"github.com/dushixiang/coinbook/internal/handler"
	"github.com/dushixiang/coinbook/internal/middleware"
	"github.com/dushixiang/coinbook/internal/models"
	"github.com/dushixiang/coinbook/internal/service"
	"github.com/dushixiang/coinbook/pkg/nostd"
	"github.com/dushixiang/coinbook/web"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewCoinbookApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	err = framework.Run()
	app.Shutdown()
	return err
}

func NewCoinbookApp() *CoinbookApp {
	return &CoinbookApp{}
}

var _ orz.Application = (*CoinbookApp)(nil)

type AppComponents struct {
	AuthHandler      *handler.AuthHandler
	SetupHandler     *handler.SetupHandler
	ClaimHandler     *handler.ClaimHandler
	TradeHandler     *handler.TradeHandler
	CashflowHandler  *handler.CashflowHandler
	DashboardHandler *handler.DashboardHandler

	AuthService    *service.AuthService
	PriceRefresher *service.PriceRefresher
}

type CoinbookApp struct {
	components *AppComponents
	conf       *config.Config
}

// Shutdown 停止后台任务，等待正在执行的刷新结束
func (r *CoinbookApp) Shutdown() {
	if r.components == nil {
		return
	}
	r.components.PriceRefresher.Stop()
}

// GetComponents 获取应用组件
func (r *CoinbookApp) GetComponents() *AppComponents {
	return r.components
}

func (r *CoinbookApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}
	conf.ApplyDefaults()

	// 唯一约束冲突转换为 gorm.ErrDuplicatedKey，同日领取的并发合并依赖它
	db.TranslateError = true
	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("database auto migrate failed: %v", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := r.components.PriceRefresher.Start(); err != nil {
		logger.Error("price refresher start failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(echomiddleware.Gzip())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		Skipper:      echomiddleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(echomiddleware.RecoverWithConfig(echomiddleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("[PANIC RECOVER]", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		return fmt.Errorf("failed to init custom validator: %v", err)
	}
	e.Validator = &customValidator

	e.Use(echomiddleware.StaticWithConfig(echomiddleware.StaticConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().RequestURI, "/api")
		},
		Root:       "",
		Index:      "index.html",
		HTML5:      true,
		Browse:     false,
		IgnoreBase: false,
		Filesystem: http.FS(web.Assets()),
	}))

	r.registerRoutes(e, logger)

	logger.Info("coinbook started",
		zap.Bool("prices_enabled", conf.Prices.Enabled),
		zap.Bool("redis_enabled", conf.Redis.Enabled),
		zap.Bool("telegram_enabled", conf.Telegram.Enabled))
	return nil
}

func (r *CoinbookApp) registerRoutes(e *echo.Echo, logger *zap.Logger) {
	c := r.components

	api := e.Group("/api")
	c.SetupHandler.RegisterRoutes(api)
	c.AuthHandler.RegisterRoutes(api)

	protected := api.Group("", middleware.JWTAuth(middleware.JWTAuthConfig{
		AuthService: c.AuthService,
		Logger:      logger,
	}))
	c.AuthHandler.RegisterProtectedRoutes(protected)
	c.ClaimHandler.RegisterRoutes(protected)
	c.TradeHandler.RegisterRoutes(protected)
	c.CashflowHandler.RegisterRoutes(protected)
	c.DashboardHandler.RegisterRoutes(protected)
}
