//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dushixiang/coinbook/internal/config"
	"github.com/dushixiang/coinbook/internal/handler"
	"github.com/dushixiang/coinbook/internal/service"
)

var (
	handlerSet = wire.NewSet(
		handler.NewAuthHandler,
		handler.NewSetupHandler,
		handler.NewClaimHandler,
		handler.NewTradeHandler,
		handler.NewCashflowHandler,
		handler.NewDashboardHandler,
	)

	serviceSet = wire.NewSet(
		provideAuthService,
		service.NewClaimService,
		provideTradeService,
		service.NewCashflowService,
		service.NewDashboardService,
		providePriceService,
		providePriceRefresher,
	)

	infraSet = wire.NewSet(
		providePriceSource,
		provideCache,
		provideNotifier,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		serviceSet,
		infraSet,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
