package internal

import (
	"path/filepath"
	"testing"

	"github.com/dushixiang/coinbook/internal/models"
	"github.com/dushixiang/coinbook/internal/service"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestShutdownStopsPriceRefresher(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "coinbook.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	log := zap.NewNop()
	trades := service.NewTradeService(db, log, nil, nil, service.TradeOptions{})
	refresher := service.NewPriceRefresher(log, trades, "@every 1h", 0)
	require.NoError(t, refresher.Start())
	require.True(t, refresher.Running())

	app := NewCoinbookApp()
	app.components = &AppComponents{PriceRefresher: refresher}
	app.Shutdown()
	assert.False(t, refresher.Running())

	// 重复关闭无副作用
	app.Shutdown()
	NewCoinbookApp().Shutdown()
}
