package repo

import (
	"context"
	"time"

	"github.com/dushixiang/coinbook/internal/models"
	"github.com/dushixiang/coinbook/pkg/ledger"
	"github.com/go-orz/orz"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func NewTradeRepo(db *gorm.DB) *TradeRepo {
	return &TradeRepo{
		Repository: orz.NewRepository[models.Trade, string](db),
	}
}

type TradeRepo struct {
	orz.Repository[models.Trade, string]
}

// FindAllOrderByPurchaseDate 按买入时间倒序获取所有持仓
func (r TradeRepo) FindAllOrderByPurchaseDate(ctx context.Context) ([]models.Trade, error) {
	var trades []models.Trade
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("purchase_date DESC").
		Order("created_at DESC").
		Find(&trades).Error
	return trades, err
}

// FindOpen 获取所有持仓中的记录
func (r TradeRepo) FindOpen(ctx context.Context) ([]models.Trade, error) {
	var trades []models.Trade
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("status = ?", ledger.TradeOpen).
		Find(&trades).Error
	return trades, err
}

// UpdateMarketPrice 更新现价与未实现盈亏，已平仓的记录不受影响
func (r TradeRepo) UpdateMarketPrice(ctx context.Context, id string, price, unrealized decimal.Decimal, at time.Time) error {
	db := r.GetDB(ctx)
	return db.Table(r.GetTableName()).
		Where("id = ? AND status = ?", id, ledger.TradeOpen).
		Updates(map[string]interface{}{
			"current_price":    price,
			"unrealized_pnl":   unrealized,
			"price_updated_at": at,
		}).Error
}
