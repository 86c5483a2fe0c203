package repo

import (
	"context"

	"github.com/dushixiang/coinbook/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewTradeHistoryRepo(db *gorm.DB) *TradeHistoryRepo {
	return &TradeHistoryRepo{
		Repository: orz.NewRepository[models.TradeHistory, string](db),
	}
}

type TradeHistoryRepo struct {
	orz.Repository[models.TradeHistory, string]
}

// FindByTradeID 获取持仓的所有平仓记录（按时间正序）
func (r TradeHistoryRepo) FindByTradeID(ctx context.Context, tradeID string) ([]models.TradeHistory, error) {
	var histories []models.TradeHistory
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("trade_id = ?", tradeID).
		Order("date ASC").
		Order("created_at ASC").
		Find(&histories).Error
	return histories, err
}

// DeleteByTradeID 删除持仓的所有平仓记录
func (r TradeHistoryRepo) DeleteByTradeID(ctx context.Context, tradeID string) error {
	db := r.GetDB(ctx)
	return db.Where("trade_id = ?", tradeID).Delete(&models.TradeHistory{}).Error
}
