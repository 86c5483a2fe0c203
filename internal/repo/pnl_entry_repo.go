package repo

import (
	"context"

	"github.com/dushixiang/coinbook/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewPnlEntryRepo(db *gorm.DB) *PnlEntryRepo {
	return &PnlEntryRepo{
		Repository: orz.NewRepository[models.PnlEntry, string](db),
	}
}

type PnlEntryRepo struct {
	orz.Repository[models.PnlEntry, string]
}

// FindAllOrderByDateDesc 按日期倒序获取盈亏账本
func (r PnlEntryRepo) FindAllOrderByDateDesc(ctx context.Context) ([]models.PnlEntry, error) {
	var entries []models.PnlEntry
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("date DESC").
		Find(&entries).Error
	return entries, err
}

// FindByTradeID 获取持仓对应的账本条目
func (r PnlEntryRepo) FindByTradeID(ctx context.Context, tradeID string) ([]models.PnlEntry, error) {
	var entries []models.PnlEntry
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("trade_id = ?", tradeID).
		Find(&entries).Error
	return entries, err
}

// DeleteByHistory 删除某次完全平仓产生的账本条目
func (r PnlEntryRepo) DeleteByHistory(ctx context.Context, tradeID, historyID string) (int64, error) {
	db := r.GetDB(ctx)
	result := db.Where("trade_id = ? AND history_id = ?", tradeID, historyID).Delete(&models.PnlEntry{})
	return result.RowsAffected, result.Error
}

// DeleteByTradeID 删除持仓的所有账本条目
func (r PnlEntryRepo) DeleteByTradeID(ctx context.Context, tradeID string) error {
	db := r.GetDB(ctx)
	return db.Where("trade_id = ?", tradeID).Delete(&models.PnlEntry{}).Error
}
