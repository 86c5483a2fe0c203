package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PnlEntry 盈亏账本，仅在持仓完全平仓时写入
type PnlEntry struct {
	ID          string          `gorm:"primaryKey;type:varchar(26)" json:"id"`
	TradeID     string          `gorm:"type:varchar(26);not null;index" json:"trade_id"`
	HistoryID   string          `gorm:"type:varchar(26);not null;index" json:"history_id"` // 对应的平仓记录
	Date        time.Time       `gorm:"not null;index" json:"date"`
	TokenSymbol string          `gorm:"type:varchar(32);not null" json:"token_symbol"`
	Amount      decimal.Decimal `gorm:"size:100;not null" json:"amount"`       // 已实现盈亏
	TaxEstimate decimal.Decimal `gorm:"size:100;not null" json:"tax_estimate"` // 估算税款
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (PnlEntry) TableName() string {
	return "pnl_ledger"
}
