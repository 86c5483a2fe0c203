package models

import (
	"time"

	"github.com/dushixiang/coinbook/pkg/ledger"
	"github.com/shopspring/decimal"
)

// TradeHistory 平仓记录，只追加
type TradeHistory struct {
	ID        string             `gorm:"primaryKey;type:varchar(26)" json:"id"`
	TradeID   string             `gorm:"type:varchar(26);not null;index" json:"trade_id"`
	Date      time.Time          `gorm:"not null" json:"date"`
	Amount    decimal.Decimal    `gorm:"size:100;not null" json:"amount"` // 平仓数量
	Price     decimal.Decimal    `gorm:"size:100;not null" json:"price"`  // 平仓价格
	Type      ledger.HistoryType `gorm:"type:varchar(16);not null" json:"type"`      // close/partial_close
	Pnl       decimal.Decimal    `gorm:"size:100;not null" json:"pnl"`
	CreatedAt time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (TradeHistory) TableName() string {
	return "trade_histories"
}

// Entry 转换为平仓计算使用的记录
func (h *TradeHistory) Entry() ledger.HistoryEntry {
	return ledger.HistoryEntry{
		TradeID: h.TradeID,
		Date:    h.Date,
		Amount:  h.Amount,
		Price:   h.Price,
		Type:    h.Type,
		Pnl:     h.Pnl,
	}
}
