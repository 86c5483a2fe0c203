package models

import (
	"time"

	"github.com/dushixiang/coinbook/pkg/ledger"
	"github.com/shopspring/decimal"
)

// Trade 代币持仓
type Trade struct {
	ID              string             `gorm:"primaryKey;type:varchar(26)" json:"id"`
	TokenID         string             `gorm:"type:varchar(128);not null;index" json:"token_id"` // 行情服务中的代币ID
	TokenSymbol     string             `gorm:"type:varchar(32);not null" json:"token_symbol"`
	TokenName       string             `gorm:"type:varchar(128);not null" json:"token_name"`
	TokenImage      string             `gorm:"type:varchar(512)" json:"token_image"`
	PurchasePrice   decimal.Decimal    `gorm:"size:100;not null" json:"purchase_price"`
	InitialQuantity decimal.Decimal    `gorm:"size:100;not null" json:"initial_quantity"` // 开仓数量
	Quantity        decimal.Decimal    `gorm:"size:100;not null" json:"quantity"`         // 剩余数量
	PurchaseDate    time.Time          `gorm:"not null" json:"purchase_date"`
	Status          ledger.TradeStatus `gorm:"type:varchar(10);not null;index" json:"status"`
	CurrentPrice    *decimal.Decimal   `gorm:"size:100" json:"current_price"`
	UnrealizedPnl   *decimal.Decimal   `gorm:"size:100" json:"unrealized_pnl"` // 仅持仓中有效
	RealizedPnl     decimal.Decimal    `gorm:"size:100;not null" json:"realized_pnl"`
	ClosePrice      *decimal.Decimal   `gorm:"size:100" json:"close_price"`
	CloseDate       *time.Time         `json:"close_date"`
	PriceUpdatedAt  *time.Time         `json:"price_updated_at"`
	CreatedAt       time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (*Trade) TableName() string {
	return "trades"
}

// IsOpen 是否持仓中
func (t *Trade) IsOpen() bool {
	return t.Status == ledger.TradeOpen
}

// Position 转换为平仓计算使用的状态
func (t *Trade) Position() ledger.Position {
	return ledger.Position{
		ID:            t.ID,
		TokenSymbol:   t.TokenSymbol,
		PurchasePrice: t.PurchasePrice,
		Quantity:      t.Quantity,
		Status:        t.Status,
		RealizedPnl:   t.RealizedPnl,
		ClosePrice:    t.ClosePrice,
		CloseDate:     t.CloseDate,
	}
}

// ApplyPosition 回写平仓计算结果
func (t *Trade) ApplyPosition(p ledger.Position) {
	t.Quantity = p.Quantity
	t.Status = p.Status
	t.RealizedPnl = p.RealizedPnl
	t.ClosePrice = p.ClosePrice
	t.CloseDate = p.CloseDate
	if !t.IsOpen() {
		t.UnrealizedPnl = nil
	}
}

// ApplyCurrentPrice 根据现价刷新未实现盈亏
func (t *Trade) ApplyCurrentPrice(price decimal.Decimal, at time.Time) {
	if !t.IsOpen() {
		return
	}
	pnl := ledger.UnrealizedPnl(price, t.PurchasePrice, t.Quantity)
	t.CurrentPrice = &price
	t.UnrealizedPnl = &pnl
	t.PriceUpdatedAt = &at
}
