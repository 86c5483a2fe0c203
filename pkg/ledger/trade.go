package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// DefaultCloseTaxRate 平仓盈亏记账时的税款估算比例
	DefaultCloseTaxRate = decimal.RequireFromString("0.35")
	// DefaultSummaryTaxRate 交易汇总时的税款估算比例
	DefaultSummaryTaxRate = decimal.RequireFromString("0.30")
)

// TradeStatus 持仓状态，closed 为终态
type TradeStatus string

const (
	TradeOpen   TradeStatus = "open"
	TradeClosed TradeStatus = "closed"
)

// HistoryType 平仓记录类型
type HistoryType string

const (
	HistoryClose        HistoryType = "close"
	HistoryPartialClose HistoryType = "partial_close"
)

// Position 参与平仓计算的持仓状态
type Position struct {
	ID            string
	TokenSymbol   string
	PurchasePrice decimal.Decimal
	Quantity      decimal.Decimal
	Status        TradeStatus
	RealizedPnl   decimal.Decimal
	ClosePrice    *decimal.Decimal
	CloseDate     *time.Time
}

// HistoryEntry 一次平仓动作
type HistoryEntry struct {
	TradeID string
	Date    time.Time
	Amount  decimal.Decimal
	Price   decimal.Decimal
	Type    HistoryType
	Pnl     decimal.Decimal
}

// PnlEntry 完全平仓时记入盈亏账本的条目
type PnlEntry struct {
	TradeID     string
	Date        time.Time
	TokenSymbol string
	Amount      decimal.Decimal
	TaxEstimate decimal.Decimal
}

// CloseResult 平仓结果，Pnl 仅在完全平仓时非空
type CloseResult struct {
	Position Position
	History  HistoryEntry
	Pnl      *PnlEntry
}

// FullClose 是否为完全平仓
func (r CloseResult) FullClose() bool {
	return r.History.Type == HistoryClose
}

// Reconciler 平仓对账器
type Reconciler struct {
	taxRate decimal.Decimal
}

// NewReconciler 创建平仓对账器，taxRate 用于完全平仓时的税款估算
func NewReconciler(taxRate decimal.Decimal) *Reconciler {
	return &Reconciler{taxRate: taxRate}
}

// Close 对持仓执行全部或部分平仓，不修改入参
func (r *Reconciler) Close(p Position, amount, price decimal.Decimal, date time.Time) (CloseResult, error) {
	if p.Status != TradeOpen {
		return CloseResult{}, fmt.Errorf("%w: trade %s is %s", ErrInvalidState, p.ID, p.Status)
	}
	if !amount.IsPositive() || amount.GreaterThan(p.Quantity) {
		return CloseResult{}, fmt.Errorf("%w: close amount %s must be in (0, %s]", ErrInvalidAmount, amount, p.Quantity)
	}
	if price.IsNegative() {
		return CloseResult{}, fmt.Errorf("%w: close price %s is negative", ErrInvalidAmount, price)
	}

	pnl := price.Sub(p.PurchasePrice).Mul(amount)
	full := amount.Equal(p.Quantity)

	history := HistoryEntry{
		TradeID: p.ID,
		Date:    date,
		Amount:  amount,
		Price:   price,
		Type:    HistoryPartialClose,
		Pnl:     pnl,
	}

	next := p
	next.RealizedPnl = p.RealizedPnl.Add(pnl)
	if !full {
		next.Quantity = p.Quantity.Sub(amount)
		return CloseResult{Position: next, History: history}, nil
	}

	history.Type = HistoryClose
	closePrice := price
	closeDate := date
	next.Quantity = decimal.Zero
	next.Status = TradeClosed
	next.ClosePrice = &closePrice
	next.CloseDate = &closeDate

	return CloseResult{
		Position: next,
		History:  history,
		Pnl: &PnlEntry{
			TradeID:     p.ID,
			Date:        date,
			TokenSymbol: p.TokenSymbol,
			Amount:      pnl,
			TaxEstimate: TaxEstimate(pnl, r.taxRate),
		},
	}, nil
}

// Undo 撤销一次平仓：恢复数量、重新打开持仓并扣回已实现盈亏。
// 这是补偿操作，撤销多次部分平仓中间的一条不会重算之后的状态。
func Undo(p Position, h HistoryEntry) (Position, error) {
	if h.TradeID != p.ID {
		return Position{}, fmt.Errorf("%w: history belongs to trade %s, not %s", ErrInvalidState, h.TradeID, p.ID)
	}
	next := p
	next.Quantity = p.Quantity.Add(h.Amount)
	next.Status = TradeOpen
	next.RealizedPnl = p.RealizedPnl.Sub(h.Pnl)
	next.ClosePrice = nil
	next.CloseDate = nil
	return next, nil
}

// UnrealizedPnl 未实现盈亏 = (现价 - 买入价) * 数量
func UnrealizedPnl(currentPrice, purchasePrice, quantity decimal.Decimal) decimal.Decimal {
	return currentPrice.Sub(purchasePrice).Mul(quantity)
}

// SummaryTaxEstimate 汇总税款估算，不小于 0
func SummaryTaxEstimate(totalRealized, rate decimal.Decimal) decimal.Decimal {
	estimate := totalRealized.Mul(rate)
	if estimate.IsNegative() {
		return decimal.Zero
	}
	return estimate
}
