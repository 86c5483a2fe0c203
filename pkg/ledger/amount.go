package ledger

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TokenAmounts 代币符号到数量的映射
type TokenAmounts map[string]decimal.Decimal

// TokenDetail 单个代币的领取明细
type TokenDetail struct {
	Symbol string          `json:"symbol" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// NormalizeSymbol 统一代币符号写法
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ReduceTokenDetails 将明细列表按符号聚合，同一符号的数量相加
func ReduceTokenDetails(details []TokenDetail) TokenAmounts {
	out := make(TokenAmounts, len(details))
	for _, d := range details {
		symbol := NormalizeSymbol(d.Symbol)
		out[symbol] = out[symbol].Add(d.Amount)
	}
	return out
}

// Sum 所有代币数量之和
func (m TokenAmounts) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range m {
		total = total.Add(v)
	}
	return total
}

// Symbols 按字母序返回所有符号
func (m TokenAmounts) Symbols() []string {
	symbols := make([]string, 0, len(m))
	for s := range m {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Clone 深拷贝
func (m TokenAmounts) Clone() TokenAmounts {
	out := make(TokenAmounts, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal 两个映射的符号集合相同且对应数量数值相等
func (m TokenAmounts) Equal(other TokenAmounts) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		o, ok := other[k]
		if !ok || !o.Equal(v) {
			return false
		}
	}
	return true
}
