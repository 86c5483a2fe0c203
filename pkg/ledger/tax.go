package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	// PresetPercentages 预设的预留税率
	PresetPercentages = []decimal.Decimal{
		decimal.NewFromInt(15),
		decimal.NewFromInt(20),
		decimal.NewFromInt(25),
		decimal.NewFromInt(30),
	}
)

// TaxModeKind 预留税款的计算方式
type TaxModeKind int

const (
	TaxNone TaxModeKind = iota
	TaxPercentage
	TaxFixedAmount
)

func (k TaxModeKind) String() string {
	switch k {
	case TaxPercentage:
		return "percentage"
	case TaxFixedAmount:
		return "fixed_amount"
	default:
		return "none"
	}
}

// TaxMode 预留税款方式及其参数
type TaxMode struct {
	Kind  TaxModeKind
	Value decimal.Decimal
}

func NoTax() TaxMode {
	return TaxMode{Kind: TaxNone}
}

func Percentage(p decimal.Decimal) TaxMode {
	return TaxMode{Kind: TaxPercentage, Value: p}
}

func FixedAmount(a decimal.Decimal) TaxMode {
	return TaxMode{Kind: TaxFixedAmount, Value: a}
}

// IsPresetPercentage 是否为预设税率之一
func IsPresetPercentage(p decimal.Decimal) bool {
	for _, preset := range PresetPercentages {
		if preset.Equal(p) {
			return true
		}
	}
	return false
}

// TaxHold 预留税款结果，HeldForTaxes 为 false 时其余字段均为空
type TaxHold struct {
	HeldForTaxes  bool
	TaxAmount     *decimal.Decimal
	TaxPercentage *decimal.Decimal
}

// ComputeTax 根据总额和方式计算预留税款
func ComputeTax(total decimal.Decimal, mode TaxMode) (TaxHold, error) {
	switch mode.Kind {
	case TaxNone:
		return TaxHold{}, nil
	case TaxPercentage:
		p := mode.Value
		if p.IsNegative() || p.GreaterThan(hundred) {
			return TaxHold{}, fmt.Errorf("%w: tax percentage %s out of range [0, 100]", ErrInvalidAmount, p)
		}
		amount := total.Mul(p).Div(hundred)
		return TaxHold{HeldForTaxes: true, TaxAmount: &amount, TaxPercentage: &p}, nil
	case TaxFixedAmount:
		a := mode.Value
		if a.IsNegative() || a.GreaterThan(total) {
			return TaxHold{}, fmt.Errorf("%w: tax amount %s out of range [0, %s]", ErrInvalidAmount, a, total)
		}
		return TaxHold{HeldForTaxes: true, TaxAmount: &a}, nil
	default:
		return TaxHold{}, fmt.Errorf("%w: unknown tax mode %d", ErrInvalidState, mode.Kind)
	}
}

// NetAfterTax 扣除预留税款后的净额，只用于展示，不持久化
func NetAfterTax(total decimal.Decimal, taxAmount *decimal.Decimal) decimal.Decimal {
	if taxAmount == nil {
		return total
	}
	return total.Sub(*taxAmount)
}

// TaxEstimate 盈利部分按税率估算税款，亏损时为 0
func TaxEstimate(pnl, rate decimal.Decimal) decimal.Decimal {
	if !pnl.IsPositive() {
		return decimal.Zero
	}
	return pnl.Mul(rate)
}
