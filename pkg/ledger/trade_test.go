package ledger

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var closeDay = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func openPosition(qty, purchase string) Position {
	return Position{
		ID:            "trade-1",
		TokenSymbol:   "SOL",
		PurchasePrice: d(purchase),
		Quantity:      d(qty),
		Status:        TradeOpen,
		RealizedPnl:   decimal.Zero,
	}
}

func TestCloseRejectsAmountAboveQuantity(t *testing.T) {
	r := NewReconciler(DefaultCloseTaxRate)
	_, err := r.Close(openPosition("10", "5"), d("15"), d("7"), closeDay)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCloseRejectsNonPositiveAmount(t *testing.T) {
	r := NewReconciler(DefaultCloseTaxRate)
	_, err := r.Close(openPosition("10", "5"), decimal.Zero, d("7"), closeDay)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = r.Close(openPosition("10", "5"), d("-1"), d("7"), closeDay)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFullClose(t *testing.T) {
	r := NewReconciler(DefaultCloseTaxRate)
	res, err := r.Close(openPosition("10", "5"), d("10"), d("9"), closeDay)
	require.NoError(t, err)

	assert.True(t, res.FullClose())
	assert.Equal(t, TradeClosed, res.Position.Status)
	assert.True(t, res.Position.Quantity.IsZero())
	assert.True(t, res.Position.RealizedPnl.Equal(d("40")))
	require.NotNil(t, res.Position.ClosePrice)
	assert.True(t, res.Position.ClosePrice.Equal(d("9")))
	assert.Equal(t, closeDay, *res.Position.CloseDate)

	assert.Equal(t, HistoryClose, res.History.Type)
	assert.True(t, res.History.Pnl.Equal(d("40")))

	require.NotNil(t, res.Pnl)
	assert.Equal(t, "SOL", res.Pnl.TokenSymbol)
	assert.True(t, res.Pnl.Amount.Equal(d("40")))
	assert.True(t, res.Pnl.TaxEstimate.Equal(d("14")))
}

func TestFullCloseAtLossHasNoTaxEstimate(t *testing.T) {
	r := NewReconciler(DefaultCloseTaxRate)
	res, err := r.Close(openPosition("2", "10"), d("2"), d("4"), closeDay)
	require.NoError(t, err)
	require.NotNil(t, res.Pnl)
	assert.True(t, res.Pnl.Amount.Equal(d("-12")))
	assert.True(t, res.Pnl.TaxEstimate.IsZero())
}

func TestPartialClose(t *testing.T) {
	r := NewReconciler(DefaultCloseTaxRate)
	res, err := r.Close(openPosition("10", "5"), d("4"), d("7"), closeDay)
	require.NoError(t, err)

	assert.False(t, res.FullClose())
	assert.Equal(t, HistoryPartialClose, res.History.Type)
	assert.True(t, res.History.Pnl.Equal(d("8")))
	assert.Equal(t, TradeOpen, res.Position.Status)
	assert.True(t, res.Position.Quantity.Equal(d("6")))
	assert.True(t, res.Position.RealizedPnl.Equal(d("8")))
	assert.Nil(t, res.Position.ClosePrice)
	assert.Nil(t, res.Pnl)
}

func TestCloseOnClosedTrade(t *testing.T) {
	r := NewReconciler(DefaultCloseTaxRate)
	res, err := r.Close(openPosition("10", "5"), d("10"), d("9"), closeDay)
	require.NoError(t, err)

	_, err = r.Close(res.Position, d("1"), d("9"), closeDay)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestUndoFullClose(t *testing.T) {
	r := NewReconciler(DefaultCloseTaxRate)
	start := openPosition("10", "5")
	res, err := r.Close(start, d("10"), d("9"), closeDay)
	require.NoError(t, err)

	restored, err := Undo(res.Position, res.History)
	require.NoError(t, err)
	assert.Equal(t, TradeOpen, restored.Status)
	assert.True(t, restored.Quantity.Equal(d("10")))
	assert.True(t, restored.RealizedPnl.IsZero())
	assert.Nil(t, restored.ClosePrice)
	assert.Nil(t, restored.CloseDate)
}

func TestUndoRejectsForeignHistory(t *testing.T) {
	_, err := Undo(openPosition("1", "1"), HistoryEntry{TradeID: "other"})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSummaryTaxEstimate(t *testing.T) {
	assert.True(t, SummaryTaxEstimate(d("1000"), DefaultSummaryTaxRate).Equal(d("300")))
	assert.True(t, SummaryTaxEstimate(d("-200"), DefaultSummaryTaxRate).IsZero())
}

func TestUnrealizedPnl(t *testing.T) {
	assert.True(t, UnrealizedPnl(d("12"), d("10"), d("3")).Equal(d("6")))
	assert.True(t, UnrealizedPnl(d("8"), d("10"), d("3")).Equal(d("-6")))
}

func TestCloseProperties(t *testing.T) {
	r := NewReconciler(DefaultCloseTaxRate)
	properties := gopter.NewProperties(nil)

	properties.Property("quantity never goes negative and pnl is consistent", prop.ForAll(
		func(qty, closeQty, purchase, price int64) bool {
			p := openPosition("0", "0")
			p.Quantity = decimal.New(qty, -3)
			p.PurchasePrice = decimal.New(purchase, -2)
			amount := decimal.New(closeQty, -3)
			res, err := r.Close(p, amount, decimal.New(price, -2), closeDay)
			if amount.GreaterThan(p.Quantity) {
				return err != nil
			}
			if err != nil || res.Position.Quantity.IsNegative() {
				return false
			}
			want := decimal.New(price, -2).Sub(p.PurchasePrice).Mul(amount)
			if !res.History.Pnl.Equal(want) || !res.Position.RealizedPnl.Equal(want) {
				return false
			}
			return res.FullClose() == (res.Pnl != nil)
		},
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(0, 1_000_000),
	))

	properties.Property("undo restores the pre-close position", prop.ForAll(
		func(qty, closeQty, price int64) bool {
			p := openPosition("0", "3.5")
			p.Quantity = decimal.New(qty, -3)
			amount := decimal.New(closeQty, -3)
			if amount.GreaterThan(p.Quantity) {
				amount = p.Quantity
			}
			res, err := r.Close(p, amount, decimal.New(price, -2), closeDay)
			if err != nil {
				return false
			}
			back, err := Undo(res.Position, res.History)
			if err != nil {
				return false
			}
			return back.Status == TradeOpen &&
				back.Quantity.Equal(p.Quantity) &&
				back.RealizedPnl.Equal(p.RealizedPnl)
		},
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(1, 1_000_000),
		gen.Int64Range(0, 1_000_000),
	))

	properties.TestingRun(t)
}

func TestNormalizeDay(t *testing.T) {
	late := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), NormalizeDay(late))
	assert.Equal(t, "2024-01-01", DayKey(NormalizeDay(late)))

	parsed, err := ParseDate("2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", DayKey(NormalizeDay(parsed)))

	parsed, err = ParseDate("2024-01-01T20:00:00-05:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", DayKey(NormalizeDay(parsed)))

	_, err = ParseDate("01/02/2024")
	assert.Error(t, err)

	start, end := DayBounds(late)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}
