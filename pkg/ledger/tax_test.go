package ledger

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTaxPercentage(t *testing.T) {
	hold, err := ComputeTax(d("200"), Percentage(d("25")))
	require.NoError(t, err)
	assert.True(t, hold.HeldForTaxes)
	assert.True(t, hold.TaxAmount.Equal(d("50")))
	assert.True(t, hold.TaxPercentage.Equal(d("25")))
	assert.True(t, NetAfterTax(d("200"), hold.TaxAmount).Equal(d("150")))
}

func TestComputeTaxFreeFormPercentage(t *testing.T) {
	hold, err := ComputeTax(d("80"), Percentage(d("12.5")))
	require.NoError(t, err)
	assert.True(t, hold.TaxAmount.Equal(d("10")))
	assert.False(t, IsPresetPercentage(d("12.5")))
	assert.True(t, IsPresetPercentage(d("30")))
}

func TestComputeTaxPercentageOutOfRange(t *testing.T) {
	_, err := ComputeTax(d("80"), Percentage(d("101")))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ComputeTax(d("80"), Percentage(d("-1")))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestComputeTaxFixedAmount(t *testing.T) {
	hold, err := ComputeTax(d("100"), FixedAmount(d("40")))
	require.NoError(t, err)
	assert.True(t, hold.HeldForTaxes)
	assert.True(t, hold.TaxAmount.Equal(d("40")))
	assert.Nil(t, hold.TaxPercentage)

	hold, err = ComputeTax(d("100"), FixedAmount(d("100")))
	require.NoError(t, err)
	assert.True(t, NetAfterTax(d("100"), hold.TaxAmount).IsZero())
}

func TestComputeTaxFixedAmountRejected(t *testing.T) {
	_, err := ComputeTax(d("100"), FixedAmount(d("100.01")))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = ComputeTax(d("100"), FixedAmount(d("-5")))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestComputeTaxNoneClearsState(t *testing.T) {
	held, err := ComputeTax(d("100"), FixedAmount(d("50")))
	require.NoError(t, err)
	require.True(t, held.HeldForTaxes)

	hold, err := ComputeTax(d("100"), NoTax())
	require.NoError(t, err)
	assert.False(t, hold.HeldForTaxes)
	assert.Nil(t, hold.TaxAmount)
	assert.Nil(t, hold.TaxPercentage)
	assert.True(t, NetAfterTax(d("100"), hold.TaxAmount).Equal(d("100")))
}

func TestTaxEstimate(t *testing.T) {
	assert.True(t, TaxEstimate(d("100"), DefaultCloseTaxRate).Equal(d("35")))
	assert.True(t, TaxEstimate(d("-100"), DefaultCloseTaxRate).IsZero())
	assert.True(t, TaxEstimate(decimal.Zero, DefaultCloseTaxRate).IsZero())
}

func TestTaxProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("percentage tax never exceeds total", prop.ForAll(
		func(total int64, pct int64) bool {
			tot := decimal.New(total, -2)
			hold, err := ComputeTax(tot, Percentage(decimal.NewFromInt(pct)))
			if err != nil {
				return false
			}
			return !hold.TaxAmount.GreaterThan(tot) && !NetAfterTax(tot, hold.TaxAmount).IsNegative()
		},
		gen.Int64Range(0, 1_000_000_00),
		gen.Int64Range(0, 100),
	))

	properties.Property("fixed amount within bounds is kept as is", prop.ForAll(
		func(total int64, frac int64) bool {
			tot := decimal.New(total, -2)
			a := tot.Mul(decimal.New(frac, -2))
			hold, err := ComputeTax(tot, FixedAmount(a))
			return err == nil && hold.TaxAmount.Equal(a) && hold.TaxPercentage == nil
		},
		gen.Int64Range(0, 1_000_000_00),
		gen.Int64Range(0, 100),
	))

	properties.TestingRun(t)
}
