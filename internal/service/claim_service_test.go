package service

import (
	"context"
	"testing"
	"time"

	"github.com/dushixiang/coinbook/internal/models"
	"github.com/dushixiang/coinbook/internal/xe"
	"github.com/dushixiang/coinbook/pkg/ledger"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

func newClaimService(t *testing.T) *ClaimService {
	return NewClaimService(newTestDB(t), testLogger())
}

func details(pairs ...string) []ledger.TokenDetail {
	var out []ledger.TokenDetail
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, ledger.TokenDetail{Symbol: pairs[i], Amount: dec(pairs[i+1])})
	}
	return out
}

func TestSubmitCreatesClaim(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()

	view, err := s.Submit(ctx, ClaimRequest{
		Date:         "2024-01-01",
		TokenDetails: details("btc", "1", "ETH", "5", "BTC", "0.5"),
		Txn:          "0xabc",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "2024-01-01T12:00:00Z", view.Date)
	assertDecimal(t, "6.5", view.TotalAmount)
	assertDecimal(t, "1.5", view.TokenTotals["BTC"])
	assertDecimal(t, "5", view.TokenTotals["ETH"])
	assert.False(t, view.HeldForTaxes)
	assert.Nil(t, view.TaxAmount)
	assert.Nil(t, view.TaxPercentage)
	assertDecimal(t, "6.5", view.NetAmount)
	assert.Equal(t, "0xabc", view.Txn)
}

func TestSubmitMergesSameDay(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()

	first, err := s.Submit(ctx, ClaimRequest{Date: "2024-01-01", TokenDetails: details("BTC", "1", "ETH", "5")})
	require.NoError(t, err)

	second, err := s.Submit(ctx, ClaimRequest{
		Date:         "2024-01-01T18:30:00Z",
		TokenDetails: details("BTC", "2"),
		TotalAmount:  decPtr("999"),
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assertDecimal(t, "3", second.TokenTotals["BTC"])
	assertDecimal(t, "5", second.TokenTotals["ETH"])
	assertDecimal(t, "8", second.TotalAmount)

	claims, err := s.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assertDecimal(t, "8", claims[0].TotalAmount)
}

func TestSubmitDifferentDaysCreatesSeparateClaims(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, ClaimRequest{Date: "2024-01-01", TokenDetails: details("BTC", "1")})
	require.NoError(t, err)
	_, err = s.Submit(ctx, ClaimRequest{Date: "2024-01-03", TokenDetails: details("BTC", "1")})
	require.NoError(t, err)
	_, err = s.Submit(ctx, ClaimRequest{Date: "2024-01-02", TokenDetails: details("BTC", "1")})
	require.NoError(t, err)

	claims, err := s.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, claims, 3)
	assert.Equal(t, "2024-01-03T12:00:00Z", claims[0].Date)
	assert.Equal(t, "2024-01-02T12:00:00Z", claims[1].Date)
	assert.Equal(t, "2024-01-01T12:00:00Z", claims[2].Date)
}

func TestSubmitEmptyTokenDetails(t *testing.T) {
	s := newClaimService(t)

	view, err := s.Submit(context.Background(), ClaimRequest{Date: "2024-02-01"})
	require.NoError(t, err)
	assert.True(t, view.TotalAmount.IsZero())
	assert.Empty(t, view.TokenTotals)
}

func TestSubmitRejectsNegativeAmount(t *testing.T) {
	s := newClaimService(t)

	_, err := s.Submit(context.Background(), ClaimRequest{Date: "2024-02-01", TokenDetails: details("BTC", "-1")})
	assert.ErrorIs(t, err, xe.ErrInvalidAmount)
}

func TestSubmitRejectsBadDate(t *testing.T) {
	s := newClaimService(t)

	_, err := s.Submit(context.Background(), ClaimRequest{Date: "01/02/2024"})
	assert.ErrorIs(t, err, xe.ErrValidation)
}

func TestSubmitPercentageTax(t *testing.T) {
	s := newClaimService(t)

	view, err := s.Submit(context.Background(), ClaimRequest{
		Date:          "2024-01-01",
		TokenDetails:  details("USDC", "1000"),
		HeldForTaxes:  true,
		TaxPercentage: decPtr("30"),
	})
	require.NoError(t, err)

	assert.True(t, view.HeldForTaxes)
	require.NotNil(t, view.TaxAmount)
	assertDecimal(t, "300", *view.TaxAmount)
	require.NotNil(t, view.TaxPercentage)
	assertDecimal(t, "30", *view.TaxPercentage)
	assertDecimal(t, "700", view.NetAmount)
}

func TestSubmitFixedTaxAboveTotal(t *testing.T) {
	s := newClaimService(t)

	_, err := s.Submit(context.Background(), ClaimRequest{
		Date:         "2024-01-01",
		TokenDetails: details("USDC", "100"),
		HeldForTaxes: true,
		TaxAmount:    decPtr("150"),
	})
	assert.ErrorIs(t, err, xe.ErrInvalidAmount)

	claims, err := s.List(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestSubmitMergeAccumulatesTax(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, ClaimRequest{
		Date:          "2024-01-01",
		TokenDetails:  details("USDC", "1000"),
		HeldForTaxes:  true,
		TaxPercentage: decPtr("30"),
	})
	require.NoError(t, err)

	view, err := s.Submit(ctx, ClaimRequest{
		Date:          "2024-01-01",
		TokenDetails:  details("USDC", "500"),
		HeldForTaxes:  true,
		TaxPercentage: decPtr("30"),
	})
	require.NoError(t, err)

	assertDecimal(t, "1500", view.TotalAmount)
	require.NotNil(t, view.TaxAmount)
	assertDecimal(t, "450", *view.TaxAmount)
	require.NotNil(t, view.TaxPercentage)
	assertDecimal(t, "30", *view.TaxPercentage)

	// 比例不同时不再保留比例
	view, err = s.Submit(ctx, ClaimRequest{
		Date:          "2024-01-01",
		TokenDetails:  details("USDC", "100"),
		HeldForTaxes:  true,
		TaxPercentage: decPtr("20"),
	})
	require.NoError(t, err)
	assertDecimal(t, "470", *view.TaxAmount)
	assert.Nil(t, view.TaxPercentage)
}

func TestSubmitMergeKeepsHeldFlagAndFirstTxn(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, ClaimRequest{
		Date:         "2024-01-01",
		TokenDetails: details("USDC", "100"),
		HeldForTaxes: true,
		TaxAmount:    decPtr("10"),
		Txn:          "0xfirst",
	})
	require.NoError(t, err)

	view, err := s.Submit(ctx, ClaimRequest{
		Date:         "2024-01-01",
		TokenDetails: details("USDC", "50"),
		Txn:          "0xsecond",
	})
	require.NoError(t, err)

	assert.True(t, view.HeldForTaxes)
	assertDecimal(t, "10", *view.TaxAmount)
	assertDecimal(t, "140", view.NetAmount)
	assert.Equal(t, "0xfirst", view.Txn)
}

func TestUpdateTaxToggleOffClears(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()

	created, err := s.Submit(ctx, ClaimRequest{
		Date:          "2024-01-01",
		TokenDetails:  details("USDC", "1000"),
		HeldForTaxes:  true,
		TaxPercentage: decPtr("25"),
	})
	require.NoError(t, err)
	assertDecimal(t, "250", *created.TaxAmount)

	updated, err := s.Update(ctx, created.ID, ClaimRequest{
		Date:          "2024-01-01",
		TokenDetails:  details("USDC", "1000"),
		HeldForTaxes:  false,
		TaxPercentage: decPtr("25"),
	})
	require.NoError(t, err)

	assert.False(t, updated.HeldForTaxes)
	assert.Nil(t, updated.TaxAmount)
	assert.Nil(t, updated.TaxPercentage)
	assertDecimal(t, "1000", updated.NetAmount)

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TaxAmount)
}

func TestUpdateOverwritesWithoutMerge(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()

	created, err := s.Submit(ctx, ClaimRequest{Date: "2024-01-01", TokenDetails: details("BTC", "3", "ETH", "5")})
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.ID, ClaimRequest{Date: "2024-01-05", TokenDetails: details("SOL", "2")})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "2024-01-05T12:00:00Z", updated.Date)
	assert.Len(t, updated.TokenTotals, 1)
	assertDecimal(t, "2", updated.TotalAmount)
}

func TestUpdateOntoOccupiedDay(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()

	a, err := s.Submit(ctx, ClaimRequest{Date: "2024-01-01", TokenDetails: details("BTC", "1")})
	require.NoError(t, err)
	_, err = s.Submit(ctx, ClaimRequest{Date: "2024-01-02", TokenDetails: details("BTC", "1")})
	require.NoError(t, err)

	_, err = s.Update(ctx, a.ID, ClaimRequest{Date: "2024-01-02", TokenDetails: details("BTC", "1")})
	assert.ErrorIs(t, err, xe.ErrInvalidState)
}

func TestUpdateMissingClaim(t *testing.T) {
	s := newClaimService(t)

	_, err := s.Update(context.Background(), "missing", ClaimRequest{Date: "2024-01-01"})
	assert.ErrorIs(t, err, xe.ErrNotFound)
}

func TestDeleteClaim(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()

	created, err := s.Submit(ctx, ClaimRequest{Date: "2024-01-01", TokenDetails: details("BTC", "1")})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))
	assert.ErrorIs(t, s.Delete(ctx, created.ID), xe.ErrNotFound)

	_, err = s.Get(ctx, created.ID)
	assert.ErrorIs(t, err, xe.ErrNotFound)

	// 删除后同一天可以重新创建
	again, err := s.Submit(ctx, ClaimRequest{Date: "2024-01-01", TokenDetails: details("BTC", "2")})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, again.ID)
}

func TestClaimTotals(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()

	_, err := s.Submit(ctx, ClaimRequest{
		Date:          "2024-01-01",
		TokenDetails:  details("BTC", "100"),
		HeldForTaxes:  true,
		TaxPercentage: decPtr("20"),
	})
	require.NoError(t, err)
	_, err = s.Submit(ctx, ClaimRequest{Date: "2024-01-02", TokenDetails: details("BTC", "50", "ETH", "10")})
	require.NoError(t, err)

	totals, err := s.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Count)
	assertDecimal(t, "160", totals.TotalAmount)
	assertDecimal(t, "20", totals.TaxHeld)
	assertDecimal(t, "140", totals.NetAmount)
	assertDecimal(t, "150", totals.ByToken["BTC"])
	assertDecimal(t, "10", totals.ByToken["ETH"])
}

func TestSubmitKeepsFullPrecision(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()

	view, err := s.Submit(ctx, ClaimRequest{
		Date:         "2024-01-01",
		TokenDetails: details("BTC", "0.123456789012345678", "ETH", "1000000.000000000001"),
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, view.ID)
	require.NoError(t, err)
	assertDecimal(t, "1000000.123456789013345678", got.TotalAmount)
	assertDecimal(t, "0.123456789012345678", got.TokenTotals["BTC"])
	assertDecimal(t, got.TokenTotals.Sum().String(), got.TotalAmount)
}

func TestListClaimsBetweenDays(t *testing.T) {
	s := newClaimService(t)
	ctx := context.Background()
	for _, day := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		_, err := s.Submit(ctx, ClaimRequest{Date: day, TokenDetails: details("BTC", "1")})
		require.NoError(t, err)
	}

	claims, err := s.List(ctx, "2024-01-02", "2024-01-03T23:00:00Z")
	require.NoError(t, err)
	require.Len(t, claims, 2)
	assert.Equal(t, "2024-01-03T12:00:00Z", claims[0].Date)
	assert.Equal(t, "2024-01-02T12:00:00Z", claims[1].Date)

	claims, err = s.List(ctx, "", "2024-01-01")
	require.NoError(t, err)
	require.Len(t, claims, 1)

	_, err = s.List(ctx, "yesterday", "")
	assert.ErrorIs(t, err, xe.ErrValidation)
}

func TestSubmitRetriesAsMergeAfterConcurrentCreate(t *testing.T) {
	db := newTestDB(t)
	core, logs := observer.New(zap.WarnLevel)
	s := NewClaimService(db, zap.New(core))
	ctx := context.Background()

	rival := models.Claim{ID: ulid.Make().String(), Txn: "0xrival"}
	rival.SetDate(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	rival.SetTokenClaims(ledger.TokenAmounts{"ETH": dec("5")})

	// 首次插入报告唯一约束冲突，重试事务查询前由另一连接提交当日记录
	stage := 0
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:conflict", func(tx *gorm.DB) {
		if stage == 0 && tx.Statement.Table == "claims" {
			stage = 1
			_ = tx.AddError(gorm.ErrDuplicatedKey)
		}
	}))
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:rival", func(tx *gorm.DB) {
		if stage == 1 && tx.Statement.Table == "claims" {
			stage = 2
			require.NoError(t, db.Create(&rival).Error)
		}
	}))

	view, err := s.Submit(ctx, ClaimRequest{Date: "2024-01-01", TokenDetails: details("BTC", "1")})
	require.NoError(t, err)
	assert.Equal(t, 2, stage)

	assert.Equal(t, rival.ID, view.ID)
	assertDecimal(t, "1", view.TokenTotals["BTC"])
	assertDecimal(t, "5", view.TokenTotals["ETH"])
	assertDecimal(t, "6", view.TotalAmount)
	assert.Equal(t, "0xrival", view.Txn)

	var count int64
	require.NoError(t, db.Model(&models.Claim{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, logs.FilterMessage("claim day created concurrently, retrying as merge").Len())
}
