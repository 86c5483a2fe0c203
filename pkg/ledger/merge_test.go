package ledger

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func toAmounts(raw map[string]int64) TokenAmounts {
	out := make(TokenAmounts, len(raw))
	for k, v := range raw {
		out[k] = decimal.New(v, -4)
	}
	return out
}

func genAmounts() gopter.Gen {
	return gen.MapOf(
		gen.OneConstOf("BTC", "ETH", "SOL", "ARB", "JUP"),
		gen.Int64Range(-1_000_000_000, 1_000_000_000),
	)
}

func TestMergeTokenClaims(t *testing.T) {
	got := MergeTokenClaims(TokenAmounts{"A": d("1")}, TokenAmounts{"A": d("2"), "B": d("3")})
	assert.True(t, got.Equal(TokenAmounts{"A": d("3"), "B": d("3")}))

	reversed := MergeTokenClaims(TokenAmounts{"A": d("2"), "B": d("3")}, TokenAmounts{"A": d("1")})
	assert.True(t, got.Equal(reversed))
}

func TestMergeTokenClaimsEmpty(t *testing.T) {
	got := MergeTokenClaims(nil, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	got = MergeTokenClaims(TokenAmounts{"ETH": d("0.5")}, nil)
	assert.Equal(t, []string{"ETH"}, got.Symbols())
}

func TestMergeTokenClaimsDoesNotMutateInputs(t *testing.T) {
	a := TokenAmounts{"BTC": d("1")}
	b := TokenAmounts{"BTC": d("2")}
	MergeTokenClaims(a, b)
	assert.True(t, a["BTC"].Equal(d("1")))
	assert.True(t, b["BTC"].Equal(d("2")))
}

func TestMergeTokenClaimsNegativePassThrough(t *testing.T) {
	got := MergeTokenClaims(TokenAmounts{"BTC": d("1")}, TokenAmounts{"BTC": d("-3")})
	assert.True(t, got["BTC"].Equal(d("-2")))
}

func TestMergeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("merge is commutative", prop.ForAll(
		func(a, b map[string]int64) bool {
			x, y := toAmounts(a), toAmounts(b)
			return MergeTokenClaims(x, y).Equal(MergeTokenClaims(y, x))
		},
		genAmounts(), genAmounts(),
	))

	properties.Property("merge is associative", prop.ForAll(
		func(a, b, c map[string]int64) bool {
			x, y, z := toAmounts(a), toAmounts(b), toAmounts(c)
			left := MergeTokenClaims(MergeTokenClaims(x, y), z)
			right := MergeTokenClaims(x, MergeTokenClaims(y, z))
			return left.Equal(right)
		},
		genAmounts(), genAmounts(), genAmounts(),
	))

	properties.Property("merged amount is the per-symbol sum", prop.ForAll(
		func(a, b map[string]int64) bool {
			x, y := toAmounts(a), toAmounts(b)
			merged := MergeTokenClaims(x, y)
			for _, s := range []string{"BTC", "ETH", "SOL", "ARB", "JUP"} {
				_, inX := x[s]
				_, inY := y[s]
				got, ok := merged[s]
				if ok != (inX || inY) {
					return false
				}
				if ok && !got.Equal(x[s].Add(y[s])) {
					return false
				}
			}
			return true
		},
		genAmounts(), genAmounts(),
	))

	properties.Property("total of merge equals sum of totals", prop.ForAll(
		func(a, b map[string]int64) bool {
			x, y := toAmounts(a), toAmounts(b)
			return MergeTokenClaims(x, y).Sum().Equal(x.Sum().Add(y.Sum()))
		},
		genAmounts(), genAmounts(),
	))

	properties.TestingRun(t)
}

func TestReduceTokenDetails(t *testing.T) {
	got := ReduceTokenDetails([]TokenDetail{
		{Symbol: "btc", Amount: d("1")},
		{Symbol: " BTC ", Amount: d("0.25")},
		{Symbol: "ETH", Amount: d("5")},
	})
	assert.True(t, got.Equal(TokenAmounts{"BTC": d("1.25"), "ETH": d("5")}))
	assert.True(t, got.Sum().Equal(d("6.25")))

	empty := ReduceTokenDetails(nil)
	assert.Empty(t, empty)
	assert.True(t, empty.Sum().IsZero())
}
