package ledger

// MergeTokenClaims 合并两组代币领取数量，按符号求和。
// 只有出现在任一输入中的符号才会出现在结果里，不校验负数。
func MergeTokenClaims(existing, incoming TokenAmounts) TokenAmounts {
	out := existing.Clone()
	for symbol, amount := range incoming {
		out[symbol] = out[symbol].Add(amount)
	}
	return out
}
