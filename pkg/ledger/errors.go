package ledger

import "errors"

var (
	// ErrInvalidAmount 数量或金额超出允许范围
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidState 当前状态不允许该操作
	ErrInvalidState = errors.New("invalid state")
)
