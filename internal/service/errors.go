package service

import (
	"errors"
	"strings"

	"github.com/dushixiang/coinbook/internal/xe"
	"github.com/dushixiang/coinbook/pkg/ledger"
	"gorm.io/gorm"
)

// ledgerError 将账本计算错误转换为业务错误
func ledgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrInvalidAmount):
		return xe.Wrap(xe.ErrInvalidAmount, "%v", err)
	case errors.Is(err, ledger.ErrInvalidState):
		return xe.Wrap(xe.ErrInvalidState, "%v", err)
	default:
		return err
	}
}

// notFound 将记录不存在转换为业务错误
func notFound(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return xe.Wrap(xe.ErrNotFound, "%s %s", kind, id)
	}
	return err
}

// isDuplicateKey 唯一约束冲突
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") || strings.Contains(msg, "duplicate entry")
}
