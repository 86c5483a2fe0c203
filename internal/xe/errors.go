package xe

import (
	"fmt"

	"github.com/go-orz/orz"
)

var (
	ErrValidation       = orz.NewError(10400, "参数无效")
	ErrUnauthorized     = orz.NewError(10401, "未授权")
	ErrInvalidToken     = orz.NewError(10403, "令牌无效")
	ErrNotFound         = orz.NewError(10404, "记录不存在")
	ErrInvalidState     = orz.NewError(10409, "当前状态不允许该操作")
	ErrInvalidAmount    = orz.NewError(10410, "数量或金额超出范围")
	ErrUpstream         = orz.NewError(10502, "外部服务不可用")
	ErrAlreadySetup     = orz.NewError(10000, "系统已经初始化")
	ErrIncorrectAccount = orz.NewError(10001, "账户或密码错误")
	ErrAccountDisabled  = orz.NewError(10002, "账户已被禁用")
	ErrIncorrectOldPass = orz.NewError(10003, "原密码错误")
)

// Wrap 在业务错误上附加细节，保留 errors.Is 判断
func Wrap(base *orz.Error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))
}
