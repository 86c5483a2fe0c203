package handler

import (
	"github.com/dushixiang/coinbook/internal/xe"
	"github.com/labstack/echo/v4"
)

// bind 解析并校验请求体，失败统一返回参数错误
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return xe.Wrap(xe.ErrValidation, "%v", err)
	}
	if err := c.Validate(req); err != nil {
		return xe.Wrap(xe.ErrValidation, "%v", err)
	}
	return nil
}

// currentUserID 由 JWT 中间件写入
func currentUserID(c echo.Context) string {
	id, _ := c.Get("user_id").(string)
	return id
}
