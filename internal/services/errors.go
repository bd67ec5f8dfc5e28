package services

import (
	"errors"
	"fmt"
)

// 错误类型，handler 用 errors.Is 判断并映射 HTTP 状态码
var (
	ErrNotFound             = errors.New("资源不存在")
	ErrDeleted              = errors.New("资源已删除")
	ErrForbidden            = errors.New("没有权限")
	ErrForbiddenCrossSchool = fmt.Errorf("%w: 只能在本校帖子下互动", ErrForbidden)
	ErrAlreadyReacted       = errors.New("已经表态过了")
	ErrNotReacted           = errors.New("尚未表态")
	ErrNicknameExhausted    = errors.New("暂时无法分配昵称，请稍后重试")
	ErrValidation           = errors.New("参数错误")
	ErrConflict             = errors.New("资源已存在")
	ErrUnauthorized         = errors.New("未登录或登录已过期")
)

// Error 带具体提示的错误，Kind 为上面的某个哨兵错误
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}
