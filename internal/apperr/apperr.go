package apperr

import (
	"errors"
	"fmt"
)

// Kind 错误分类
type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuthorization
	KindState
	KindTransfer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// Error 业务错误，调用方按 Kind 分支处理
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation 输入校验错误，状态未改变
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Authorization 调用者身份错误，状态未改变
func Authorization(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Msg: fmt.Sprintf(format, args...)}
}

// State 操作时序错误，状态未改变
func State(format string, args ...interface{}) *Error {
	return &Error{Kind: KindState, Msg: fmt.Sprintf(format, args...)}
}

// Transfer 转账失败，整个操作回滚
func Transfer(msg string, err error) *Error {
	return &Error{Kind: KindTransfer, Msg: msg, Err: err}
}

// KindOf 获取错误分类，非业务错误返回 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }
func IsState(err error) bool         { return KindOf(err) == KindState }
func IsTransfer(err error) bool      { return KindOf(err) == KindTransfer }
