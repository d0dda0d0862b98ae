package service

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/ips-logistics/internal/logistics/repository"
)

// 错误类别，调用方用 errors.Is 判断
var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Error 带可读信息的业务错误
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func notFoundf(format string, args ...interface{}) error {
	return &Error{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...interface{}) error {
	return &Error{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// lookupErr 仓库未找到转为 NotFound，其余错误原样包装
func lookupErr(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if errors.Is(err, repository.ErrNotFound) {
		return &Error{kind: ErrNotFound, msg: msg}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
