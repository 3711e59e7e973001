package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Kind 领域错误类别
type Kind string

const (
	KindValidation    Kind = "validation"
	KindPermission    Kind = "permission"
	KindStateConflict Kind = "state_conflict"
	KindNotFound      Kind = "not_found"
	KindDuplicate     Kind = "duplicate"
)

// Error 领域错误
// Message 可以直接返回给调用方,Err 保留底层原因但不对外暴露
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation 缺失或格式错误的数据
func Validation(message string, fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Permission 角色不符或访问令牌无效
func Permission(message string) *Error {
	return &Error{Kind: KindPermission, Message: message}
}

// StateConflict 当前状态不允许该操作
func StateConflict(message string) *Error {
	return &Error{Kind: KindStateConflict, Message: message}
}

// StateConflictf 格式化的状态冲突错误
func StateConflictf(format string, args ...interface{}) *Error {
	return StateConflict(fmt.Sprintf(format, args...))
}

// NotFound 资源不存在
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// Duplicate 唯一键冲突
func Duplicate(message string) *Error {
	return &Error{Kind: KindDuplicate, Message: message}
}

// Wrap 为领域错误附加底层原因
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// KindOf 返回错误链中第一个领域错误的类别,非领域错误返回空字符串
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// Is 判断错误链中是否包含指定类别的领域错误
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// As 提取领域错误
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// JoinStates 以逗号拼接状态名,用于错误消息
func JoinStates[T ~string](states []T) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
