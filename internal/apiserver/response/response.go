// Package response 统一的 HTTP 响应封装和错误分类
//
// 成功与失败都使用 Body 作为响应体；失败通过 *Error 传递，
// 由 Kind 决定 HTTP 状态码，响应体不再携带 status 字段。
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类
type Kind string

const (
	KindDuplicateUser      Kind = "DuplicateUser"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindUserTypeMismatch   Kind = "UserTypeMismatch"
	KindWrongPassword      Kind = "WrongPassword"
	KindNotFound           Kind = "NotFound"
	KindValidation         Kind = "ValidationError"
	KindStore              Kind = "StoreError"
	KindUnauthorized       Kind = "Unauthorized"
)

// Status 错误分类对应的 HTTP 状态码
func (k Kind) Status() int {
	switch k {
	case KindDuplicateUser:
		return http.StatusConflict
	case KindInvalidCredentials, KindWrongPassword, KindUnauthorized:
		return http.StatusUnauthorized
	case KindUserTypeMismatch:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error 面向调用方的业务错误
// Message 原样返回给客户端，Err 只用于日志
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同 Kind 的 *Error 视为相等，便于 errors.Is(err, &Error{Kind: ...})
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

// New 创建业务错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 创建带底层原因的业务错误
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

// Store 存储层失败，消息使用底层错误文本
func Store(err error) *Error {
	return Wrap(KindStore, err.Error(), err)
}

// KindOf 返回错误分类，非 *Error 视为 StoreError
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStore
}

// Body 统一响应体
type Body struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	User    any    `json:"user,omitempty"`
	Token   string `json:"token,omitempty"`
}

// WriteJSON 将数据以 JSON 格式写入 HTTP 响应
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WriteOK 写入成功响应
func WriteOK(w http.ResponseWriter, body Body) {
	body.Success = true
	WriteJSON(w, http.StatusOK, body)
}

// WriteError 按错误分类写入失败响应
func WriteError(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = Store(err)
	}
	WriteJSON(w, e.Kind.Status(), Body{Success: false, Message: e.Message})
}
