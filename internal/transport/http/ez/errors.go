package ez

import (
	"errors"
	"net/http"

	"catalog-api/internal/core/auth"
	"catalog-api/internal/domain"
)

// AErr 传输层错误：Code 即 HTTP 状态码，Msg 直接返回给调用方
type AErr struct {
	Code   int
	Msg    string
	Err    error
	Fields map[string]string
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: http.StatusNotFound, Msg: msg} }
func Conflict(msg string) error     { return &AErr{Code: http.StatusConflict, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

func Invalid(fields map[string]string) error {
	return &AErr{Code: http.StatusBadRequest, Msg: "validation failed", Fields: fields}
}

var kinds = []struct {
	err  error
	code int
}{
	{domain.ErrInvalidInput, http.StatusBadRequest},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{auth.ErrUnauthenticated, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{auth.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConflict, http.StatusConflict},
}

// FromError 把 handler/service 返回的错误归一成 *AErr。
// 未识别的错误一律 500，对外只说 "internal error"，原始错误只进日志。
func FromError(err error) *AErr {
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Code >= http.StatusInternalServerError {
			return &AErr{Code: ae.Code, Msg: "internal error", Err: ae}
		}
		return ae
	}
	for _, k := range kinds {
		if !errors.Is(err, k.err) {
			continue
		}
		msg := k.err.Error()
		var de *domain.Error
		if errors.As(err, &de) && de.Msg != "" {
			msg = de.Msg
		}
		return &AErr{Code: k.code, Msg: msg, Err: err}
	}
	return &AErr{Code: http.StatusInternalServerError, Msg: "internal error", Err: err}
}
