package xhttp

import "errors"

var (
	// ErrInvalidStatusCodes 表示 error_status_codes 中有无法解析的项。
	ErrInvalidStatusCodes = errors.New("xhttp: invalid error status code range")

	// ErrErrorStatus 是响应状态码落在 error_status_codes 中时记录到 span 的错误。
	ErrErrorStatus = errors.New("xhttp: error status code")
)

// ErrHandlerPanic 是 handler panic 时记录到服务端 span 的错误。
var ErrHandlerPanic = errors.New("xhttp: handler panic")
