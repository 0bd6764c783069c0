// Package service 包含了应用的业务逻辑层。
package service

import "errors"

// 业务错误哨兵。handler 层用 errors.Is 将其翻译成 HTTP 状态码，
// 除此之外的错误一律按内部错误处理，不向客户端泄露细节。
var (
	// ErrNotFound 表示请求的实体不存在，对应 404。
	ErrNotFound = errors.New("not found")
	// ErrValidation 表示输入不合法或业务规则校验失败，对应 400。
	ErrValidation = errors.New("validation failed")
)
