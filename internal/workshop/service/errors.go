package service

import (
	"errors"
)

// 业务错误分类，handler 层据此映射HTTP状态码。
// 具体错误信息用 fmt.Errorf("...: %w", Err...) 包装。
var (
	// ErrNotFound 引用的记录不存在
	ErrNotFound = errors.New("记录不存在")
	// ErrConflict 记录状态不满足操作前置条件
	ErrConflict = errors.New("状态冲突")
	// ErrValidation 输入不合法
	ErrValidation = errors.New("参数不合法")
)
