package errors

import "errors"

// ErrNotFound 键值存储中不存在对应记录
var ErrNotFound = errors.New("记录不存在")
