package model

import (
	"database/sql/driver"
	"fmt"
)

// ── PostgreSQL JSONB 自定义类型 ──

// JSONBlob 对应 PostgreSQL JSONB 列，实现 GORM Scanner/Valuer 接口。
type JSONBlob []byte

// Scan 读取 JSONB 原文
func (b *JSONBlob) Scan(src interface{}) error {
	if src == nil {
		*b = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		*b = append((*b)[:0], v...)
	case string:
		*b = JSONBlob(v)
	default:
		return fmt.Errorf("JSONBlob.Scan: unsupported type %T", src)
	}
	return nil
}

// Value 写入 JSONB 原文
func (b JSONBlob) Value() (driver.Value, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return string(b), nil
}

// MarshalJSON 直接输出原文，避免 []byte 被 base64 编码
func (b JSONBlob) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}
	return b, nil
}
