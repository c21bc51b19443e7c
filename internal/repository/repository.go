// Package repository 提供数据访问层
package repository

import (
	"github.com/jmoiron/sqlx"
)

// DB 仓储依赖的数据库接口，*sqlx.DB 与 *sqlx.Tx 均满足
type DB interface {
	sqlx.ExtContext
}

// ListFilter 列表查询过滤器
type ListFilter struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// DefaultListFilter 返回默认过滤器
func DefaultListFilter() ListFilter {
	return ListFilter{
		Offset: 0,
		Limit:  20,
	}
}

// WithLimit 设置限制
func (f ListFilter) WithLimit(limit int) ListFilter {
	f.Limit = limit
	return f
}

// WithOffset 设置偏移
func (f ListFilter) WithOffset(offset int) ListFilter {
	f.Offset = offset
	return f
}

func (f ListFilter) normalize() ListFilter {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
