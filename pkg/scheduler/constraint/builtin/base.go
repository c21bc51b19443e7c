// Package builtin 提供内置课表规则实现
package builtin

import (
	"github.com/google/uuid"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
)

// BaseConstraint 规则基类
type BaseConstraint struct {
	name     string
	typ      constraint.Type
	category constraint.Category
	weight   int
}

// NewBaseConstraint 创建基础规则
func NewBaseConstraint(name string, typ constraint.Type, cat constraint.Category, weight int) *BaseConstraint {
	return &BaseConstraint{
		name:     name,
		typ:      typ,
		category: cat,
		weight:   weight,
	}
}

// Name 返回规则名称
func (c *BaseConstraint) Name() string { return c.name }

// Type 返回规则类型
func (c *BaseConstraint) Type() constraint.Type { return c.typ }

// Category 返回规则类别
func (c *BaseConstraint) Category() constraint.Category { return c.category }

// Weight 返回规则权重
func (c *BaseConstraint) Weight() int { return c.weight }

// CreateViolation 以 e 的星期和时间段创建违反详情，entries 为涉及的记录
func (c *BaseConstraint) CreateViolation(e *model.Entry, message string, penalty int, entries ...*model.Entry) constraint.ViolationDetail {
	severity := "warning"
	if c.category == constraint.CategoryHard {
		severity = "error"
	}

	v := constraint.ViolationDetail{
		ConstraintType: c.typ,
		ConstraintName: c.name,
		Message:        message,
		Severity:       severity,
		Penalty:        penalty,
	}
	if e != nil {
		v.Day = e.Day
		v.Time = e.Slot.String()
		v.Entries = append(v.Entries, e.ID)
	}
	for _, other := range entries {
		v.Entries = append(v.Entries, other.ID)
	}
	return v
}

// Evaluate 默认评估实现（子类需覆盖）
func (c *BaseConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	return true, 0, nil
}

// EvaluateEntry 默认单条评估实现（子类需覆盖）
func (c *BaseConstraint) EvaluateEntry(ctx *constraint.Context, e *model.Entry) (bool, int) {
	return true, 0
}

func ids(entries ...*model.Entry) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ID)
	}
	return out
}
