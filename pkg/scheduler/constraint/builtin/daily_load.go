package builtin

import (
	"fmt"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
)

// TeacherDailyLoadConstraint 教师每日最大课数
type TeacherDailyLoadConstraint struct {
	*BaseConstraint
	maxClasses int
}

// NewTeacherDailyLoadConstraint 创建每日课数规则
func NewTeacherDailyLoadConstraint(maxClasses int) *TeacherDailyLoadConstraint {
	return &TeacherDailyLoadConstraint{
		BaseConstraint: NewBaseConstraint(
			"教师每日最大课数",
			constraint.TypeTeacherDailyLoad,
			constraint.CategoryHard,
			80,
		),
		maxClasses: maxClasses,
	}
}

type loadKey struct {
	teacher string
	day     string
}

// Evaluate 评估整张课表，超出的每节课计一次惩罚
func (c *TeacherDailyLoadConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	if c.maxClasses <= 0 {
		return true, 0, nil
	}

	// 按首次出现顺序报告
	seen := make(map[loadKey]bool)
	for _, e := range ctx.Entries {
		key := loadKey{e.Teacher, e.Day}
		if seen[key] {
			continue
		}
		seen[key] = true

		entries := ctx.TeacherEntriesOn(e.Teacher, e.Day)
		if len(entries) <= c.maxClasses {
			continue
		}
		over := len(entries) - c.maxClasses
		penalty := c.Weight() * over
		totalPenalty += penalty

		v := c.CreateViolation(nil,
			fmt.Sprintf("教师 %s 在 %s 安排了 %d 节课，超过上限 %d 节", e.Teacher, e.Day, len(entries), c.maxClasses),
			penalty)
		v.Day = e.Day
		v.Entries = ids(entries...)
		violations = append(violations, v)
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateEntry 评估单条记录
func (c *TeacherDailyLoadConstraint) EvaluateEntry(ctx *constraint.Context, e *model.Entry) (bool, int) {
	if c.maxClasses <= 0 {
		return true, 0
	}
	count := 1
	for _, other := range ctx.TeacherEntriesOn(e.Teacher, e.Day) {
		if other.ID != e.ID {
			count++
		}
	}
	if count > c.maxClasses {
		return false, c.Weight() * (count - c.maxClasses)
	}
	return true, 0
}

// dayEntries 返回同一天按开始时间排序的副本
func dayEntries(entries []*model.Entry) []*model.Entry {
	out := append([]*model.Entry(nil), entries...)
	sortByStart(out)
	return out
}
