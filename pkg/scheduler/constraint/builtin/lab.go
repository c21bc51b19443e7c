package builtin

import (
	"fmt"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
)

// LabExclusiveConstraint 同一时间段全校只允许一节实验课
type LabExclusiveConstraint struct {
	*BaseConstraint
}

// NewLabExclusiveConstraint 创建实验室独占规则
func NewLabExclusiveConstraint() *LabExclusiveConstraint {
	return &LabExclusiveConstraint{
		BaseConstraint: NewBaseConstraint("实验课时段独占", constraint.TypeLabExclusive, constraint.CategoryHard, 90),
	}
}

// Evaluate 评估整张课表
func (c *LabExclusiveConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	first := make(map[model.SlotKey]*model.Entry)
	for _, e := range ctx.Entries {
		if !e.Type.IsLab() {
			continue
		}
		prev, ok := first[e.Key()]
		if !ok {
			first[e.Key()] = e
			continue
		}
		totalPenalty += c.Weight()
		v := c.CreateViolation(e, fmt.Sprintf("%s %s 已有实验课 %s（%s），不能再安排 %s（%s）",
			e.Day, e.Slot, prev.Course, prev.Batch(), e.Course, e.Batch()), c.Weight())
		v.Entries = ids(e, prev)
		violations = append(violations, v)
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateEntry 评估单条记录
func (c *LabExclusiveConstraint) EvaluateEntry(ctx *constraint.Context, e *model.Entry) (bool, int) {
	if !e.Type.IsLab() {
		return true, 0
	}
	for _, other := range ctx.EntriesAt(e.Key()) {
		if other.ID != e.ID && other.Type.IsLab() {
			return false, c.Weight()
		}
	}
	return true, 0
}
