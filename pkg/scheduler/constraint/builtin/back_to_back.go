package builtin

import (
	"fmt"
	"sort"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
)

// NoBackToBackConstraint 同一班级同一门课不能连堂
type NoBackToBackConstraint struct {
	*BaseConstraint
}

// NewNoBackToBackConstraint 创建禁止连堂规则
func NewNoBackToBackConstraint() *NoBackToBackConstraint {
	return &NoBackToBackConstraint{
		BaseConstraint: NewBaseConstraint("同课程禁止连堂", constraint.TypeNoBackToBack, constraint.CategoryHard, 60),
	}
}

type batchDayKey struct {
	batch model.Batch
	day   string
}

// Evaluate 评估整张课表，相邻（前一节结束即后一节开始）且课程相同计为连堂
func (c *NoBackToBackConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	seen := make(map[batchDayKey]bool)
	for _, e := range ctx.Entries {
		key := batchDayKey{e.Batch(), e.Day}
		if seen[key] {
			continue
		}
		seen[key] = true

		day := dayEntries(ctx.BatchEntriesOn(key.batch, key.day))
		for i := 1; i < len(day); i++ {
			prev, cur := day[i-1], day[i]
			if prev.Course != cur.Course || !prev.Slot.Adjacent(cur.Slot) {
				continue
			}
			totalPenalty += c.Weight()
			violations = append(violations, c.CreateViolation(cur,
				fmt.Sprintf("%s 的 %s 在 %s %s 与 %s 连堂", cur.Batch(), cur.Course, cur.Day, prev.Slot, cur.Slot),
				c.Weight(), prev))
		}
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateEntry 评估单条记录
func (c *NoBackToBackConstraint) EvaluateEntry(ctx *constraint.Context, e *model.Entry) (bool, int) {
	for _, other := range ctx.BatchEntriesOn(e.Batch(), e.Day) {
		if other.ID == e.ID || other.Course != e.Course {
			continue
		}
		if other.Slot.Adjacent(e.Slot) || e.Slot.Adjacent(other.Slot) {
			return false, c.Weight()
		}
	}
	return true, 0
}

func sortByStart(entries []*model.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Slot.Start < entries[j].Slot.Start
	})
}
