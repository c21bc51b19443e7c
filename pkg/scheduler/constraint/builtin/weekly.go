package builtin

import (
	"fmt"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
)

// WeeklyCountConstraint 每个班级每门课每种类型的周课次不超过规则表
type WeeklyCountConstraint struct {
	*BaseConstraint
	rules model.SessionRules
}

// NewWeeklyCountConstraint 创建周课次规则
func NewWeeklyCountConstraint(rules model.SessionRules) *WeeklyCountConstraint {
	return &WeeklyCountConstraint{
		BaseConstraint: NewBaseConstraint("每周课次上限", constraint.TypeWeeklyCount, constraint.CategoryHard, 70),
		rules:          rules,
	}
}

type courseKey struct {
	batch  model.Batch
	course string
	typ    model.SessionType
}

func keyOf(e *model.Entry) courseKey {
	return courseKey{e.Batch(), e.Course, e.Type}
}

// Evaluate 评估整张课表
func (c *WeeklyCountConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	order := make([]courseKey, 0)
	groups := make(map[courseKey][]*model.Entry)
	for _, e := range ctx.Entries {
		k := keyOf(e)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}

	for _, k := range order {
		entries := groups[k]
		limit := c.rules.For(k.typ).WeeklyCount
		if len(entries) <= limit {
			continue
		}
		penalty := c.Weight() * (len(entries) - limit)
		totalPenalty += penalty
		v := c.CreateViolation(nil,
			fmt.Sprintf("%s 的 %s[%s] 每周安排了 %d 次，上限 %d 次", k.batch, k.course, k.typ, len(entries), limit),
			penalty)
		v.Entries = ids(entries...)
		violations = append(violations, v)
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateEntry 评估单条记录
func (c *WeeklyCountConstraint) EvaluateEntry(ctx *constraint.Context, e *model.Entry) (bool, int) {
	count := 1
	k := keyOf(e)
	for _, other := range ctx.Entries {
		if other.ID != e.ID && keyOf(other) == k {
			count++
		}
	}
	limit := c.rules.For(e.Type).WeeklyCount
	if count > limit {
		return false, c.Weight() * (count - limit)
	}
	return true, 0
}
