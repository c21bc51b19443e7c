package builtin

import (
	"fmt"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
)

// SessionDurationConstraint 课次时长必须符合课程类型规则
type SessionDurationConstraint struct {
	*BaseConstraint
	rules model.SessionRules
}

// NewSessionDurationConstraint 创建课次时长规则
func NewSessionDurationConstraint(rules model.SessionRules) *SessionDurationConstraint {
	return &SessionDurationConstraint{
		BaseConstraint: NewBaseConstraint("课次时长", constraint.TypeSessionDuration, constraint.CategoryHard, 60),
		rules:          rules,
	}
}

// Evaluate 评估整张课表
func (c *SessionDurationConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, e := range ctx.Entries {
		if ok, penalty := c.EvaluateEntry(ctx, e); !ok {
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(e,
				fmt.Sprintf("%s（%s）时长 %s，应为 %s", e.Course, e.Batch(), e.Slot.Duration(), c.rules.For(e.Type).Duration),
				penalty))
		}
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateEntry 评估单条记录
func (c *SessionDurationConstraint) EvaluateEntry(ctx *constraint.Context, e *model.Entry) (bool, int) {
	want := c.rules.For(e.Type).Duration
	if want > 0 && e.Slot.Duration() != want {
		return false, c.Weight()
	}
	return true, 0
}
