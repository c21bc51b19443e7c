package builtin

import (
	"fmt"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
)

// LunchBreakConstraint 课次不得占用午休
type LunchBreakConstraint struct {
	*BaseConstraint
	lunch model.TimeSlot
}

// NewLunchBreakConstraint 创建午休规则
func NewLunchBreakConstraint(lunch model.TimeSlot) *LunchBreakConstraint {
	return &LunchBreakConstraint{
		BaseConstraint: NewBaseConstraint("午休时间", constraint.TypeLunchBreak, constraint.CategoryHard, 90),
		lunch:          lunch,
	}
}

// Evaluate 评估整张课表
func (c *LunchBreakConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, e := range ctx.Entries {
		if ok, penalty := c.EvaluateEntry(ctx, e); !ok {
			totalPenalty += penalty
			violations = append(violations, c.CreateViolation(e,
				fmt.Sprintf("%s（%s）在 %s %s 占用午休 %s", e.Course, e.Batch(), e.Day, e.Slot, c.lunch),
				penalty))
		}
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateEntry 评估单条记录
func (c *LunchBreakConstraint) EvaluateEntry(ctx *constraint.Context, e *model.Entry) (bool, int) {
	if c.lunch.Duration() > 0 && e.Slot.Overlaps(c.lunch) {
		return false, c.Weight()
	}
	return true, 0
}

// WorkingHoursConstraint 课次必须在工作日的上课时间内
type WorkingHoursConstraint struct {
	*BaseConstraint
	cfg *model.ConstraintConfig
}

// NewWorkingHoursConstraint 创建上课时间规则
func NewWorkingHoursConstraint(cfg *model.ConstraintConfig) *WorkingHoursConstraint {
	return &WorkingHoursConstraint{
		BaseConstraint: NewBaseConstraint("上课时间", constraint.TypeWorkingHours, constraint.CategoryHard, 100),
		cfg:            cfg,
	}
}

// Evaluate 评估整张课表
func (c *WorkingHoursConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	hours := c.cfg.WorkingHours()
	for _, e := range ctx.Entries {
		ok, penalty := c.EvaluateEntry(ctx, e)
		if ok {
			continue
		}
		totalPenalty += penalty
		msg := fmt.Sprintf("%s（%s）的时间 %s 超出上课时间 %s", e.Course, e.Batch(), e.Slot, hours)
		if !c.cfg.IsWorkingDay(e.Day) {
			msg = fmt.Sprintf("%s（%s）安排在非工作日 %s", e.Course, e.Batch(), e.Day)
		}
		violations = append(violations, c.CreateViolation(e, msg, penalty))
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateEntry 评估单条记录
func (c *WorkingHoursConstraint) EvaluateEntry(ctx *constraint.Context, e *model.Entry) (bool, int) {
	if !c.cfg.IsWorkingDay(e.Day) {
		return false, c.Weight()
	}
	if e.Slot.Start < c.cfg.DayStart || e.Slot.End > c.cfg.DayEnd || e.Slot.End <= e.Slot.Start {
		return false, c.Weight()
	}
	return true, 0
}
