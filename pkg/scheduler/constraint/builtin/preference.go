package builtin

import (
	"fmt"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
)

// TeacherPreferenceConstraint 教师时间偏好（软约束）
type TeacherPreferenceConstraint struct {
	*BaseConstraint
}

// NewTeacherPreferenceConstraint 创建教师偏好规则
func NewTeacherPreferenceConstraint(weight int) *TeacherPreferenceConstraint {
	return &TeacherPreferenceConstraint{
		BaseConstraint: NewBaseConstraint("教师时间偏好", constraint.TypeTeacherPreference, constraint.CategorySoft, weight),
	}
}

// Evaluate 评估整张课表
func (c *TeacherPreferenceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, e := range ctx.Entries {
		ok, penalty := c.EvaluateEntry(ctx, e)
		if ok {
			continue
		}
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(e,
			fmt.Sprintf("教师 %s 不希望在 %s %s 上课", e.Teacher, e.Day, e.Slot), penalty))
	}

	return true, totalPenalty, violations
}

// EvaluateEntry 评估单条记录
func (c *TeacherPreferenceConstraint) EvaluateEntry(ctx *constraint.Context, e *model.Entry) (bool, int) {
	t := ctx.GetTeacher(e.Teacher)
	if t == nil || !t.HasPreferences() || !t.PreferenceViolated(e.Slot) {
		return true, 0
	}
	return false, c.Weight() / 2
}
