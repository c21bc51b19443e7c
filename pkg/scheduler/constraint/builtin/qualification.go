package builtin

import (
	"fmt"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
)

// QualificationConstraint 授课教师必须具备该课程、类型和专业的授课资格
type QualificationConstraint struct {
	*BaseConstraint
}

// NewQualificationConstraint 创建授课资格规则
func NewQualificationConstraint() *QualificationConstraint {
	return &QualificationConstraint{
		BaseConstraint: NewBaseConstraint("授课资格", constraint.TypeQualification, constraint.CategoryHard, 100),
	}
}

// Evaluate 评估整张课表。上下文中没有教师名单时跳过
func (c *QualificationConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	if len(ctx.Teachers) == 0 {
		return true, 0, nil
	}

	for _, e := range ctx.Entries {
		ok, penalty := c.EvaluateEntry(ctx, e)
		if ok {
			continue
		}
		totalPenalty += penalty
		msg := fmt.Sprintf("教师 %s 不能为 %s 讲授 %s[%s]", e.Teacher, e.Branch, e.Course, e.Type)
		if ctx.GetTeacher(e.Teacher) == nil {
			msg = fmt.Sprintf("教师 %s 不在教师名单中", e.Teacher)
		}
		violations = append(violations, c.CreateViolation(e, msg, penalty))
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateEntry 评估单条记录
func (c *QualificationConstraint) EvaluateEntry(ctx *constraint.Context, e *model.Entry) (bool, int) {
	if len(ctx.Teachers) == 0 {
		return true, 0
	}
	t := ctx.GetTeacher(e.Teacher)
	if t == nil || !t.Teaches(e.Course, e.Type, e.Branch) {
		return false, c.Weight()
	}
	return true, 0
}
