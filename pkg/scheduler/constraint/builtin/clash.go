package builtin

import (
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
	"github.com/paiban/kebiao/pkg/validator"
)

// ClashConstraint 同一时间段的资源冲突：教师、教室或班级被重复占用
type ClashConstraint struct {
	*BaseConstraint
	kind     validator.ConflictType
	detector *validator.ConflictDetector
}

// NewTeacherClashConstraint 教师同一时间段只能上一节课
func NewTeacherClashConstraint() *ClashConstraint {
	return newClash("教师时间冲突", constraint.TypeTeacherClash, validator.ConflictTeacher)
}

// NewRoomClashConstraint 教室同一时间段只能安排一节课
func NewRoomClashConstraint() *ClashConstraint {
	return newClash("教室时间冲突", constraint.TypeRoomClash, validator.ConflictRoom)
}

// NewBatchClashConstraint 班级同一时间段只能上一节课
func NewBatchClashConstraint() *ClashConstraint {
	return newClash("班级时间冲突", constraint.TypeBatchClash, validator.ConflictBatch)
}

func newClash(name string, typ constraint.Type, kind validator.ConflictType) *ClashConstraint {
	return &ClashConstraint{
		BaseConstraint: NewBaseConstraint(name, typ, constraint.CategoryHard, 100),
		kind:           kind,
		detector:       validator.NewConflictDetector(),
	}
}

// Evaluate 评估整张课表
func (c *ClashConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	for _, conflict := range c.detector.DetectAll(ctx.Entries) {
		if conflict.Type != c.kind {
			continue
		}
		totalPenalty += c.Weight()
		violations = append(violations, constraint.ViolationDetail{
			ConstraintType: c.Type(),
			ConstraintName: c.Name(),
			Day:            conflict.Day,
			Time:           conflict.Slot.String(),
			Entries:        conflict.Entries,
			Message:        conflict.Message,
			Severity:       "error",
			Penalty:        c.Weight(),
		})
	}

	return len(violations) == 0, totalPenalty, violations
}

// EvaluateEntry 检查 e 与同一时间段已有记录是否冲突
func (c *ClashConstraint) EvaluateEntry(ctx *constraint.Context, e *model.Entry) (bool, int) {
	for _, other := range ctx.EntriesAt(e.Key()) {
		if other.ID == e.ID {
			continue
		}
		if c.clashes(e, other) {
			return false, c.Weight()
		}
	}
	return true, 0
}

func (c *ClashConstraint) clashes(a, b *model.Entry) bool {
	switch c.kind {
	case validator.ConflictTeacher:
		return a.Teacher == b.Teacher
	case validator.ConflictRoom:
		return a.Room == b.Room
	default:
		return a.Batch() == b.Batch()
	}
}
