package timetable

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/logger"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
	"github.com/paiban/kebiao/pkg/scheduler/constraint/builtin"
	"github.com/paiban/kebiao/pkg/scheduler/slots"
	"github.com/paiban/kebiao/pkg/validator"
)

// MoveRequest 把一条记录移动到新的星期和时间段
type MoveRequest struct {
	EntryID uuid.UUID      `json:"entry_id" validate:"required"`
	Day     string         `json:"day" validate:"required"`
	Slot    model.TimeSlot `json:"time"`
}

// Destination 目标位置描述
func (r MoveRequest) Destination() string {
	return fmt.Sprintf("%s %s", r.Day, r.Slot)
}

// MoveResult 调整结果。被拒绝是正常结果，不是错误
type MoveResult struct {
	Committed bool                        `json:"committed"`
	Reason    string                      `json:"reason,omitempty"`
	Conflict  *validator.Conflict         `json:"conflict,omitempty"`
	// Violation 目标时间本身不合规（非工作日、午休、时长、不在网格上）
	Violation *constraint.ViolationDetail `json:"violation,omitempty"`
	Entry     *model.Entry                `json:"entry,omitempty"`
	Version   int64                       `json:"version"`
}

// MoveController 单条记录调整的准入控制
type MoveController struct {
	store    *Store
	detector *validator.ConflictDetector
	logger   *logger.SchedulerLogger
}

// NewMoveController 创建准入控制器
func NewMoveController(store *Store) *MoveController {
	return &MoveController{
		store:    store,
		detector: validator.NewConflictDetector(),
		logger:   logger.NewSchedulerLogger(),
	}
}

// SetLogger 设置日志器
func (c *MoveController) SetLogger(l *logger.SchedulerLogger) {
	c.logger = l
}

// ProposeMove 在存储的临界区内检查并提交调整。
// 先检查目标时间是否落在规则允许的网格上，再检查目标位置上的占用，
// 最后对整张课表做冲突检测；任一失败都不改动存储。cfg 为空时使用默认规则
func (c *MoveController) ProposeMove(ctx context.Context, cfg *model.ConstraintConfig, req MoveRequest) (*MoveResult, error) {
	if req.Day == "" || req.Slot.IsZero() {
		return nil, apperrors.InvalidInput("time", "需要指定星期和时间段")
	}
	if cfg == nil {
		cfg = model.DefaultConstraintConfig()
	}
	grid := slots.Build(cfg)

	result := &MoveResult{}
	snap, committed, err := c.store.Update(ctx, func(working []*model.Entry) (bool, error) {
		_, e := model.FindEntry(working, req.EntryID)
		if e == nil {
			return false, apperrors.NotFound("课表记录", req.EntryID.String())
		}
		e.Day = req.Day
		e.Slot = req.Slot

		if v := slotViolation(cfg, grid, e); v != nil {
			result.Reason = v.Message
			result.Violation = v
			return false, nil
		}
		if conflict := c.admit(e, working); conflict != nil {
			result.Reason = conflict.Message
			result.Conflict = conflict
			return false, nil
		}
		result.Entry = e.Clone()
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	result.Committed = committed
	result.Version = snap.Version
	if committed {
		c.logger.MoveCommitted(req.EntryID.String(), req.Destination(), snap.Version)
	} else {
		c.logger.MoveRejected(req.EntryID.String(), req.Destination(), result.Reason)
	}
	return result, nil
}

// admit 返回阻止 e 落在当前位置的第一个冲突
func (c *MoveController) admit(e *model.Entry, working []*model.Entry) *validator.Conflict {
	if blocker := c.detector.DetectForEntry(e, working); blocker != nil {
		return blocker
	}
	if conflicts := c.detector.DetectAll(working); len(conflicts) > 0 {
		return &conflicts[0]
	}
	return nil
}

// slotViolation 检查记录的星期和时间段本身：工作日与上课时间、午休、课次时长，
// 以及是否为网格上的时间段
func slotViolation(cfg *model.ConstraintConfig, grid *slots.Template, e *model.Entry) *constraint.ViolationDetail {
	manager := constraint.NewManager()
	manager.Register(builtin.NewWorkingHoursConstraint(cfg))
	manager.Register(builtin.NewLunchBreakConstraint(cfg.Lunch()))
	manager.Register(builtin.NewSessionDurationConstraint(cfg.SessionRules))

	cctx := constraint.NewContext(cfg, nil)
	cctx.SetEntries([]*model.Entry{e})
	if res := manager.Evaluate(cctx); len(res.HardViolations) > 0 {
		v := res.HardViolations[0]
		return &v
	}

	if !grid.Contains(e.Day, e.Slot) {
		return &constraint.ViolationDetail{
			ConstraintType: constraint.TypeWorkingHours,
			ConstraintName: "时间段网格",
			Day:            e.Day,
			Time:           e.Slot.String(),
			Entries:        []uuid.UUID{e.ID},
			Message:        fmt.Sprintf("%s %s 不是课表网格上的时间段", e.Day, e.Slot),
			Severity:       "error",
		}
	}
	return nil
}
