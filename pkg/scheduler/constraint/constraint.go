// Package constraint 定义课表规则接口和管理器
package constraint

import (
	"github.com/google/uuid"

	"github.com/paiban/kebiao/pkg/model"
)

// Type 规则类型标识
type Type string

const (
	// 硬约束类型
	TypeRoomClash        Type = "room_clash"
	TypeTeacherClash     Type = "teacher_clash"
	TypeBatchClash       Type = "batch_clash"
	TypeLabExclusive     Type = "lab_exclusive"
	TypeTeacherDailyLoad Type = "teacher_daily_load"
	TypeNoBackToBack     Type = "no_back_to_back"
	TypeWeeklyCount      Type = "weekly_count"
	TypeSessionDuration  Type = "session_duration"
	TypeLunchBreak       Type = "lunch_break"
	TypeWorkingHours     Type = "working_hours"
	TypeQualification    Type = "teacher_qualification"

	// 软约束类型
	TypeTeacherPreference Type = "teacher_preference"
	TypeWorkloadBalance   Type = "workload_balance"
)

// Category 规则类别
type Category string

const (
	CategoryHard Category = "hard" // 硬约束（必须满足）
	CategorySoft Category = "soft" // 软约束（尽量满足）
)

// Constraint 规则接口
type Constraint interface {
	// Name 返回规则名称
	Name() string

	// Type 返回规则类型
	Type() Type

	// Category 返回规则类别
	Category() Category

	// Weight 返回规则权重 (1-100)
	Weight() int

	// Evaluate 评估整张课表
	// 返回：是否满足、惩罚值、违反详情
	Evaluate(ctx *Context) (valid bool, penalty int, details []ViolationDetail)

	// EvaluateEntry 评估一条待加入的记录
	EvaluateEntry(ctx *Context, e *model.Entry) (valid bool, penalty int)
}

// ViolationDetail 规则违反详情
type ViolationDetail struct {
	ConstraintType Type        `json:"constraint_type"`
	ConstraintName string      `json:"constraint_name"`
	Day            string      `json:"day,omitempty"`
	Time           string      `json:"time,omitempty"`
	Entries        []uuid.UUID `json:"entries,omitempty"`
	Message        string      `json:"message"`
	Severity       string      `json:"severity"` // error/warning
	Penalty        int         `json:"penalty"`
}

type teacherDay struct {
	teacher string
	day     string
}

type batchDay struct {
	batch model.Batch
	day   string
}

// Context 规则检查上下文
type Context struct {
	Config   *model.ConstraintConfig
	Teachers []*model.Teacher

	// 当前课表
	Entries []*model.Entry

	// 索引缓存
	teacherMap       map[string]*model.Teacher
	entriesBySlot    map[model.SlotKey][]*model.Entry
	entriesByTeacher map[teacherDay][]*model.Entry
	entriesByBatch   map[batchDay][]*model.Entry
}

// NewContext 创建检查上下文，cfg 为空时使用默认规则
func NewContext(cfg *model.ConstraintConfig, teachers []*model.Teacher) *Context {
	if cfg == nil {
		cfg = model.DefaultConstraintConfig()
	}
	c := &Context{
		Config:     cfg,
		Teachers:   teachers,
		teacherMap: model.IndexTeachers(teachers),
	}
	c.rebuildIndexes()
	return c
}

// SetEntries 设置课表
func (c *Context) SetEntries(entries []*model.Entry) {
	c.Entries = entries
	c.rebuildIndexes()
}

// AddEntry 添加记录
func (c *Context) AddEntry(e *model.Entry) {
	c.Entries = append(c.Entries, e)
	c.index(e)
}

func (c *Context) rebuildIndexes() {
	c.entriesBySlot = make(map[model.SlotKey][]*model.Entry)
	c.entriesByTeacher = make(map[teacherDay][]*model.Entry)
	c.entriesByBatch = make(map[batchDay][]*model.Entry)
	for _, e := range c.Entries {
		c.index(e)
	}
}

func (c *Context) index(e *model.Entry) {
	c.entriesBySlot[e.Key()] = append(c.entriesBySlot[e.Key()], e)
	td := teacherDay{e.Teacher, e.Day}
	c.entriesByTeacher[td] = append(c.entriesByTeacher[td], e)
	bd := batchDay{e.Batch(), e.Day}
	c.entriesByBatch[bd] = append(c.entriesByBatch[bd], e)
}

// GetTeacher 按姓名获取教师
func (c *Context) GetTeacher(name string) *model.Teacher {
	return c.teacherMap[name]
}

// EntriesAt 获取某时间段的全部记录
func (c *Context) EntriesAt(key model.SlotKey) []*model.Entry {
	return c.entriesBySlot[key]
}

// TeacherEntriesOn 获取教师某天的记录
func (c *Context) TeacherEntriesOn(teacher, day string) []*model.Entry {
	return c.entriesByTeacher[teacherDay{teacher, day}]
}

// BatchEntriesOn 获取班级某天的记录
func (c *Context) BatchEntriesOn(batch model.Batch, day string) []*model.Entry {
	return c.entriesByBatch[batchDay{batch, day}]
}

// Result 规则评估结果
type Result struct {
	IsValid        bool              `json:"is_valid"`
	TotalPenalty   int               `json:"total_penalty"`
	HardViolations []ViolationDetail `json:"hard_violations"`
	SoftViolations []ViolationDetail `json:"soft_violations"`
	Score          float64           `json:"score"` // 0-100
}

// CalculateScore 计算规则满足度得分
func (r *Result) CalculateScore(maxPenalty int) {
	if maxPenalty == 0 {
		r.Score = 100.0
		return
	}
	r.Score = 100.0 * float64(maxPenalty-r.TotalPenalty) / float64(maxPenalty)
	if r.Score < 0 {
		r.Score = 0
	}
}

// Messages 返回全部硬约束违反描述
func (r *Result) Messages() []string {
	out := make([]string, 0, len(r.HardViolations))
	for _, v := range r.HardViolations {
		out = append(out, v.Message)
	}
	return out
}
