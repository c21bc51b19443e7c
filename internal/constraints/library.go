// Package constraints 课表规则库说明
package constraints

import (
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
	"github.com/paiban/kebiao/pkg/scheduler/constraint/builtin"
)

// ConstraintParam 规则参数定义
type ConstraintParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // int, float, string, bool, duration, clock
	Description string `json:"description"`
	Default     string `json:"default,omitempty"`
	Min         string `json:"min,omitempty"`
	Max         string `json:"max,omitempty"`
}

// ConstraintDefinition 规则定义
type ConstraintDefinition struct {
	Name        constraint.Type     `json:"name"`
	DisplayName string              `json:"display_name"`
	Type        constraint.Category `json:"type"`
	Category    string              `json:"category"`
	Description string              `json:"description"`
	Weight      int                 `json:"weight"`
	Enabled     bool                `json:"enabled"`
	Params      []ConstraintParam   `json:"params"`
}

// LibraryResponse 规则库响应
type LibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

// GetLibrary 获取完整的规则库，Enabled 均为 false
func GetLibrary() []ConstraintDefinition {
	return []ConstraintDefinition{
		// 冲突
		{
			Name:        constraint.TypeTeacherClash,
			DisplayName: "教师冲突",
			Type:        constraint.CategoryHard,
			Category:    "冲突检测",
			Description: "同一教师在同一时间段只能上一节课。",
			Weight:      100,
		},
		{
			Name:        constraint.TypeRoomClash,
			DisplayName: "教室冲突",
			Type:        constraint.CategoryHard,
			Category:    "冲突检测",
			Description: "同一教室在同一时间段只能安排一节课。",
			Weight:      100,
		},
		{
			Name:        constraint.TypeBatchClash,
			DisplayName: "班级冲突",
			Type:        constraint.CategoryHard,
			Category:    "冲突检测",
			Description: "同一年级专业在同一时间段只能上一节课。",
			Weight:      100,
		},
		{
			Name:        constraint.TypeLabExclusive,
			DisplayName: "实验课时段独占",
			Type:        constraint.CategoryHard,
			Category:    "冲突检测",
			Description: "开启后同一时间段最多安排一节实验课。",
			Weight:      90,
			Params: []ConstraintParam{
				{Name: "exclusive_labs", Type: "bool", Description: "是否开启", Default: "true"},
			},
		},

		// 时间
		{
			Name:        constraint.TypeWorkingHours,
			DisplayName: "上课时间",
			Type:        constraint.CategoryHard,
			Category:    "时间范围",
			Description: "课次必须落在工作日的上课时间之内。",
			Weight:      100,
			Params: []ConstraintParam{
				{Name: "working_days", Type: "array", Description: "工作日", Default: "Monday,Tuesday,Wednesday,Thursday,Friday"},
				{Name: "slot_length", Type: "duration", Description: "单格时长", Default: "1h"},
				{Name: "day_start", Type: "clock", Description: "上课开始", Default: "08:30"},
				{Name: "day_end", Type: "clock", Description: "上课结束", Default: "17:15"},
			},
		},
		{
			Name:        constraint.TypeLunchBreak,
			DisplayName: "午休时间",
			Type:        constraint.CategoryHard,
			Category:    "时间范围",
			Description: "课次不得与午休时间重叠。",
			Weight:      90,
			Params: []ConstraintParam{
				{Name: "lunch_start", Type: "clock", Description: "午休开始", Default: "12:30"},
				{Name: "lunch_end", Type: "clock", Description: "午休结束", Default: "13:15"},
			},
		},
		{
			Name:        constraint.TypeSessionDuration,
			DisplayName: "课次时长",
			Type:        constraint.CategoryHard,
			Category:    "时间范围",
			Description: "理论课与实验课的时长必须符合课次规则。",
			Weight:      60,
			Params: []ConstraintParam{
				{Name: "session_rules.lecture.duration", Type: "duration", Description: "理论课时长", Default: "1h"},
				{Name: "session_rules.lab.duration", Type: "duration", Description: "实验课时长", Default: "1h"},
				{Name: "session_rules.combined.duration", Type: "duration", Description: "综合课时长", Default: "1h"},
			},
		},

		// 课量
		{
			Name:        constraint.TypeWeeklyCount,
			DisplayName: "每周课次上限",
			Type:        constraint.CategoryHard,
			Category:    "课量限制",
			Description: "每个班级每门课程每种课型每周的课次不超过规定数量。",
			Weight:      70,
			Params: []ConstraintParam{
				{Name: "session_rules.lecture.weekly_count", Type: "int", Description: "理论课每周课次", Default: "3", Min: "1"},
				{Name: "session_rules.lab.weekly_count", Type: "int", Description: "实验课每周课次", Default: "2", Min: "1"},
				{Name: "session_rules.combined.weekly_count", Type: "int", Description: "综合课每周课次", Default: "4", Min: "1"},
			},
		},
		{
			Name:        constraint.TypeTeacherDailyLoad,
			DisplayName: "教师每日课时上限",
			Type:        constraint.CategoryHard,
			Category:    "课量限制",
			Description: "教师每天的课次不超过上限，上限为 0 时不限制。",
			Weight:      80,
			Params: []ConstraintParam{
				{Name: "max_classes_per_teacher_per_day", Type: "int", Description: "每日上限", Default: "5", Min: "0"},
			},
		},
		{
			Name:        constraint.TypeNoBackToBack,
			DisplayName: "同课程禁止连堂",
			Type:        constraint.CategoryHard,
			Category:    "课量限制",
			Description: "同一班级同一课程不得安排在首尾相接的两个时间段。",
			Weight:      60,
			Params: []ConstraintParam{
				{Name: "no_back_to_back_same_course", Type: "bool", Description: "是否开启", Default: "true"},
			},
		},
		{
			Name:        constraint.TypeQualification,
			DisplayName: "授课资格",
			Type:        constraint.CategoryHard,
			Category:    "资源匹配",
			Description: "教师必须具备该课程该课型的授课资格，并可限定授课专业。",
			Weight:      100,
		},

		// 软约束
		{
			Name:        constraint.TypeTeacherPreference,
			DisplayName: "教师时间偏好",
			Type:        constraint.CategorySoft,
			Category:    "偏好",
			Description: "尽量把课排在教师偏好的日期和时间段，避开回避时间。",
			Weight:      50,
			Params: []ConstraintParam{
				{Name: "preference_weight", Type: "int", Description: "优化权重", Default: "50", Min: "0", Max: "100"},
			},
		},
		{
			Name:        constraint.TypeWorkloadBalance,
			DisplayName: "教师课时均衡",
			Type:        constraint.CategorySoft,
			Category:    "公平性",
			Description: "教师之间的周课时和晚间课次尽量均衡。",
			Weight:      40,
			Params: []ConstraintParam{
				{Name: "workload_balance_weight", Type: "int", Description: "优化权重", Default: "40", Min: "0", Max: "100"},
				{Name: "workload_tolerance_percent", Type: "float", Description: "允许偏差百分比", Default: "30"},
				{Name: "late_from", Type: "clock", Description: "晚间课次起始时间", Default: "15:00"},
			},
		},
	}
}

// ForConfig 返回规则库，并按 cfg 标记实际生效的规则和权重
func ForConfig(cfg *model.ConstraintConfig, overrides map[string]interface{}) []ConstraintDefinition {
	manager := constraint.NewManager()
	builtin.RegisterDefaultConstraints(manager, cfg, overrides)

	lib := GetLibrary()
	for i := range lib {
		if c := manager.GetConstraint(lib[i].Name); c != nil {
			lib[i].Enabled = true
			lib[i].Weight = c.Weight()
		}
	}
	return lib
}

// GetByCategory 按分类获取规则
func GetByCategory(category string) []ConstraintDefinition {
	var result []ConstraintDefinition
	for _, c := range GetLibrary() {
		if c.Category == category {
			result = append(result, c)
		}
	}
	return result
}

// GetByName 按名称获取规则
func GetByName(name constraint.Type) *ConstraintDefinition {
	for _, c := range GetLibrary() {
		if c.Name == name {
			return &c
		}
	}
	return nil
}
