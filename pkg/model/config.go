package model

import "time"

// ConstraintConfig 一次组装/校验使用的排课规则快照，引擎只读
type ConstraintConfig struct {
	WorkingDays []string `json:"working_days" yaml:"working_days"`
	DayStart    Clock    `json:"day_start" yaml:"day_start"`
	DayEnd      Clock    `json:"day_end" yaml:"day_end"`
	LunchStart  Clock    `json:"lunch_start" yaml:"lunch_start"`
	LunchEnd    Clock    `json:"lunch_end" yaml:"lunch_end"`

	// SlotLength 课表网格的单格时长
	SlotLength time.Duration `json:"slot_length" yaml:"slot_length"`

	MaxClassesPerTeacherPerDay int  `json:"max_classes_per_teacher_per_day" yaml:"max_classes_per_teacher_per_day"`
	NoBackToBackSameCourse     bool `json:"no_back_to_back_same_course" yaml:"no_back_to_back_same_course"`

	// ExclusiveLabs 为 true 时同一时间段全校只允许一节实验课
	ExclusiveLabs bool `json:"exclusive_labs" yaml:"exclusive_labs"`

	SessionRules SessionRules `json:"session_rules" yaml:"session_rules"`

	// Years 年级展示顺序
	Years []string `json:"years,omitempty" yaml:"years,omitempty"`
}

// DefaultConstraintConfig 默认规则：周一至周五 08:30-17:15，午休 12:30-13:15，实验课时段独占
func DefaultConstraintConfig() *ConstraintConfig {
	return &ConstraintConfig{
		WorkingDays:                append([]string(nil), DefaultWorkingDays...),
		DayStart:                   NewClock(8, 30),
		DayEnd:                     NewClock(17, 15),
		LunchStart:                 NewClock(12, 30),
		LunchEnd:                   NewClock(13, 15),
		SlotLength:                 time.Hour,
		MaxClassesPerTeacherPerDay: 5,
		NoBackToBackSameCourse:     true,
		ExclusiveLabs:              true,
		SessionRules:               DefaultSessionRules(),
		Years:                      append([]string(nil), DefaultYears...),
	}
}

// Lunch 返回午休时间段
func (c *ConstraintConfig) Lunch() TimeSlot {
	return TimeSlot{Start: c.LunchStart, End: c.LunchEnd}
}

// WorkingHours 返回工作时间段
func (c *ConstraintConfig) WorkingHours() TimeSlot {
	return TimeSlot{Start: c.DayStart, End: c.DayEnd}
}

// IsWorkingDay 是否为工作日
func (c *ConstraintConfig) IsWorkingDay(day string) bool {
	return indexOf(c.WorkingDays, day) < len(c.WorkingDays)
}

// Ordering 返回展示顺序
func (c *ConstraintConfig) Ordering() Ordering {
	years := c.Years
	if len(years) == 0 {
		years = DefaultYears
	}
	return Ordering{Years: years, Days: c.WorkingDays}
}
