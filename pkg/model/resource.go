package model

import "strings"

// Subject 教师可讲授的课程
type Subject struct {
	Course    string      `json:"course" yaml:"course"`
	Type      SessionType `json:"type" yaml:"type"`
	TeachesTo []string    `json:"teaches_to,omitempty" yaml:"teaches_to,omitempty"`
}

// Covers 检查该科目是否覆盖指定课程类型
func (s Subject) Covers(t SessionType) bool {
	if s.Type == t || s.Type == SessionCombined || t == SessionCombined {
		return true
	}
	return false
}

// ServesBranch 检查该科目是否面向指定专业（未限定则面向全部）
func (s Subject) ServesBranch(branch string) bool {
	if len(s.TeachesTo) == 0 {
		return true
	}
	for _, b := range s.TeachesTo {
		if b == branch {
			return true
		}
	}
	return false
}

// Teacher 教师
type Teacher struct {
	Name      string     `json:"name" yaml:"name"`
	Subjects  []Subject  `json:"subjects" yaml:"subjects"`
	Preferred []TimeSlot `json:"preferred,omitempty" yaml:"preferred,omitempty"`
	Avoid     []TimeSlot `json:"avoid,omitempty" yaml:"avoid,omitempty"`
}

// Teaches 检查教师能否为专业讲授该课程
func (t *Teacher) Teaches(course string, typ SessionType, branch string) bool {
	for _, s := range t.Subjects {
		if s.Course == course && s.Covers(typ) && s.ServesBranch(branch) {
			return true
		}
	}
	return false
}

// HasPreferences 是否声明了时间偏好
func (t *Teacher) HasPreferences() bool {
	return len(t.Preferred) > 0 || len(t.Avoid) > 0
}

// PreferenceViolated 检查时间段是否违反教师偏好：落入回避时段，或声明了偏好时段却不在其中
func (t *Teacher) PreferenceViolated(slot TimeSlot) bool {
	for _, a := range t.Avoid {
		if a.Overlaps(slot) {
			return true
		}
	}
	if len(t.Preferred) == 0 {
		return false
	}
	for _, p := range t.Preferred {
		if p.Overlaps(slot) {
			return false
		}
	}
	return true
}

// Room 教室或实验室
type Room struct {
	Name string `json:"name" yaml:"name" db:"name"`
	Lab  bool   `json:"lab" yaml:"lab" db:"is_lab"`
}

// IsLabName 按名称判断是否为实验室
func IsLabName(name string) bool {
	return strings.Contains(strings.ToLower(name), "lab")
}

// IndexTeachers 按姓名索引教师
func IndexTeachers(teachers []*Teacher) map[string]*Teacher {
	m := make(map[string]*Teacher, len(teachers))
	for _, t := range teachers {
		m[t.Name] = t
	}
	return m
}
