package model

import (
	"fmt"
	"strings"
	"time"
)

// SessionType 课程类型
type SessionType string

const (
	SessionLecture  SessionType = "lecture"  // 理论课
	SessionLab      SessionType = "lab"      // 实验课
	SessionCombined SessionType = "combined" // 理论+实验
)

// SessionTypes 返回全部课程类型
func SessionTypes() []SessionType {
	return []SessionType{SessionLecture, SessionLab, SessionCombined}
}

// ParseSessionType 解析课程类型，兼容课程目录中的 non/both 写法
func ParseSessionType(s string) (SessionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lecture", "non", "theory":
		return SessionLecture, nil
	case "lab":
		return SessionLab, nil
	case "combined", "both":
		return SessionCombined, nil
	default:
		return "", fmt.Errorf("未知课程类型: %q", s)
	}
}

// IsLab 是否为实验课
func (t SessionType) IsLab() bool {
	return t == SessionLab
}

// Valid 是否为已知类型
func (t SessionType) Valid() bool {
	switch t {
	case SessionLecture, SessionLab, SessionCombined:
		return true
	}
	return false
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (t *SessionType) UnmarshalText(text []byte) error {
	parsed, err := ParseSessionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// SessionRule 课程类型规则：单次时长与每周次数
type SessionRule struct {
	Duration    time.Duration `json:"duration" yaml:"duration"`
	WeeklyCount int           `json:"weekly_count" yaml:"weekly_count"`
}

// SessionRules 各课程类型的规则表
type SessionRules struct {
	Lecture  SessionRule `json:"lecture" yaml:"lecture"`
	Lab      SessionRule `json:"lab" yaml:"lab"`
	Combined SessionRule `json:"combined" yaml:"combined"`
}

// DefaultSessionRules 默认规则：均为一小时，每周 3/2/4 次
func DefaultSessionRules() SessionRules {
	return SessionRules{
		Lecture:  SessionRule{Duration: time.Hour, WeeklyCount: 3},
		Lab:      SessionRule{Duration: time.Hour, WeeklyCount: 2},
		Combined: SessionRule{Duration: time.Hour, WeeklyCount: 4},
	}
}

// For 返回指定类型的规则
func (r SessionRules) For(t SessionType) SessionRule {
	switch t {
	case SessionLab:
		return r.Lab
	case SessionCombined:
		return r.Combined
	default:
		return r.Lecture
	}
}

// CourseOffering 课程目录中的一行
type CourseOffering struct {
	Year     string      `json:"year" yaml:"year" db:"year"`
	Branch   string      `json:"branch" yaml:"branch" db:"branch"`
	Course   string      `json:"course" yaml:"course" db:"course"`
	Type     SessionType `json:"type" yaml:"type" db:"session_type"`
	Semester string      `json:"semester,omitempty" yaml:"semester,omitempty" db:"semester"`
}

// Batch 返回所属班级
func (o CourseOffering) Batch() Batch {
	return Batch{Year: o.Year, Branch: o.Branch}
}

// SessionRequirement 一门课程每周需要安排的课次
type SessionRequirement struct {
	Year        string        `json:"year"`
	Branch      string        `json:"branch"`
	Course      string        `json:"course"`
	Type        SessionType   `json:"type"`
	WeeklyCount int           `json:"weekly_count"`
	Duration    time.Duration `json:"duration"`
}

// NewSessionRequirement 由课程目录和规则表生成需求
func NewSessionRequirement(o CourseOffering, rules SessionRules) SessionRequirement {
	rule := rules.For(o.Type)
	return SessionRequirement{
		Year:        o.Year,
		Branch:      o.Branch,
		Course:      o.Course,
		Type:        o.Type,
		WeeklyCount: rule.WeeklyCount,
		Duration:    rule.Duration,
	}
}

// Batch 返回所属班级
func (r SessionRequirement) Batch() Batch {
	return Batch{Year: r.Year, Branch: r.Branch}
}

func (r SessionRequirement) String() string {
	return fmt.Sprintf("%s[%s] %s", r.Course, r.Type, r.Batch())
}
