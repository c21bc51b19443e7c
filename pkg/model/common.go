// Package model 定义课表引擎的核心数据模型
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// 默认工作日与年级顺序
var (
	DefaultWorkingDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	DefaultYears       = []string{"firstYear", "secondYear", "thirdYear", "fourthYear"}
)

// Clock 一天中的时刻（自零点起的分钟数）
type Clock int

// NewClock 创建时刻
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ParseClock 解析 "HH:MM" 格式的时刻
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("时刻格式无效: %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("小时无效: %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("分钟无效: %q", s)
	}
	c := NewClock(h, m)
	if c > NewClock(24, 0) {
		return 0, fmt.Errorf("时刻超出一天范围: %q", s)
	}
	return c, nil
}

// MustClock 解析时刻，失败时 panic（仅用于常量和测试）
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Hour 返回小时
func (c Clock) Hour() int { return int(c) / 60 }

// Minute 返回分钟
func (c Clock) Minute() int { return int(c) % 60 }

// Add 返回增加指定时长后的时刻
func (c Clock) Add(d time.Duration) Clock {
	return c + Clock(d/time.Minute)
}

// Sub 返回两个时刻的差
func (c Clock) Sub(other Clock) time.Duration {
	return time.Duration(c-other) * time.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// MarshalText 实现 encoding.TextMarshaler
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TimeSlot 时间段 [Start, End)
type TimeSlot struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// NewTimeSlot 创建时间段
func NewTimeSlot(start Clock, length time.Duration) TimeSlot {
	return TimeSlot{Start: start, End: start.Add(length)}
}

// ParseTimeSlot 解析 "HH:MM-HH:MM" 格式的时间段
func ParseTimeSlot(s string) (TimeSlot, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return TimeSlot{}, fmt.Errorf("时间段格式无效: %q", s)
	}
	start, err := ParseClock(parts[0])
	if err != nil {
		return TimeSlot{}, err
	}
	end, err := ParseClock(parts[1])
	if err != nil {
		return TimeSlot{}, err
	}
	if end <= start {
		return TimeSlot{}, fmt.Errorf("时间段结束早于开始: %q", s)
	}
	return TimeSlot{Start: start, End: end}, nil
}

// Duration 返回时间段长度
func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps 检查两个时间段是否重叠
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Start < other.End && other.Start < s.End
}

// Contains 检查时刻是否落在时间段内
func (s TimeSlot) Contains(c Clock) bool {
	return c >= s.Start && c < s.End
}

// Adjacent 检查 other 是否紧接在 s 之后
func (s TimeSlot) Adjacent(other TimeSlot) bool {
	return s.End == other.Start
}

// IsZero 是否为空时间段
func (s TimeSlot) IsZero() bool {
	return s.Start == 0 && s.End == 0
}

func (s TimeSlot) String() string {
	return s.Start.String() + "-" + s.End.String()
}

// MarshalText 实现 encoding.TextMarshaler
func (s TimeSlot) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (s *TimeSlot) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeSlot(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// SlotKey 定位一个 (星期, 时间段)
type SlotKey struct {
	Day  string
	Slot TimeSlot
}

func (k SlotKey) String() string {
	return k.Day + " " + k.Slot.String()
}

// Batch 同时上课的班级单元（年级 + 专业）
type Batch struct {
	Year   string `json:"year"`
	Branch string `json:"branch"`
}

func (b Batch) String() string {
	return fmt.Sprintf("%s (%s)", b.Branch, YearLabel(b.Year))
}

// YearLabel 将 firstYear 形式的年级键转换为 "First Year"
func YearLabel(year string) string {
	if year == "" {
		return year
	}
	var b strings.Builder
	for i, r := range year {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// indexOf 返回 s 在列表中的位置，不存在时排在末尾
func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return len(list)
}
