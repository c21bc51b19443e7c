package model

import (
	"sort"

	"github.com/google/uuid"
)

// Entry 一次已安排的课
type Entry struct {
	ID      uuid.UUID   `json:"id"`
	Year    string      `json:"year"`
	Branch  string      `json:"branch"`
	Course  string      `json:"course"`
	Teacher string      `json:"teacher"`
	Room    string      `json:"room"`
	Day     string      `json:"day"`
	Slot    TimeSlot    `json:"time"`
	Type    SessionType `json:"type"`
}

// NewEntry 为需求创建一条课表记录
func NewEntry(req SessionRequirement, teacher, room, day string, slot TimeSlot) *Entry {
	return &Entry{
		ID:      uuid.New(),
		Year:    req.Year,
		Branch:  req.Branch,
		Course:  req.Course,
		Teacher: teacher,
		Room:    room,
		Day:     day,
		Slot:    slot,
		Type:    req.Type,
	}
}

// Batch 返回所属班级
func (e *Entry) Batch() Batch {
	return Batch{Year: e.Year, Branch: e.Branch}
}

// Key 返回 (星期, 时间段)
func (e *Entry) Key() SlotKey {
	return SlotKey{Day: e.Day, Slot: e.Slot}
}

// Clone 复制记录
func (e *Entry) Clone() *Entry {
	c := *e
	return &c
}

// Candidate 一份完整课表方案
type Candidate struct {
	Entries []*Entry `json:"entries"`
	Score   float64  `json:"score"`
}

// NewCandidate 创建方案
func NewCandidate(entries []*Entry) *Candidate {
	return &Candidate{Entries: entries}
}

// Len 返回记录数
func (c *Candidate) Len() int {
	return len(c.Entries)
}

// Clone 深拷贝方案
func (c *Candidate) Clone() *Candidate {
	return &Candidate{Entries: CloneEntries(c.Entries), Score: c.Score}
}

// Fork 复制记录切片，记录本身共享，修改前须先 Clone 对应记录
func (c *Candidate) Fork() *Candidate {
	entries := make([]*Entry, len(c.Entries))
	copy(entries, c.Entries)
	return &Candidate{Entries: entries, Score: c.Score}
}

// CloneEntries 深拷贝记录列表
func CloneEntries(entries []*Entry) []*Entry {
	out := make([]*Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

// Ordering 课表展示顺序
type Ordering struct {
	Years []string
	Days  []string
}

// DefaultOrdering 默认展示顺序
func DefaultOrdering() Ordering {
	return Ordering{Years: DefaultYears, Days: DefaultWorkingDays}
}

// SortEntries 按 年级、专业、星期、开始时间 排序
func SortEntries(entries []*Entry, o Ordering) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if ya, yb := indexOf(o.Years, a.Year), indexOf(o.Years, b.Year); ya != yb {
			return ya < yb
		}
		if a.Branch != b.Branch {
			return a.Branch < b.Branch
		}
		if da, db := indexOf(o.Days, a.Day), indexOf(o.Days, b.Day); da != db {
			return da < db
		}
		return a.Slot.Start < b.Slot.Start
	})
}

// FindEntry 按 ID 查找记录
func FindEntry(entries []*Entry, id uuid.UUID) (int, *Entry) {
	for i, e := range entries {
		if e.ID == id {
			return i, e
		}
	}
	return -1, nil
}
