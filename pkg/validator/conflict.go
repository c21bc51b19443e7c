// Package validator 提供课表冲突检测
package validator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/paiban/kebiao/pkg/model"
)

// ConflictType 冲突类型
type ConflictType string

const (
	ConflictTeacher ConflictType = "teacher" // 教师同时段重复
	ConflictRoom    ConflictType = "room"    // 教室同时段重复
	ConflictBatch   ConflictType = "batch"   // 班级同时段重复
)

// Conflict 冲突信息
type Conflict struct {
	Type    ConflictType   `json:"type"`
	Day     string         `json:"day"`
	Slot    model.TimeSlot `json:"time"`
	Message string         `json:"message"`
	// Entries 依次为后出现的记录与先占用的记录
	Entries []uuid.UUID `json:"entries"`
}

// ConflictDetector 冲突检测器，无状态
type ConflictDetector struct{}

// NewConflictDetector 创建冲突检测器
func NewConflictDetector() *ConflictDetector {
	return &ConflictDetector{}
}

type teacherKey struct {
	teacher string
	slot    model.SlotKey
}

type roomKey struct {
	room string
	slot model.SlotKey
}

type batchKey struct {
	batch model.Batch
	slot  model.SlotKey
}

// DetectAll 按顺序扫描全部记录，每个 (资源, 星期, 时间段) 由第一条记录占用，
// 之后占用同一键的记录各产生一条冲突。结果顺序确定
func (d *ConflictDetector) DetectAll(entries []*model.Entry) []Conflict {
	teachers := make(map[teacherKey]*model.Entry)
	rooms := make(map[roomKey]*model.Entry)
	batches := make(map[batchKey]*model.Entry)

	var conflicts []Conflict
	for _, e := range entries {
		slot := e.Key()

		tk := teacherKey{e.Teacher, slot}
		if prev, ok := teachers[tk]; ok {
			conflicts = append(conflicts, teacherConflict(e, prev))
		} else {
			teachers[tk] = e
		}

		rk := roomKey{e.Room, slot}
		if prev, ok := rooms[rk]; ok {
			conflicts = append(conflicts, roomConflict(e, prev))
		} else {
			rooms[rk] = e
		}

		bk := batchKey{e.Batch(), slot}
		if prev, ok := batches[bk]; ok {
			conflicts = append(conflicts, batchConflict(e, prev))
		} else {
			batches[bk] = e
		}
	}
	return conflicts
}

// DetectForEntry 查找与 e 同一时间段且共用教室、教师或班级的第一条其他记录。
// 教室冲突优先于教师冲突，教师冲突优先于班级冲突
func (d *ConflictDetector) DetectForEntry(e *model.Entry, others []*model.Entry) *Conflict {
	for _, other := range others {
		if other.ID == e.ID || other.Day != e.Day || other.Slot != e.Slot {
			continue
		}
		var c Conflict
		switch {
		case other.Room == e.Room:
			c = roomConflict(e, other)
		case other.Teacher == e.Teacher:
			c = teacherConflict(e, other)
		case other.Year == e.Year && other.Branch == e.Branch:
			c = batchConflict(e, other)
		default:
			continue
		}
		return &c
	}
	return nil
}

// Messages 提取冲突描述
func Messages(conflicts []Conflict) []string {
	out := make([]string, len(conflicts))
	for i, c := range conflicts {
		out[i] = c.Message
	}
	return out
}

// Count 按类型统计冲突数
func Count(conflicts []Conflict) map[ConflictType]int {
	out := make(map[ConflictType]int)
	for _, c := range conflicts {
		out[c.Type]++
	}
	return out
}

func teacherConflict(e, prev *model.Entry) Conflict {
	return Conflict{
		Type: ConflictTeacher,
		Day:  e.Day,
		Slot: e.Slot,
		Message: fmt.Sprintf("无法在 %s %s 安排 %s（教师 %s）：该教师已在教室 %s 为 %s 讲授 %s",
			e.Day, e.Slot, e.Course, e.Teacher, prev.Room, prev.Batch(), prev.Course),
		Entries: []uuid.UUID{e.ID, prev.ID},
	}
}

func roomConflict(e, prev *model.Entry) Conflict {
	return Conflict{
		Type: ConflictRoom,
		Day:  e.Day,
		Slot: e.Slot,
		Message: fmt.Sprintf("无法在 %s %s 于教室 %s 安排 %s：教室已被 %s 占用（教师 %s，%s）",
			e.Day, e.Slot, e.Room, e.Course, prev.Course, prev.Teacher, prev.Batch()),
		Entries: []uuid.UUID{e.ID, prev.ID},
	}
}

func batchConflict(e, prev *model.Entry) Conflict {
	return Conflict{
		Type: ConflictBatch,
		Day:  e.Day,
		Slot: e.Slot,
		Message: fmt.Sprintf("无法在 %s %s 为 %s 安排 %s：该班级已有 %s（教师 %s，教室 %s）",
			e.Day, e.Slot, e.Batch(), e.Course, prev.Course, prev.Teacher, prev.Room),
		Entries: []uuid.UUID{e.ID, prev.ID},
	}
}
