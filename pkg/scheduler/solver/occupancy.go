package solver

import (
	"github.com/paiban/kebiao/pkg/model"
)

type teacherDay struct {
	teacher string
	day     string
}

// OccupancyIndex 记录每个 (星期, 时间段) 已安排的课，每次组装尝试重建
type OccupancyIndex struct {
	exclusiveLabs bool
	bySlot        map[model.SlotKey][]*model.Entry
	load          map[teacherDay]int
	size          int
}

// NewOccupancyIndex 创建占用索引
func NewOccupancyIndex(cfg *model.ConstraintConfig) *OccupancyIndex {
	idx := &OccupancyIndex{
		bySlot: make(map[model.SlotKey][]*model.Entry),
		load:   make(map[teacherDay]int),
	}
	if cfg != nil {
		idx.exclusiveLabs = cfg.ExclusiveLabs
	}
	return idx
}

// Add 登记一条记录
func (idx *OccupancyIndex) Add(e *model.Entry) {
	key := e.Key()
	idx.bySlot[key] = append(idx.bySlot[key], e)
	idx.load[teacherDay{e.Teacher, e.Day}]++
	idx.size++
}

// Conflict 返回同一时间段内与 e 冲突的第一条记录：同一教师、同一教室、同一班级，
// 或在实验室独占模式下的另一节实验课
func (idx *OccupancyIndex) Conflict(e *model.Entry) *model.Entry {
	for _, other := range idx.bySlot[e.Key()] {
		if other.ID == e.ID {
			continue
		}
		switch {
		case other.Teacher == e.Teacher,
			other.Room == e.Room,
			other.Year == e.Year && other.Branch == e.Branch:
			return other
		case idx.exclusiveLabs && other.Type.IsLab() && e.Type.IsLab():
			return other
		}
	}
	return nil
}

// TeacherLoad 返回教师某天已安排的课数
func (idx *OccupancyIndex) TeacherLoad(teacher, day string) int {
	return idx.load[teacherDay{teacher, day}]
}

// Len 返回已登记记录数
func (idx *OccupancyIndex) Len() int {
	return idx.size
}
