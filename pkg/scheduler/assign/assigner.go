// Package assign 定义教师与教室分配策略
package assign

import (
	"github.com/paiban/kebiao/pkg/model"
)

// Request 待分配资源的课次描述
type Request struct {
	Course string
	Type   model.SessionType
	Year   string
	Branch string
}

// RequestFor 由排课需求构造分配请求
func RequestFor(req model.SessionRequirement) Request {
	return Request{Course: req.Course, Type: req.Type, Year: req.Year, Branch: req.Branch}
}

// ResourceAssigner 资源分配策略
// 两个方法都返回一个合格资源，或以 false 表示没有可用资源
type ResourceAssigner interface {
	AssignTeacher(req Request, candidates []*model.Teacher) (*model.Teacher, bool)
	AssignRoom(t model.SessionType, rooms, labs []*model.Room) (*model.Room, bool)
}

// QualificationAssigner 按授课资格分配：取候选列表中第一位能讲授该课程的教师
// 候选列表由调用方打乱顺序
type QualificationAssigner struct{}

// NewQualificationAssigner 创建资格分配器
func NewQualificationAssigner() *QualificationAssigner {
	return &QualificationAssigner{}
}

// AssignTeacher 分配教师
func (a *QualificationAssigner) AssignTeacher(req Request, candidates []*model.Teacher) (*model.Teacher, bool) {
	for _, t := range candidates {
		if t.Teaches(req.Course, req.Type, req.Branch) {
			return t, true
		}
	}
	return nil, false
}

// AssignRoom 分配教室：实验课从实验室中选，其余从普通教室中选
func (a *QualificationAssigner) AssignRoom(t model.SessionType, rooms, labs []*model.Room) (*model.Room, bool) {
	pool := rooms
	if t.IsLab() {
		pool = labs
	}
	if len(pool) == 0 {
		return nil, false
	}
	return pool[0], true
}
