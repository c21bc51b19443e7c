package timetable

import (
	"context"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/solver"
)

// ConfigProvider 提供排课规则
type ConfigProvider interface {
	ConstraintConfig(ctx context.Context) (*model.ConstraintConfig, error)
}

// ResourcePool 提供课程目录、教师与教室
type ResourcePool interface {
	Offerings(ctx context.Context) ([]model.CourseOffering, error)
	Teachers(ctx context.Context) ([]*model.Teacher, error)
	Rooms(ctx context.Context) ([]*model.Room, error)
	Labs(ctx context.Context) ([]*model.Room, error)
}

// StaticSource 内存中的规则与资源，同时实现 ConfigProvider 和 ResourcePool
type StaticSource struct {
	Config  *model.ConstraintConfig
	Catalog []model.CourseOffering
	Pool    solver.Resources
}

// NewStaticSource 由组装输入创建
func NewStaticSource(in *solver.Input) *StaticSource {
	return &StaticSource{Config: in.Config, Catalog: in.Offerings, Pool: in.Resources}
}

// ConstraintConfig 实现 ConfigProvider
func (s *StaticSource) ConstraintConfig(ctx context.Context) (*model.ConstraintConfig, error) {
	return s.Config, nil
}

// Offerings 实现 ResourcePool
func (s *StaticSource) Offerings(ctx context.Context) ([]model.CourseOffering, error) {
	return s.Catalog, nil
}

// Teachers 实现 ResourcePool
func (s *StaticSource) Teachers(ctx context.Context) ([]*model.Teacher, error) {
	return s.Pool.Teachers, nil
}

// Rooms 实现 ResourcePool
func (s *StaticSource) Rooms(ctx context.Context) ([]*model.Room, error) {
	return s.Pool.Rooms, nil
}

// Labs 实现 ResourcePool
func (s *StaticSource) Labs(ctx context.Context) ([]*model.Room, error) {
	return s.Pool.Labs, nil
}

// LoadInput 从规则与资源来源读取一次组装所需的全部输入
func LoadInput(ctx context.Context, cp ConfigProvider, pool ResourcePool) (*solver.Input, error) {
	cfg, err := cp.ConstraintConfig(ctx)
	if err != nil {
		return nil, err
	}
	in := &solver.Input{Config: cfg}
	if in.Offerings, err = pool.Offerings(ctx); err != nil {
		return nil, err
	}
	if in.Resources.Teachers, err = pool.Teachers(ctx); err != nil {
		return nil, err
	}
	if in.Resources.Rooms, err = pool.Rooms(ctx); err != nil {
		return nil, err
	}
	if in.Resources.Labs, err = pool.Labs(ctx); err != nil {
		return nil, err
	}
	return in, nil
}
