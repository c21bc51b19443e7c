// Package catalog 从 YAML 文件读取排课规则、课程目录、教师与教室
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
)

// 学期
const (
	SemesterOdd  = "odd"
	SemesterEven = "even"
)

// File 目录文件结构
//
//	constraints: {...}          # 可省略，缺省字段取默认值
//	semester: even              # 默认学期
//	courses:
//	  even:
//	    firstYear:
//	      CST:
//	        - {course: DE, type: non}
//	teachers: [...]
//	classrooms: ["011", "012"]
//	labs: ["IoT Lab"]
type File struct {
	Constraints *model.ConstraintConfig    `yaml:"constraints"`
	Semester    string                     `yaml:"semester"`
	Courses     map[string]SemesterCourses `yaml:"courses"`
	Teachers    []*model.Teacher           `yaml:"teachers"`
	Classrooms  []string                   `yaml:"classrooms"`
	Labs        []string                   `yaml:"labs"`
}

// SemesterCourses 一个学期的课程目录，保持文件中的 年级/专业 顺序
type SemesterCourses []model.CourseOffering

type courseItem struct {
	Course string            `yaml:"course"`
	Type   model.SessionType `yaml:"type"`
}

// UnmarshalYAML 展开 年级 -> 专业 -> 课程 的嵌套映射
func (s *SemesterCourses) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: courses must be a mapping of year to branches", node.Line)
	}
	var out SemesterCourses
	for i := 0; i+1 < len(node.Content); i += 2 {
		year := node.Content[i].Value
		branches := node.Content[i+1]
		if branches.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: year %q must map branches to courses", branches.Line, year)
		}
		for j := 0; j+1 < len(branches.Content); j += 2 {
			branch := branches.Content[j].Value
			var items []courseItem
			if err := branches.Content[j+1].Decode(&items); err != nil {
				return fmt.Errorf("%s/%s: %w", year, branch, err)
			}
			for _, it := range items {
				out = append(out, model.CourseOffering{
					Year:   year,
					Branch: branch,
					Course: it.Course,
					Type:   it.Type,
				})
			}
		}
	}
	*s = out
	return nil
}

// Catalog 已加载的目录，实现 timetable.ConfigProvider 与 timetable.ResourcePool
type Catalog struct {
	file     *File
	config   *model.ConstraintConfig
	semester string
}

// Load 读取目录文件
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse 解析目录内容
func Parse(data []byte) (*Catalog, error) {
	// 先填默认规则，文件只需覆盖差异
	file := &File{Constraints: model.DefaultConstraintConfig()}
	if err := yaml.Unmarshal(data, file); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeConfigError, "课程目录解析失败")
	}
	if file.Constraints == nil {
		file.Constraints = model.DefaultConstraintConfig()
	}

	c := &Catalog{file: file, config: file.Constraints}
	if err := c.validate(); err != nil {
		return nil, err
	}

	c.semester = strings.ToLower(file.Semester)
	if c.semester == "" {
		c.semester = c.Semesters()[0]
	}
	if err := c.UseSemester(c.semester); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	verr := &apperrors.ValidationErrors{}
	if len(c.file.Courses) == 0 {
		verr.Add("courses", "至少需要一个学期的课程")
	}
	for sem, courses := range c.file.Courses {
		for _, o := range courses {
			if o.Course == "" {
				verr.Add("courses."+sem, fmt.Sprintf("%s 存在空课程名", o.Batch()))
			}
		}
	}
	seen := make(map[string]bool)
	for _, t := range c.file.Teachers {
		if t.Name == "" {
			verr.Add("teachers", "教师姓名不能为空")
			continue
		}
		if seen[t.Name] {
			verr.Add("teachers", fmt.Sprintf("教师重名: %s", t.Name))
		}
		seen[t.Name] = true
	}
	if verr.HasErrors() {
		return verr.ToAppError()
	}
	return nil
}

// Semesters 返回文件中的学期，按名称排序
func (c *Catalog) Semesters() []string {
	out := make([]string, 0, len(c.file.Courses))
	for s := range c.file.Courses {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// UseSemester 切换用于排课的学期
func (c *Catalog) UseSemester(semester string) error {
	semester = strings.ToLower(semester)
	courses, ok := c.file.Courses[semester]
	if !ok {
		return apperrors.NotFound("学期", semester)
	}
	for i := range courses {
		courses[i].Semester = semester
	}
	c.semester = semester
	return nil
}

// Semester 当前学期
func (c *Catalog) Semester() string {
	return c.semester
}

// Courses 返回指定学期的扁平课程列表
func (c *Catalog) Courses(ctx context.Context, semester string) ([]model.CourseOffering, error) {
	semester = strings.ToLower(semester)
	courses, ok := c.file.Courses[semester]
	if !ok {
		return nil, apperrors.NotFound("学期", semester)
	}
	out := make([]model.CourseOffering, len(courses))
	for i, o := range courses {
		o.Semester = semester
		out[i] = o
	}
	return out, nil
}

// ConstraintConfig 实现 timetable.ConfigProvider
func (c *Catalog) ConstraintConfig(ctx context.Context) (*model.ConstraintConfig, error) {
	return c.config, nil
}

// Offerings 实现 timetable.ResourcePool
func (c *Catalog) Offerings(ctx context.Context) ([]model.CourseOffering, error) {
	return c.Courses(ctx, c.semester)
}

// Teachers 实现 timetable.ResourcePool
func (c *Catalog) Teachers(ctx context.Context) ([]*model.Teacher, error) {
	return c.file.Teachers, nil
}

// Rooms 实现 timetable.ResourcePool
func (c *Catalog) Rooms(ctx context.Context) ([]*model.Room, error) {
	return toRooms(c.file.Classrooms, false), nil
}

// Labs 实现 timetable.ResourcePool
func (c *Catalog) Labs(ctx context.Context) ([]*model.Room, error) {
	return toRooms(c.file.Labs, true), nil
}

func toRooms(names []string, lab bool) []*model.Room {
	rooms := make([]*model.Room, 0, len(names))
	for _, n := range names {
		rooms = append(rooms, &model.Room{Name: n, Lab: lab})
	}
	return rooms
}
