// Package solvertest 提供组装与优化测试用的校园数据
package solvertest

import (
	"fmt"
	"time"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/solver"
)

// Options 校园规模
type Options struct {
	Year     string
	Branches []string
	// Lectures 每个班级的理论课门数
	Lectures int
	// Labs 仅第一个班级开设的实验课门数
	Labs     int
	Rooms    int
	LabRooms int
}

func (o *Options) defaults() {
	if o.Year == "" {
		o.Year = "firstYear"
	}
	if len(o.Branches) == 0 {
		o.Branches = []string{"CST", "IT", "ECE"}
	}
	if o.Rooms == 0 {
		o.Rooms = 50
	}
	if o.LabRooms == 0 {
		o.LabRooms = 5
	}
}

// Config 每天 11 个时间段：08:00-20:00，午休 12:00-13:00，实验课每周 1 次
func Config() *model.ConstraintConfig {
	cfg := model.DefaultConstraintConfig()
	cfg.DayStart = model.NewClock(8, 0)
	cfg.DayEnd = model.NewClock(20, 0)
	cfg.LunchStart = model.NewClock(12, 0)
	cfg.LunchEnd = model.NewClock(13, 0)
	cfg.SlotLength = time.Hour
	cfg.SessionRules.Lab.WeeklyCount = 1
	return cfg
}

// Campus 生成组装输入。每门课有两位专属教师，课程名按班级区分
func Campus(opts Options) *solver.Input {
	opts.defaults()
	in := &solver.Input{Config: Config()}

	addCourse := func(branch, course string, typ model.SessionType) {
		in.Offerings = append(in.Offerings, model.CourseOffering{
			Year: opts.Year, Branch: branch, Course: course, Type: typ, Semester: "even",
		})
		for _, suffix := range []string{"a", "b"} {
			in.Resources.Teachers = append(in.Resources.Teachers, &model.Teacher{
				Name:     fmt.Sprintf("T-%s-%s", course, suffix),
				Subjects: []model.Subject{{Course: course, Type: typ}},
			})
		}
	}

	for bi, branch := range opts.Branches {
		if bi == 0 {
			for i := 0; i < opts.Labs; i++ {
				addCourse(branch, fmt.Sprintf("%s-LAB%02d", branch, i+1), model.SessionLab)
			}
		}
		for i := 0; i < opts.Lectures; i++ {
			addCourse(branch, fmt.Sprintf("%s-C%02d", branch, i+1), model.SessionLecture)
		}
	}

	for i := 0; i < opts.Rooms; i++ {
		in.Resources.Rooms = append(in.Resources.Rooms, &model.Room{Name: fmt.Sprintf("R%03d", i+1)})
	}
	for i := 0; i < opts.LabRooms; i++ {
		in.Resources.Labs = append(in.Resources.Labs, &model.Room{Name: fmt.Sprintf("Lab %d", i+1), Lab: true})
	}
	return in
}
