package timetable

import (
	"github.com/paiban/kebiao/pkg/model"
)

// YearView 年级 → 专业 → 星期 的分组视图
type YearView struct {
	Year     string       `json:"year"`
	Label    string       `json:"label"`
	Branches []BranchView `json:"branches"`
}

// BranchView 一个专业的周课表
type BranchView struct {
	Branch string    `json:"branch"`
	Days   []DayView `json:"days"`
}

// DayView 一天内按开始时间排序的课
type DayView struct {
	Day     string         `json:"day"`
	Entries []*model.Entry `json:"entries"`
}

// Structure 按展示顺序分组，输入不会被修改
func Structure(entries []*model.Entry, o model.Ordering) []YearView {
	sorted := append([]*model.Entry(nil), entries...)
	model.SortEntries(sorted, o)

	var years []YearView
	for _, e := range sorted {
		if len(years) == 0 || years[len(years)-1].Year != e.Year {
			years = append(years, YearView{Year: e.Year, Label: model.YearLabel(e.Year)})
		}
		y := &years[len(years)-1]
		if len(y.Branches) == 0 || y.Branches[len(y.Branches)-1].Branch != e.Branch {
			y.Branches = append(y.Branches, BranchView{Branch: e.Branch})
		}
		b := &y.Branches[len(y.Branches)-1]
		if len(b.Days) == 0 || b.Days[len(b.Days)-1].Day != e.Day {
			b.Days = append(b.Days, DayView{Day: e.Day})
		}
		d := &b.Days[len(b.Days)-1]
		d.Entries = append(d.Entries, e)
	}
	return years
}
