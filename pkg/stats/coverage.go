package stats

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/slots"
)

// CoverageMetrics 需求覆盖与资源利用指标
type CoverageMetrics struct {
	// 需求覆盖
	RequiredSessions int     `json:"required_sessions"` // 需求课次
	PlacedSessions   int     `json:"placed_sessions"`   // 已安排课次
	OverallCoverage  float64 `json:"overall_coverage"`  // 覆盖率 (%)

	// 按课程类型统计覆盖率 (%)
	TypeCoverage map[string]float64 `json:"type_coverage"`

	// 资源利用
	SlotCapacity    int                `json:"slot_capacity"`    // 每个教室每周可用时间段数
	RoomUtilization map[string]float64 `json:"room_utilization"` // 教室利用率 (%)
	SlotLoad        []SlotLoad         `json:"slot_load"`        // 每个时间段同时上课的数量
	DailyLoad       map[string]int     `json:"daily_load"`
	IdleRooms       []string           `json:"idle_rooms"`

	Uncovered []UncoveredRequirement `json:"uncovered"`
}

// SlotLoad 一个 (星期, 时间段) 的占用情况
type SlotLoad struct {
	Day      string `json:"day"`
	Time     string `json:"time"`
	Sessions int    `json:"sessions"`
	Labs     int    `json:"labs"`
}

// UncoveredRequirement 未完全安排的需求
type UncoveredRequirement struct {
	Batch    string `json:"batch"`
	Course   string `json:"course"`
	Type     string `json:"type"`
	Required int    `json:"required"`
	Placed   int    `json:"placed"`
	Missing  int    `json:"missing"`
}

// CoverageAnalyzer 覆盖率分析器
type CoverageAnalyzer struct {
	cfg *model.ConstraintConfig
}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer(cfg *model.ConstraintConfig) *CoverageAnalyzer {
	if cfg == nil {
		cfg = model.DefaultConstraintConfig()
	}
	return &CoverageAnalyzer{cfg: cfg}
}

type requirementKey struct {
	batch  model.Batch
	course string
	typ    model.SessionType
}

// Analyze 分析覆盖率。rooms 包含普通教室和实验室
func (c *CoverageAnalyzer) Analyze(offerings []model.CourseOffering, entries []*model.Entry, rooms []*model.Room) *CoverageMetrics {
	tpl := slots.Build(c.cfg)
	metrics := &CoverageMetrics{
		PlacedSessions:  len(entries),
		TypeCoverage:    make(map[string]float64),
		SlotCapacity:    tpl.Capacity(),
		RoomUtilization: make(map[string]float64),
		DailyLoad:       make(map[string]int),
		OverallCoverage: 100,
	}

	placed := make(map[requirementKey]int)
	for _, e := range entries {
		placed[requirementKey{e.Batch(), e.Course, e.Type}]++
	}

	typeRequired := make(map[model.SessionType]int)
	typePlaced := make(map[model.SessionType]int)
	for _, o := range offerings {
		req := model.NewSessionRequirement(o, c.cfg.SessionRules)
		k := requirementKey{req.Batch(), req.Course, req.Type}
		got := placed[k]
		if got > req.WeeklyCount {
			got = req.WeeklyCount
		}
		metrics.RequiredSessions += req.WeeklyCount
		typeRequired[req.Type] += req.WeeklyCount
		typePlaced[req.Type] += got
		if got < req.WeeklyCount {
			metrics.Uncovered = append(metrics.Uncovered, UncoveredRequirement{
				Batch:    req.Batch().String(),
				Course:   req.Course,
				Type:     string(req.Type),
				Required: req.WeeklyCount,
				Placed:   got,
				Missing:  req.WeeklyCount - got,
			})
		}
	}
	if metrics.RequiredSessions > 0 {
		covered := 0
		for _, n := range typePlaced {
			covered += n
		}
		metrics.OverallCoverage = float64(covered) / float64(metrics.RequiredSessions) * 100
	}
	for typ, total := range typeRequired {
		if total > 0 {
			metrics.TypeCoverage[string(typ)] = float64(typePlaced[typ]) / float64(total) * 100
		}
	}

	c.analyzeUtilization(metrics, tpl, entries, rooms)
	return metrics
}

func (c *CoverageAnalyzer) analyzeUtilization(metrics *CoverageMetrics, tpl *slots.Template, entries []*model.Entry, rooms []*model.Room) {
	roomUse := make(map[string]int)
	slotUse := make(map[model.SlotKey]*SlotLoad)
	for _, e := range entries {
		roomUse[e.Room]++
		metrics.DailyLoad[e.Day]++
		load, ok := slotUse[e.Key()]
		if !ok {
			load = &SlotLoad{Day: e.Day, Time: e.Slot.String()}
			slotUse[e.Key()] = load
		}
		load.Sessions++
		if e.Type.IsLab() {
			load.Labs++
		}
	}

	for _, r := range rooms {
		rate := 0.0
		if metrics.SlotCapacity > 0 {
			rate = float64(roomUse[r.Name]) / float64(metrics.SlotCapacity) * 100
		}
		metrics.RoomUtilization[r.Name] = rate
		if roomUse[r.Name] == 0 {
			metrics.IdleRooms = append(metrics.IdleRooms, r.Name)
		}
	}

	// 按网格顺序输出，网格外的时间段排在最后
	for _, day := range tpl.Days() {
		for _, slot := range tpl.Slots(day) {
			key := model.SlotKey{Day: day, Slot: slot}
			if load, ok := slotUse[key]; ok {
				metrics.SlotLoad = append(metrics.SlotLoad, *load)
				delete(slotUse, key)
			} else {
				metrics.SlotLoad = append(metrics.SlotLoad, SlotLoad{Day: day, Time: slot.String()})
			}
		}
	}
	rest := make([]SlotLoad, 0, len(slotUse))
	for _, load := range slotUse {
		rest = append(rest, *load)
	}
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].Day != rest[j].Day {
			return rest[i].Day < rest[j].Day
		}
		return rest[i].Time < rest[j].Time
	})
	metrics.SlotLoad = append(metrics.SlotLoad, rest...)
}

// GenerateCoverageReport 生成覆盖率报告
func (c *CoverageAnalyzer) GenerateCoverageReport(metrics *CoverageMetrics) string {
	var b strings.Builder
	b.WriteString("=== 课表覆盖率报告 ===\n\n")

	b.WriteString("【整体覆盖情况】\n")
	fmt.Fprintf(&b, "  需求课次: %d\n", metrics.RequiredSessions)
	fmt.Fprintf(&b, "  已安排课次: %d\n", metrics.PlacedSessions)
	fmt.Fprintf(&b, "  覆盖率: %.1f%%\n\n", metrics.OverallCoverage)

	if len(metrics.Uncovered) > 0 {
		b.WriteString("【未完全安排的课程】\n")
		for _, u := range metrics.Uncovered {
			fmt.Fprintf(&b, "  - %s %s[%s] 需要 %d 次，已安排 %d 次，缺 %d 次\n",
				u.Batch, u.Course, u.Type, u.Required, u.Placed, u.Missing)
		}
		b.WriteString("\n")
	}

	if len(metrics.IdleRooms) > 0 {
		fmt.Fprintf(&b, "【空闲教室】\n  %s\n", strings.Join(metrics.IdleRooms, ", "))
	}
	return b.String()
}
