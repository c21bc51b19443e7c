// Package stats 提供课表统计分析功能
package stats

import (
	"math"
	"sort"

	"github.com/paiban/kebiao/pkg/model"
)

// FairnessMetrics 教师负荷公平性指标
type FairnessMetrics struct {
	// 课时公平性
	WorkloadGini          float64 `json:"workload_gini"`     // 课时基尼系数 (0=完全公平, 1=完全不公平)
	WorkloadVariance      float64 `json:"workload_variance"` // 课时方差
	WorkloadStdDev        float64 `json:"workload_std_dev"`  // 课时标准差
	AvgSessionsPerTeacher float64 `json:"avg_sessions_per_teacher"`
	MaxSessions           int     `json:"max_sessions"`
	MinSessions           int     `json:"min_sessions"`

	// 课程类型分布 (%)
	SessionTypeDistribution map[string]float64 `json:"session_type_distribution"`
	// 晚间课次分配基尼系数
	LateSessionGini float64 `json:"late_session_gini"`

	TeacherStats []TeacherStat `json:"teacher_stats"`
	BatchSpread  []BatchSpread `json:"batch_spread"`

	// 综合评分 (0-100)
	OverallFairnessScore float64 `json:"overall_fairness_score"`
}

// TeacherStat 单个教师的周负荷
type TeacherStat struct {
	Teacher      string  `json:"teacher"`
	Sessions     int     `json:"sessions"`
	Hours        float64 `json:"hours"`
	DaysTeaching int     `json:"days_teaching"`
	MaxPerDay    int     `json:"max_per_day"`
	LateSessions int     `json:"late_sessions"`
	Deviation    float64 `json:"deviation"` // 与平均值的偏差百分比
}

// BatchSpread 班级每天的课数分布
type BatchSpread struct {
	Batch    model.Batch    `json:"batch"`
	PerDay   map[string]int `json:"per_day"`
	StdDev   float64        `json:"std_dev"`
	Sessions int            `json:"sessions"`
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct {
	days     []string
	lateFrom model.Clock
}

// NewFairnessAnalyzer 创建公平性分析器，days 为空时使用默认工作日
func NewFairnessAnalyzer(days []string) *FairnessAnalyzer {
	if len(days) == 0 {
		days = model.DefaultWorkingDays
	}
	return &FairnessAnalyzer{
		days:     days,
		lateFrom: model.NewClock(15, 0),
	}
}

// SetLateFrom 设置晚间课次的起始时间
func (f *FairnessAnalyzer) SetLateFrom(c model.Clock) {
	f.lateFrom = c
}

// Analyze 分析课表公平性。teachers 中未排课的教师按 0 节计入
func (f *FairnessAnalyzer) Analyze(entries []*model.Entry, teachers []*model.Teacher) *FairnessMetrics {
	if len(entries) == 0 {
		return &FairnessMetrics{
			SessionTypeDistribution: make(map[string]float64),
			OverallFairnessScore:    100,
		}
	}

	teacherStats := f.calculateTeacherStats(entries, teachers)

	sessions := make([]float64, len(teacherStats))
	late := make([]float64, len(teacherStats))
	for i, stat := range teacherStats {
		sessions[i] = float64(stat.Sessions)
		late[i] = float64(stat.LateSessions)
	}

	avg := calculateMean(sessions)
	variance := calculateVariance(sessions, avg)
	stdDev := math.Sqrt(variance)
	maxS, minS := calculateRange(sessions)

	for i := range teacherStats {
		if avg > 0 {
			teacherStats[i].Deviation = (float64(teacherStats[i].Sessions) - avg) / avg * 100
		}
	}

	workloadGini := calculateGini(sessions)
	lateGini := calculateGini(late)

	return &FairnessMetrics{
		WorkloadGini:            workloadGini,
		WorkloadVariance:        variance,
		WorkloadStdDev:          stdDev,
		AvgSessionsPerTeacher:   avg,
		MaxSessions:             int(maxS),
		MinSessions:             int(minS),
		SessionTypeDistribution: calculateTypeDistribution(entries),
		LateSessionGini:         lateGini,
		TeacherStats:            teacherStats,
		BatchSpread:             f.calculateBatchSpread(entries),
		OverallFairnessScore:    calculateOverallScore(workloadGini, lateGini, stdDev, avg),
	}
}

// calculateTeacherStats 按负荷降序，相同时按姓名
func (f *FairnessAnalyzer) calculateTeacherStats(entries []*model.Entry, teachers []*model.Teacher) []TeacherStat {
	byTeacher := make(map[string]*TeacherStat)
	perDay := make(map[string]map[string]int)
	for _, t := range teachers {
		byTeacher[t.Name] = &TeacherStat{Teacher: t.Name}
		perDay[t.Name] = make(map[string]int)
	}

	for _, e := range entries {
		stat, ok := byTeacher[e.Teacher]
		if !ok {
			stat = &TeacherStat{Teacher: e.Teacher}
			byTeacher[e.Teacher] = stat
			perDay[e.Teacher] = make(map[string]int)
		}
		stat.Sessions++
		stat.Hours += e.Slot.Duration().Hours()
		if e.Slot.Start >= f.lateFrom {
			stat.LateSessions++
		}
		perDay[e.Teacher][e.Day]++
	}

	result := make([]TeacherStat, 0, len(byTeacher))
	for name, stat := range byTeacher {
		for _, n := range perDay[name] {
			stat.DaysTeaching++
			if n > stat.MaxPerDay {
				stat.MaxPerDay = n
			}
		}
		result = append(result, *stat)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Sessions != result[j].Sessions {
			return result[i].Sessions > result[j].Sessions
		}
		return result[i].Teacher < result[j].Teacher
	})
	return result
}

// calculateBatchSpread 按班级首次出现顺序
func (f *FairnessAnalyzer) calculateBatchSpread(entries []*model.Entry) []BatchSpread {
	var order []model.Batch
	perDay := make(map[model.Batch]map[string]int)
	for _, e := range entries {
		b := e.Batch()
		if _, ok := perDay[b]; !ok {
			order = append(order, b)
			perDay[b] = make(map[string]int)
		}
		perDay[b][e.Day]++
	}

	result := make([]BatchSpread, 0, len(order))
	for _, b := range order {
		counts := make([]float64, len(f.days))
		total := 0
		for i, day := range f.days {
			counts[i] = float64(perDay[b][day])
			total += perDay[b][day]
		}
		mean := calculateMean(counts)
		result = append(result, BatchSpread{
			Batch:    b,
			PerDay:   perDay[b],
			StdDev:   math.Sqrt(calculateVariance(counts, mean)),
			Sessions: total,
		})
	}
	return result
}

func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func calculateVariance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		diff := v - mean
		sum += diff * diff
	}
	return sum / float64(len(values))
}

func calculateRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return max, min
}

// calculateGini 计算基尼系数
func calculateGini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	gini := 0.0
	for i, v := range sorted {
		gini += (2*float64(i+1) - float64(n) - 1) * v
	}

	gini = gini / (float64(n) * sum)
	return math.Max(0, math.Min(1, gini))
}

func calculateTypeDistribution(entries []*model.Entry) map[string]float64 {
	counts := make(map[string]int)
	for _, e := range entries {
		counts[string(e.Type)]++
	}
	dist := make(map[string]float64, len(counts))
	for typ, n := range counts {
		dist[typ] = float64(n) / float64(len(entries)) * 100
	}
	return dist
}

// calculateOverallScore 计算综合公平性评分
func calculateOverallScore(workloadGini, lateGini, stdDev, avg float64) float64 {
	const (
		workloadWeight = 0.6
		lateWeight     = 0.25
		stdDevWeight   = 0.15
	)

	workloadScore := (1 - workloadGini) * 100
	lateScore := (1 - lateGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if avg > 0 {
		cvScore = math.Max(0, 100-stdDev/avg*200)
	}

	score := workloadWeight*workloadScore + lateWeight*lateScore + stdDevWeight*cvScore
	return math.Max(0, math.Min(100, score))
}

// CompareSchedules 比较两份课表的公平性
func (f *FairnessAnalyzer) CompareSchedules(a, b []*model.Entry, teachers []*model.Teacher) map[string]float64 {
	m1 := f.Analyze(a, teachers)
	m2 := f.Analyze(b, teachers)

	return map[string]float64{
		"workload_gini_diff":      m2.WorkloadGini - m1.WorkloadGini,
		"late_gini_diff":          m2.LateSessionGini - m1.LateSessionGini,
		"overall_score_diff":      m2.OverallFairnessScore - m1.OverallFairnessScore,
		"schedule1_overall_score": m1.OverallFairnessScore,
		"schedule2_overall_score": m2.OverallFairnessScore,
	}
}
