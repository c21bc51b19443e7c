// Package fitness 计算课表方案的加权适应度
package fitness

import (
	"math"
	"sort"

	"github.com/paiban/kebiao/pkg/model"
)

// Breakdown 各项违反计数与加权结果
type Breakdown struct {
	TeacherClashes  int `json:"teacher_clashes"`
	RoomClashes     int `json:"room_clashes"`
	BatchClashes    int `json:"batch_clashes"`
	LabDuration     int `json:"lab_duration"`
	BackToBack      int `json:"back_to_back"`
	TeacherOverload int `json:"teacher_overload"`

	TeacherGaps int     `json:"teacher_gaps"`
	BatchGaps   int     `json:"batch_gaps"`
	Late        int     `json:"late"`
	Unevenness  float64 `json:"unevenness"`
	RoomChanges int     `json:"room_changes"`
	Preference  int     `json:"preference"`

	Hard      float64 `json:"hard"`
	Soft      float64 `json:"soft"`
	HardScore float64 `json:"hard_score"`
	SoftScore float64 `json:"soft_score"`
}

// HardViolations 硬约束违反总数
func (b Breakdown) HardViolations() int {
	return b.TeacherClashes + b.RoomClashes + b.BatchClashes + b.LabDuration + b.BackToBack + b.TeacherOverload
}

// Result 评估结果
type Result struct {
	Score     float64   `json:"score"`
	Breakdown Breakdown `json:"breakdown"`
}

// Evaluator 适应度评估器，只读，可并发使用
type Evaluator struct {
	cfg      *model.ConstraintConfig
	teachers map[string]*model.Teacher
	weights  Weights
}

// NewEvaluator 创建评估器，teachers 用于读取时间偏好
func NewEvaluator(cfg *model.ConstraintConfig, teachers []*model.Teacher, w Weights) *Evaluator {
	if cfg == nil {
		cfg = model.DefaultConstraintConfig()
	}
	return &Evaluator{
		cfg:      cfg,
		teachers: model.IndexTeachers(teachers),
		weights:  w,
	}
}

// Weights 返回权重
func (ev *Evaluator) Weights() Weights {
	return ev.weights
}

// Score 只返回得分
func (ev *Evaluator) Score(entries []*model.Entry) float64 {
	return ev.Evaluate(entries).Score
}

type teacherDay struct {
	teacher string
	day     string
}

type batchDay struct {
	batch model.Batch
	day   string
}

// Evaluate 计算得分与明细。空方案得 0 分
func (ev *Evaluator) Evaluate(entries []*model.Entry) Result {
	if len(entries) == 0 {
		return Result{}
	}
	var b Breakdown
	w := ev.weights

	teachersAt := make(map[model.SlotKey]map[string]bool)
	roomsAt := make(map[model.SlotKey]map[string]bool)
	batchesAt := make(map[model.SlotKey]map[model.Batch]bool)
	load := make(map[teacherDay]int)
	teacherDays := make(map[teacherDay][]*model.Entry)
	batchDays := make(map[batchDay][]*model.Entry)
	perBatch := make(map[model.Batch]map[string]int)
	var batchOrder []model.Batch
	var teacherDayOrder []teacherDay
	var batchDayOrder []batchDay

	labDuration := ev.cfg.SessionRules.For(model.SessionLab).Duration
	maxLoad := ev.cfg.MaxClassesPerTeacherPerDay

	for _, e := range entries {
		key := e.Key()
		if mark(teachersAt, key, e.Teacher) {
			b.TeacherClashes++
		}
		if mark(roomsAt, key, e.Room) {
			b.RoomClashes++
		}
		if mark(batchesAt, key, e.Batch()) {
			b.BatchClashes++
		}

		if e.Type.IsLab() && (e.Slot.IsZero() || e.Slot.Duration() != labDuration) {
			b.LabDuration++
		}

		td := teacherDay{e.Teacher, e.Day}
		load[td]++
		if maxLoad > 0 && load[td] > maxLoad {
			b.TeacherOverload++
		}
		if _, ok := teacherDays[td]; !ok {
			teacherDayOrder = append(teacherDayOrder, td)
		}
		teacherDays[td] = append(teacherDays[td], e)

		bd := batchDay{e.Batch(), e.Day}
		if _, ok := batchDays[bd]; !ok {
			batchDayOrder = append(batchDayOrder, bd)
		}
		batchDays[bd] = append(batchDays[bd], e)

		if _, ok := perBatch[bd.batch]; !ok {
			perBatch[bd.batch] = make(map[string]int)
			batchOrder = append(batchOrder, bd.batch)
		}
		perBatch[bd.batch][e.Day]++

		if e.Slot.Start >= w.LateFrom {
			b.Late++
		}
		if t, ok := ev.teachers[e.Teacher]; ok && t.PreferenceViolated(e.Slot) {
			b.Preference++
		}
	}

	for _, td := range teacherDayOrder {
		b.TeacherGaps += gaps(teacherDays[td])
	}
	for _, bd := range batchDayOrder {
		day := batchDays[bd]
		b.BatchGaps += gaps(day)
		for i := 0; i+1 < len(day); i++ {
			cur, next := day[i], day[i+1]
			if !cur.Slot.Adjacent(next.Slot) {
				continue
			}
			if ev.cfg.NoBackToBackSameCourse && cur.Course == next.Course {
				b.BackToBack++
			}
			if cur.Room != next.Room {
				b.RoomChanges++
			}
		}
	}
	for _, batch := range batchOrder {
		b.Unevenness += 2 * stddev(perBatch[batch])
	}

	b.Hard = float64(b.TeacherClashes)*w.TeacherClash +
		float64(b.RoomClashes)*w.RoomClash +
		float64(b.BatchClashes)*w.BatchClash +
		float64(b.LabDuration)*w.LabDuration +
		float64(b.BackToBack)*w.BackToBack +
		float64(b.TeacherOverload)*w.TeacherOverload
	b.Soft = float64(b.TeacherGaps)*w.TeacherGap +
		float64(b.BatchGaps)*w.BatchGap +
		float64(b.Late)*w.Late +
		b.Unevenness*w.Uneven +
		float64(b.RoomChanges)*w.RoomChange +
		float64(b.Preference)*w.Preference

	b.HardScore = math.Max(0, 1-b.Hard*w.HardFactor)
	b.SoftScore = math.Max(0, 1-b.Soft*w.SoftFactor)
	return Result{
		Score:     w.HardShare*b.HardScore + (1-w.HardShare)*b.SoftScore,
		Breakdown: b,
	}
}

// mark 在 (时间段, 资源) 集合中登记，已存在时返回 true
func mark[K comparable](seen map[model.SlotKey]map[K]bool, key model.SlotKey, v K) bool {
	set, ok := seen[key]
	if !ok {
		set = make(map[K]bool)
		seen[key] = set
	}
	if set[v] {
		return true
	}
	set[v] = true
	return false
}

// gaps 按开始时间排序，统计相邻两节课之间不衔接的次数。day 会被就地排序
func gaps(day []*model.Entry) int {
	if len(day) < 2 {
		return 0
	}
	sort.SliceStable(day, func(i, j int) bool { return day[i].Slot.Start < day[j].Slot.Start })
	n := 0
	for i := 0; i+1 < len(day); i++ {
		if day[i].Slot.End != day[i+1].Slot.Start {
			n++
		}
	}
	return n
}

// stddev 每日课数的总体标准差
func stddev(counts map[string]int) float64 {
	if len(counts) == 0 {
		return 0
	}
	var sum float64
	for _, c := range counts {
		sum += float64(c)
	}
	mean := sum / float64(len(counts))
	var variance float64
	for _, c := range counts {
		d := float64(c) - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(counts)))
}
