package builtin

import (
	"fmt"
	"math"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
)

// WorkloadBalanceConstraint 教师周课时均衡（软约束）
// 同时考虑每周总课数与晚间课次的分布
type WorkloadBalanceConstraint struct {
	*BaseConstraint
	tolerancePercent float64     // 允许的偏差百分比
	lateFrom         model.Clock // 晚间课次起始时间，为 0 时不统计
}

// NewWorkloadBalanceConstraint 创建课时均衡规则
func NewWorkloadBalanceConstraint(weight int, tolerance float64, lateFrom model.Clock) *WorkloadBalanceConstraint {
	return &WorkloadBalanceConstraint{
		BaseConstraint:   NewBaseConstraint("教师课时均衡", constraint.TypeWorkloadBalance, constraint.CategorySoft, weight),
		tolerancePercent: tolerance,
		lateFrom:         lateFrom,
	}
}

// Evaluate 评估整张课表，只统计课表中出现的教师
func (c *WorkloadBalanceConstraint) Evaluate(ctx *constraint.Context) (bool, int, []constraint.ViolationDetail) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	names, load, late := c.tally(ctx.Entries)
	if len(names) < 2 {
		return true, 0, nil
	}

	counts := make([]float64, len(names))
	for i, name := range names {
		counts[i] = float64(load[name])
	}
	avg, stdDev := calculateStats(counts)
	tolerance := avg * c.tolerancePercent / 100

	for i, name := range names {
		deviation := counts[i] - avg
		if math.Abs(deviation) <= tolerance {
			continue
		}
		penalty := int(math.Abs(deviation) * float64(c.Weight()) / (avg + 1))
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(nil, fmt.Sprintf(
			"教师 %s 每周 %d 节课，偏离平均 %.1f 节 (平均: %.1f, 标准差: %.1f)",
			name, load[name], deviation, avg, stdDev,
		), penalty))
	}

	if c.lateFrom > 0 {
		v, p := c.lateBalance(names, late)
		violations = append(violations, v...)
		totalPenalty += p
	}

	return true, totalPenalty, violations
}

// lateBalance 晚间课次允许偏离平均 1 节
func (c *WorkloadBalanceConstraint) lateBalance(names []string, late map[string]int) ([]constraint.ViolationDetail, int) {
	var violations []constraint.ViolationDetail
	totalPenalty := 0

	total := 0
	for _, name := range names {
		total += late[name]
	}
	avg := float64(total) / float64(len(names))

	for _, name := range names {
		deviation := float64(late[name]) - avg
		if math.Abs(deviation) <= 1 {
			continue
		}
		penalty := int(math.Abs(deviation)) * c.Weight() / 4
		totalPenalty += penalty
		violations = append(violations, c.CreateViolation(nil, fmt.Sprintf(
			"教师 %s 有 %d 节 %s 之后的课，平均 %.1f 节", name, late[name], c.lateFrom, avg,
		), penalty))
	}
	return violations, totalPenalty
}

func (c *WorkloadBalanceConstraint) tally(entries []*model.Entry) ([]string, map[string]int, map[string]int) {
	var names []string
	load := make(map[string]int)
	late := make(map[string]int)
	for _, e := range entries {
		if _, ok := load[e.Teacher]; !ok {
			names = append(names, e.Teacher)
		}
		load[e.Teacher]++
		if c.lateFrom > 0 && e.Slot.Start >= c.lateFrom {
			late[e.Teacher]++
		}
	}
	return names, load, late
}

func calculateStats(values []float64) (avg, stdDev float64) {
	if len(values) == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	avg = sum / float64(len(values))

	var sumSquares float64
	for _, v := range values {
		diff := v - avg
		sumSquares += diff * diff
	}
	stdDev = math.Sqrt(sumSquares / float64(len(values)))

	return avg, stdDev
}
