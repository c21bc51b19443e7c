// Package slots 根据排课规则生成每日时间段网格
package slots

import (
	"fmt"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
)

// Template 每个工作日的可用时间段，按开始时间有序
type Template struct {
	days  []string
	slots map[string][]model.TimeSlot
}

// Check 检查工作时间、午休与课次时长配置是否自相矛盾
func Check(cfg *model.ConstraintConfig) error {
	switch {
	case cfg == nil:
		return apperrors.ConfigError("缺少排课规则")
	case len(cfg.WorkingDays) == 0:
		return apperrors.ConfigError("未配置工作日")
	case cfg.SlotLength <= 0:
		return apperrors.ConfigError(fmt.Sprintf("时间段长度必须为正: %s", cfg.SlotLength))
	case cfg.DayEnd <= cfg.DayStart:
		return apperrors.ConfigError(fmt.Sprintf("下班时间 %s 不晚于上班时间 %s", cfg.DayEnd, cfg.DayStart))
	case cfg.LunchEnd < cfg.LunchStart:
		return apperrors.ConfigError(fmt.Sprintf("午休结束 %s 早于开始 %s", cfg.LunchEnd, cfg.LunchStart))
	case cfg.LunchEnd > cfg.LunchStart && cfg.LunchStart <= cfg.DayStart && cfg.LunchEnd >= cfg.DayEnd:
		return apperrors.ConfigError("午休覆盖了整个工作时间")
	}
	// 一节课占一个时间段，课次时长必须与时间段长度一致
	for _, t := range model.SessionTypes() {
		if d := cfg.SessionRules.For(t).Duration; d > 0 && d != cfg.SlotLength {
			return apperrors.ConfigError(fmt.Sprintf("%s 课次时长 %s 与时间段长度 %s 不一致", t, d, cfg.SlotLength))
		}
	}
	return nil
}

// Build 生成时间段模板。规则自相矛盾时每天都没有时间段
func Build(cfg *model.ConstraintConfig) *Template {
	t := &Template{slots: make(map[string][]model.TimeSlot)}
	if cfg == nil {
		return t
	}
	t.days = append(t.days, cfg.WorkingDays...)

	var daily []model.TimeSlot
	if Check(cfg) == nil {
		daily = buildDay(cfg)
	}
	for _, day := range t.days {
		t.slots[day] = append([]model.TimeSlot(nil), daily...)
	}
	return t
}

// buildDay 从上班时间起逐段生成，与午休重叠时跳到午休结束
func buildDay(cfg *model.ConstraintConfig) []model.TimeSlot {
	lunch := cfg.Lunch()
	hasLunch := lunch.End > lunch.Start

	var out []model.TimeSlot
	cur := cfg.DayStart
	for {
		slot := model.NewTimeSlot(cur, cfg.SlotLength)
		if slot.End > cfg.DayEnd {
			break
		}
		if hasLunch && slot.Overlaps(lunch) {
			if cur >= lunch.End {
				break
			}
			cur = lunch.End
			continue
		}
		out = append(out, slot)
		cur = slot.End
	}
	return out
}

// Days 返回工作日列表
func (t *Template) Days() []string {
	return t.days
}

// Slots 返回某天剩余的时间段
func (t *Template) Slots(day string) []model.TimeSlot {
	return t.slots[day]
}

// Contains 检查某天是否有该时间段
func (t *Template) Contains(day string, slot model.TimeSlot) bool {
	for _, s := range t.slots[day] {
		if s == slot {
			return true
		}
	}
	return false
}

// Take 取走某天第 i 个时间段
func (t *Template) Take(day string, i int) model.TimeSlot {
	daySlots := t.slots[day]
	slot := daySlots[i]
	t.slots[day] = append(daySlots[:i:i], daySlots[i+1:]...)
	return slot
}

// FreeDays 返回仍有剩余时间段的工作日
func (t *Template) FreeDays() []string {
	var out []string
	for _, day := range t.days {
		if len(t.slots[day]) > 0 {
			out = append(out, day)
		}
	}
	return out
}

// Capacity 返回剩余时间段总数
func (t *Template) Capacity() int {
	n := 0
	for _, day := range t.days {
		n += len(t.slots[day])
	}
	return n
}

// Clone 复制模板
func (t *Template) Clone() *Template {
	c := &Template{
		days:  append([]string(nil), t.days...),
		slots: make(map[string][]model.TimeSlot, len(t.slots)),
	}
	for day, s := range t.slots {
		c.slots[day] = append([]model.TimeSlot(nil), s...)
	}
	return c
}
