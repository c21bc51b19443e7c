package slots

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
)

func TestBuild_SkipsLunch(t *testing.T) {
	cfg := model.DefaultConstraintConfig()
	cfg.DayStart = model.MustClock("08:30")
	cfg.DayEnd = model.MustClock("17:15")
	cfg.LunchStart = model.MustClock("12:30")
	cfg.LunchEnd = model.MustClock("13:15")
	cfg.SlotLength = time.Hour

	tpl := Build(cfg)
	lunch := cfg.Lunch()

	for _, day := range cfg.WorkingDays {
		daySlots := tpl.Slots(day)
		require.Len(t, daySlots, 8, day)

		afterLunch := -1
		for i, s := range daySlots {
			assert.False(t, s.Overlaps(lunch), "slot %s overlaps lunch", s)
			assert.Equal(t, time.Hour, s.Duration())
			assert.LessOrEqual(t, int(s.End), int(cfg.DayEnd))
			if afterLunch < 0 && s.Start >= lunch.End {
				afterLunch = i
			}
		}
		require.GreaterOrEqual(t, afterLunch, 0)
		assert.Equal(t, "13:15", daySlots[afterLunch].Start.String())
		assert.Equal(t, "11:30-12:30", daySlots[afterLunch-1].String())
		assert.Equal(t, "16:15-17:15", daySlots[len(daySlots)-1].String())
	}
}

func TestBuild_SameSlotsEveryDay(t *testing.T) {
	tpl := Build(model.DefaultConstraintConfig())
	monday := tpl.Slots("Monday")
	for _, day := range tpl.Days() {
		assert.Equal(t, monday, tpl.Slots(day))
	}
	assert.Equal(t, 5*len(monday), tpl.Capacity())
}

func TestBuild_SelfContradictory(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *model.ConstraintConfig)
	}{
		{"午休覆盖全天", func(cfg *model.ConstraintConfig) {
			cfg.LunchStart = model.MustClock("08:00")
			cfg.LunchEnd = model.MustClock("18:00")
		}},
		{"下班早于上班", func(cfg *model.ConstraintConfig) {
			cfg.DayEnd = model.MustClock("08:00")
		}},
		{"午休倒置", func(cfg *model.ConstraintConfig) {
			cfg.LunchStart = model.MustClock("13:15")
			cfg.LunchEnd = model.MustClock("12:30")
		}},
		{"时间段长度为零", func(cfg *model.ConstraintConfig) {
			cfg.SlotLength = 0
		}},
		{"实验课时长与时间段不一致", func(cfg *model.ConstraintConfig) {
			cfg.SessionRules.Lab.Duration = 2 * time.Hour
		}},
		{"时间段缩短而课次仍为一小时", func(cfg *model.ConstraintConfig) {
			cfg.SlotLength = 45 * time.Minute
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := model.DefaultConstraintConfig()
			tt.mutate(cfg)

			err := Check(cfg)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.CodeConfigError))

			tpl := Build(cfg)
			assert.Equal(t, 0, tpl.Capacity())
			assert.Empty(t, tpl.FreeDays())
			assert.Len(t, tpl.Days(), len(cfg.WorkingDays))
		})
	}
}

func TestBuild_NoLunchWindow(t *testing.T) {
	cfg := model.DefaultConstraintConfig()
	cfg.DayStart = model.MustClock("09:00")
	cfg.DayEnd = model.MustClock("12:00")
	cfg.LunchStart = model.MustClock("12:00")
	cfg.LunchEnd = model.MustClock("12:00")

	tpl := Build(cfg)
	assert.Len(t, tpl.Slots("Friday"), 3)
}

func TestTemplate_TakeAndClone(t *testing.T) {
	tpl := Build(model.DefaultConstraintConfig())
	clone := tpl.Clone()

	first := tpl.Slots("Monday")[0]
	taken := tpl.Take("Monday", 0)
	assert.Equal(t, first, taken)
	assert.False(t, tpl.Contains("Monday", taken))
	assert.True(t, clone.Contains("Monday", taken), "clone must not see consumption")
	assert.Equal(t, clone.Capacity()-1, tpl.Capacity())

	for len(tpl.Slots("Monday")) > 0 {
		tpl.Take("Monday", len(tpl.Slots("Monday"))-1)
	}
	assert.NotContains(t, tpl.FreeDays(), "Monday")
}
