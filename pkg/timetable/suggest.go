package timetable

import (
	"sort"

	"github.com/google/uuid"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/slots"
)

// MoveOption 一个可以通过准入的目标位置
type MoveOption struct {
	Day   string         `json:"day"`
	Slot  model.TimeSlot `json:"time"`
	Score float64        `json:"score"`
	Rank  int            `json:"rank"`
}

// SuggestOptions 推荐选项
type SuggestOptions struct {
	MaxOptions int     // 最大推荐数量，0 表示不限
	MinScore   float64 // 最低得分
}

// DefaultSuggestOptions 返回默认选项
func DefaultSuggestOptions() *SuggestOptions {
	return &SuggestOptions{MaxOptions: 10}
}

// Suggest 列出 entryID 可移动到的时间段，不提交任何改动。
// 候选时间段来自规则生成的网格；设置了 scorer 时按调整后的分数降序排列，否则按网格顺序
func (c *MoveController) Suggest(cfg *model.ConstraintConfig, entryID uuid.UUID, scorer Scorer, opts *SuggestOptions) ([]MoveOption, error) {
	if opts == nil {
		opts = DefaultSuggestOptions()
	}
	snap := c.store.Current()
	if snap == nil {
		return nil, apperrors.New(apperrors.CodeNoTimetable, "尚未生成课表")
	}
	i, source := model.FindEntry(snap.Entries, entryID)
	if source == nil {
		return nil, apperrors.NotFound("课表记录", entryID.String())
	}

	tpl := slots.Build(cfg)
	working := snap.Entries
	origin := *source

	var options []MoveOption
	for _, day := range tpl.Days() {
		for _, slot := range tpl.Slots(day) {
			if day == origin.Day && slot == origin.Slot {
				continue
			}
			moved := origin
			moved.Day = day
			moved.Slot = slot
			working[i] = &moved

			if c.admit(&moved, working) != nil {
				continue
			}
			opt := MoveOption{Day: day, Slot: slot}
			if scorer != nil {
				opt.Score = scorer.Score(working)
				if opt.Score < opts.MinScore {
					continue
				}
			}
			options = append(options, opt)
		}
	}
	working[i] = source

	if scorer != nil {
		sort.SliceStable(options, func(a, b int) bool {
			return options[a].Score > options[b].Score
		})
	}
	if opts.MaxOptions > 0 && len(options) > opts.MaxOptions {
		options = options[:opts.MaxOptions]
	}
	for k := range options {
		options[k].Rank = k + 1
	}
	return options, nil
}
