package solver

import (
	"fmt"
	"math/rand"

	"github.com/paiban/kebiao/pkg/logger"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/assign"
	"github.com/paiban/kebiao/pkg/scheduler/slots"
)

// Resources 一次组装使用的资源快照，只读
type Resources struct {
	Teachers []*model.Teacher
	Rooms    []*model.Room
	Labs     []*model.Room
}

// PlacementConfig 放置尝试预算
type PlacementConfig struct {
	// MaxAttemptsPerSlot 选定某天后寻找可用时间段的最大尝试次数
	MaxAttemptsPerSlot int `json:"max_attempts_per_slot" mapstructure:"max_attempts_per_slot"`
	// MaxTotalAttempts 单个需求的总尝试次数
	MaxTotalAttempts int `json:"max_total_attempts" mapstructure:"max_total_attempts"`
	// SpreadThreshold 剩余课次不少于该值时所有仍有空闲的日期都是候选；
	// 少于该值时只选本需求尚未使用的日期，没有则退回全部空闲日期。
	// 即 remaining >= SpreadThreshold || !used[day]，不要反转
	SpreadThreshold int `json:"spread_threshold" mapstructure:"spread_threshold"`
}

// DefaultPlacementConfig 默认预算
func DefaultPlacementConfig() PlacementConfig {
	return PlacementConfig{
		MaxAttemptsPerSlot: 10,
		MaxTotalAttempts:   50,
		SpreadThreshold:    4,
	}
}

// PlacementEngine 为单个排课需求随机贪心地选择 星期/时间段/教师/教室
type PlacementEngine struct {
	cfg      *model.ConstraintConfig
	assigner assign.ResourceAssigner
	rng      *rand.Rand
	opts     PlacementConfig
	logger   *logger.SchedulerLogger
}

// NewPlacementEngine 创建放置引擎，rng 不可并发使用
func NewPlacementEngine(cfg *model.ConstraintConfig, assigner assign.ResourceAssigner, rng *rand.Rand, opts PlacementConfig) *PlacementEngine {
	if assigner == nil {
		assigner = assign.NewQualificationAssigner()
	}
	def := DefaultPlacementConfig()
	if opts.MaxAttemptsPerSlot <= 0 {
		opts.MaxAttemptsPerSlot = def.MaxAttemptsPerSlot
	}
	if opts.MaxTotalAttempts <= 0 {
		opts.MaxTotalAttempts = def.MaxTotalAttempts
	}
	if opts.SpreadThreshold <= 0 {
		opts.SpreadThreshold = def.SpreadThreshold
	}
	return &PlacementEngine{
		cfg:      cfg,
		assigner: assigner,
		rng:      rng,
		opts:     opts,
		logger:   logger.NewSchedulerLogger(),
	}
}

// SetLogger 设置日志器
func (p *PlacementEngine) SetLogger(l *logger.SchedulerLogger) {
	p.logger = l
}

// Place 放置一个需求的每周课次，返回实际放置的记录和缺口数。
// tpl 中被使用的时间段会被取走，idx 会登记新记录
func (p *PlacementEngine) Place(req model.SessionRequirement, tpl *slots.Template, idx *OccupancyIndex, res *Resources) ([]*model.Entry, int) {
	remaining := req.WeeklyCount
	usedDays := make(map[string]bool)
	placed := make([]*model.Entry, 0, req.WeeklyCount)
	reason := ""

	for total := 0; remaining > 0 && total < p.opts.MaxTotalAttempts; total++ {
		days := p.candidateDays(tpl, usedDays, remaining)
		if len(days) == 0 {
			reason = "没有剩余时间段"
			break
		}

		day := days[p.rng.Intn(len(days))]
		entry, why := p.placeOnDay(req, day, tpl, idx, res, placed)
		remaining--
		if entry == nil {
			// 放弃本课次
			reason = why
			continue
		}
		placed = append(placed, entry)
		usedDays[day] = true
	}

	shortfall := req.WeeklyCount - len(placed)
	if shortfall > 0 {
		if reason == "" {
			reason = "尝试次数耗尽"
		}
		p.logger.PlacementShortfall(req.String(), len(placed), req.WeeklyCount, reason)
	}
	return placed, shortfall
}

// candidateDays 剩余课次较少时优先未使用的日期，没有则退回全部有空闲的日期
func (p *PlacementEngine) candidateDays(tpl *slots.Template, usedDays map[string]bool, remaining int) []string {
	free := tpl.FreeDays()
	if remaining >= p.opts.SpreadThreshold {
		return free
	}
	fresh := make([]string, 0, len(free))
	for _, day := range free {
		if !usedDays[day] {
			fresh = append(fresh, day)
		}
	}
	if len(fresh) == 0 {
		return free
	}
	return fresh
}

// placeOnDay 在某天内随机尝试时间段，成功时取走时间段并登记
func (p *PlacementEngine) placeOnDay(req model.SessionRequirement, day string, tpl *slots.Template, idx *OccupancyIndex, res *Resources, placed []*model.Entry) (*model.Entry, string) {
	reason := "尝试次数耗尽"
	for attempt := 0; attempt < p.opts.MaxAttemptsPerSlot; attempt++ {
		free := tpl.Slots(day)
		if len(free) == 0 {
			return nil, "当天没有剩余时间段"
		}
		i := p.rng.Intn(len(free))

		teacher, ok := p.assigner.AssignTeacher(assign.RequestFor(req), p.teacherPool(req, day, idx, res.Teachers, placed))
		if !ok {
			reason = "没有可用教师"
			continue
		}

		var room *model.Room
		if req.Type.IsLab() {
			room, ok = p.assigner.AssignRoom(req.Type, nil, p.shuffleRooms(res.Labs))
		} else {
			room, ok = p.assigner.AssignRoom(req.Type, p.shuffleRooms(res.Rooms), nil)
		}
		if !ok {
			reason = "没有可用教室"
			continue
		}

		entry := model.NewEntry(req, teacher.Name, room.Name, day, free[i])
		if blocker := idx.Conflict(entry); blocker != nil {
			reason = fmt.Sprintf("与 %s（%s）冲突", blocker.Course, blocker.Batch())
			continue
		}

		tpl.Take(day, i)
		idx.Add(entry)
		return entry, ""
	}
	return nil, reason
}

// teacherPool 打乱后的候选教师。非实验课排除本需求当天已使用的教师，并排除当天已达上限的教师
func (p *PlacementEngine) teacherPool(req model.SessionRequirement, day string, idx *OccupancyIndex, teachers []*model.Teacher, placed []*model.Entry) []*model.Teacher {
	used := make(map[string]bool)
	if !req.Type.IsLab() {
		for _, e := range placed {
			if e.Day == day {
				used[e.Teacher] = true
			}
		}
	}

	maxLoad := 0
	if p.cfg != nil {
		maxLoad = p.cfg.MaxClassesPerTeacherPerDay
	}

	pool := make([]*model.Teacher, 0, len(teachers))
	for _, t := range teachers {
		if used[t.Name] {
			continue
		}
		if maxLoad > 0 && idx.TeacherLoad(t.Name, day) >= maxLoad {
			continue
		}
		pool = append(pool, t)
	}
	p.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool
}

func (p *PlacementEngine) shuffleRooms(rooms []*model.Room) []*model.Room {
	out := append([]*model.Room(nil), rooms...)
	p.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
