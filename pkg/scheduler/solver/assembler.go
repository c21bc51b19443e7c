// Package solver 提供课表组装器：随机贪心放置生成初始方案
package solver

import (
	"context"
	"math/rand"
	"sort"
	"time"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/logger"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/assign"
	"github.com/paiban/kebiao/pkg/scheduler/slots"
)

// Input 一次组装的输入快照
type Input struct {
	Config    *model.ConstraintConfig
	Offerings []model.CourseOffering
	Resources Resources
}

// Config 组装器配置
type Config struct {
	MaxAttempts int             `json:"max_attempts" mapstructure:"max_attempts"`
	MinEntries  int             `json:"min_entries" mapstructure:"min_entries"`
	Placement   PlacementConfig `json:"placement" mapstructure:"placement"`
	// Seed 为 0 时使用当前时间
	Seed int64 `json:"seed" mapstructure:"seed"`
}

// DefaultConfig 默认配置：最多 3 次，至少 100 条
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		MinEntries:  100,
		Placement:   DefaultPlacementConfig(),
	}
}

// Shortfall 未排满的需求
type Shortfall struct {
	Requirement model.SessionRequirement `json:"requirement"`
	Placed      int                      `json:"placed"`
	Missing     int                      `json:"missing"`
}

// Statistics 组装统计
type Statistics struct {
	TotalEntries       int     `json:"total_entries"`
	TotalRequirements  int     `json:"total_requirements"`
	FilledRequirements int     `json:"filled_requirements"`
	FillRate           float64 `json:"fill_rate"`
	Batches            int     `json:"batches"`
	Attempts           int     `json:"attempts"`
}

// Result 组装结果
type Result struct {
	Entries    []*model.Entry `json:"entries"`
	Shortfalls []Shortfall    `json:"shortfalls,omitempty"`
	Statistics *Statistics    `json:"statistics"`
	Duration   time.Duration  `json:"duration"`
}

// Candidate 包装为方案
func (r *Result) Candidate() *model.Candidate {
	return model.NewCandidate(r.Entries)
}

// BatchPlan 一个班级的排课需求
type BatchPlan struct {
	Batch        model.Batch
	Requirements []model.SessionRequirement
}

// PlanRequirements 按课程目录顺序把课程按班级分组并生成需求，每个班级内实验课在前
func PlanRequirements(offerings []model.CourseOffering, rules model.SessionRules) []BatchPlan {
	var plans []BatchPlan
	index := make(map[model.Batch]int)
	for _, o := range offerings {
		b := o.Batch()
		i, ok := index[b]
		if !ok {
			i = len(plans)
			index[b] = i
			plans = append(plans, BatchPlan{Batch: b})
		}
		plans[i].Requirements = append(plans[i].Requirements, model.NewSessionRequirement(o, rules))
	}
	for _, plan := range plans {
		reqs := plan.Requirements
		sort.SliceStable(reqs, func(i, j int) bool {
			return reqs[i].Type.IsLab() && !reqs[j].Type.IsLab()
		})
	}
	return plans
}

// Assembler 课表组装器
type Assembler struct {
	cfg      Config
	assigner assign.ResourceAssigner
	rng      *rand.Rand
	logger   *logger.SchedulerLogger
}

// NewAssembler 创建组装器，assigner 为空时使用资格分配
func NewAssembler(cfg Config, assigner assign.ResourceAssigner) *Assembler {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.MinEntries < 0 {
		cfg.MinEntries = def.MinEntries
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if assigner == nil {
		assigner = assign.NewQualificationAssigner()
	}
	return &Assembler{
		cfg:      cfg,
		assigner: assigner,
		rng:      rand.New(rand.NewSource(seed)),
		logger:   logger.NewSchedulerLogger(),
	}
}

// SetLogger 设置日志器
func (a *Assembler) SetLogger(l *logger.SchedulerLogger) {
	a.logger = l
}

// viable 检查方案规模是否达到最低要求
func (a *Assembler) viable(n int) bool {
	return n >= a.cfg.MinEntries
}

// Assemble 组装初始课表。规模不足时整体重试，全部失败返回 ASSEMBLY_SHORTFALL 和最好的一次结果
func (a *Assembler) Assemble(ctx context.Context, in *Input) (*Result, error) {
	if in == nil || in.Config == nil {
		return nil, apperrors.ConfigError("缺少排课规则")
	}
	start := time.Now()

	if err := slots.Check(in.Config); err != nil {
		logger.Warn().Err(err).Msg("排课规则自相矛盾，所有日期按零容量处理")
	}

	plans := PlanRequirements(in.Offerings, in.Config.SessionRules)
	totalReqs := 0
	for _, p := range plans {
		totalReqs += len(p.Requirements)
	}
	a.logger.StartAssembly(len(plans), totalReqs, len(in.Config.WorkingDays))

	engine := NewPlacementEngine(in.Config, a.assigner, a.rng, a.cfg.Placement)
	engine.SetLogger(a.logger)

	var best *Result
	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		res, err := a.attempt(ctx, engine, in, plans)
		if err != nil {
			return nil, err
		}
		res.Statistics.Attempts = attempt
		res.Statistics.TotalRequirements = totalReqs
		a.logger.AssemblyAttempt(attempt, a.cfg.MaxAttempts, len(res.Entries), a.cfg.MinEntries)

		if best == nil || len(res.Entries) > len(best.Entries) {
			best = res
		}
		if a.viable(len(res.Entries)) {
			best = res
			break
		}
	}

	best.Duration = time.Since(start)
	if !a.viable(len(best.Entries)) {
		return best, apperrors.AssemblyShortfall(len(best.Entries), a.cfg.MinEntries, a.cfg.MaxAttempts)
	}
	a.logger.AssemblyComplete(len(best.Entries), len(best.Shortfalls), best.Duration)
	return best, nil
}

// attempt 一次完整组装，占用索引在每次尝试时重建
func (a *Assembler) attempt(ctx context.Context, engine *PlacementEngine, in *Input, plans []BatchPlan) (*Result, error) {
	idx := NewOccupancyIndex(in.Config)
	res := &Result{Statistics: &Statistics{Batches: len(plans)}}

	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tpl := slots.Build(in.Config)
		for _, req := range plan.Requirements {
			placed, missing := engine.Place(req, tpl, idx, &in.Resources)
			res.Entries = append(res.Entries, placed...)
			if missing > 0 {
				res.Shortfalls = append(res.Shortfalls, Shortfall{Requirement: req, Placed: len(placed), Missing: missing})
			} else {
				res.Statistics.FilledRequirements++
			}
		}
	}

	res.Statistics.TotalEntries = len(res.Entries)
	if total := res.Statistics.FilledRequirements + len(res.Shortfalls); total > 0 {
		res.Statistics.FillRate = float64(res.Statistics.FilledRequirements) / float64(total) * 100
	}
	return res, nil
}
