package optimizer

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/paiban/kebiao/pkg/logger"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/solver"
)

// StopReason 终止原因
type StopReason string

const (
	StopGenerations StopReason = "generations"
	StopTime        StopReason = "time"
	StopPlateau     StopReason = "plateau"
	StopEmpty       StopReason = "empty"
)

// Config 遗传算法配置
type Config struct {
	PopulationSize     int           `json:"population_size" mapstructure:"population_size"`
	Generations        int           `json:"generations" mapstructure:"generations"`
	MutationRate       float64       `json:"mutation_rate" mapstructure:"mutation_rate"`
	MutationFraction   float64       `json:"mutation_fraction" mapstructure:"mutation_fraction"`
	PerturbFraction    float64       `json:"perturb_fraction" mapstructure:"perturb_fraction"`
	EliteSize          int           `json:"elite_size" mapstructure:"elite_size"`
	TournamentSize     int           `json:"tournament_size" mapstructure:"tournament_size"`
	MaxTime            time.Duration `json:"max_time" mapstructure:"max_time"`
	PlateauGenerations int           `json:"plateau_generations" mapstructure:"plateau_generations"`
	Workers            int           `json:"workers" mapstructure:"workers"`
	// PolishIterations 进化结束后对最优解做爬山搜索的次数，0 表示不做
	PolishIterations int `json:"polish_iterations" mapstructure:"polish_iterations"`
	// Seed 为 0 时使用当前时间
	Seed int64 `json:"seed" mapstructure:"seed"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		PopulationSize:     20,
		Generations:        200,
		MutationRate:       0.05,
		MutationFraction:   0.02,
		PerturbFraction:    0.1,
		EliteSize:          3,
		TournamentSize:     3,
		MaxTime:            60 * time.Second,
		PlateauGenerations: 50,
	}
}

// Result 优化结果
type Result struct {
	Best         *model.Candidate `json:"best"`
	InitialScore float64          `json:"initial_score"`
	Generations  int              `json:"generations"`
	StopReason   StopReason       `json:"stop_reason"`
	History      []float64        `json:"history"`
	Duration     time.Duration    `json:"duration"`
}

// GeneticOptimizer 遗传算法优化器：锦标赛选择、单点交叉、变异与精英保留
type GeneticOptimizer struct {
	cfg       Config
	scorer    Scorer
	evaluator *ParallelEvaluator
	perturber *Perturber
	rng       *rand.Rand
	ordering  model.Ordering
	logger    *logger.SchedulerLogger
}

// NewGeneticOptimizer 创建优化器。rules 提供扰动用的日期与时间段网格，res 提供可换的教室
func NewGeneticOptimizer(cfg Config, scorer Scorer, rules *model.ConstraintConfig, res *solver.Resources) *GeneticOptimizer {
	def := DefaultConfig()
	if cfg.PopulationSize < 2 {
		cfg.PopulationSize = def.PopulationSize
	}
	if cfg.TournamentSize <= 0 {
		cfg.TournamentSize = def.TournamentSize
	}
	if cfg.EliteSize < 0 {
		cfg.EliteSize = 0
	}
	if cfg.EliteSize >= cfg.PopulationSize {
		cfg.EliteSize = cfg.PopulationSize - 1
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	ordering := model.DefaultOrdering()
	if rules != nil {
		ordering = rules.Ordering()
	}
	return &GeneticOptimizer{
		cfg:       cfg,
		scorer:    scorer,
		evaluator: NewParallelEvaluator(cfg.Workers, scorer),
		perturber: NewPerturber(rules, res, rng),
		rng:       rng,
		ordering:  ordering,
		logger:    logger.NewSchedulerLogger(),
	}
}

// SetLogger 设置日志器
func (o *GeneticOptimizer) SetLogger(l *logger.SchedulerLogger) {
	o.logger = l
}

// Optimize 从初始方案开始进化，返回各代中出现过的最优方案（按 年级、专业、星期、开始时间 排序）。
// 代数、时间、停滞三者先到者终止，ctx 取消时返回 ctx.Err()
func (o *GeneticOptimizer) Optimize(ctx context.Context, initial *model.Candidate) (*Result, error) {
	start := time.Now()
	if initial == nil {
		initial = model.NewCandidate(nil)
	}

	seedCand := initial.Clone()
	if seedCand.Len() == 0 {
		seedCand.Score = o.scorer.Score(seedCand.Entries)
		return &Result{Best: seedCand, InitialScore: seedCand.Score, StopReason: StopEmpty, Duration: time.Since(start)}, nil
	}

	pop := o.initPopulation(seedCand)
	if err := o.evaluator.EvaluateAll(ctx, pop); err != nil {
		return nil, err
	}

	best := FindBest(pop)
	result := &Result{
		InitialScore: pop[0].Score,
		StopReason:   StopGenerations,
		History:      []float64{best.Score},
	}

	stall := 0
	for result.Generations < o.cfg.Generations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if o.cfg.MaxTime > 0 && time.Since(start) >= o.cfg.MaxTime {
			result.StopReason = StopTime
			break
		}

		next, err := o.nextGeneration(ctx, pop)
		if err != nil {
			return nil, err
		}
		pop = next
		result.Generations++

		if genBest := FindBest(pop); genBest.Score > best.Score {
			best = genBest
			stall = 0
		} else {
			stall++
		}
		result.History = append(result.History, best.Score)
		o.logger.GenerationProgress(result.Generations, best.Score, MeanScore(pop))

		if o.cfg.PlateauGenerations > 0 && stall >= o.cfg.PlateauGenerations {
			result.StopReason = StopPlateau
			break
		}
	}

	if o.cfg.PolishIterations > 0 {
		remaining := time.Duration(0)
		if o.cfg.MaxTime > 0 {
			remaining = o.cfg.MaxTime - time.Since(start)
		}
		if o.cfg.MaxTime == 0 || remaining > 0 {
			best, _ = NewHillClimber(o.scorer, o.perturber, o.cfg.PolishIterations, remaining).Improve(ctx, best)
		}
	}

	result.Best = best.Clone()
	model.SortEntries(result.Best.Entries, o.ordering)
	result.Duration = time.Since(start)
	o.logger.OptimizeComplete(result.Generations, result.InitialScore, result.Best.Score, string(result.StopReason), result.Duration)
	return result, nil
}

// initPopulation 第一个成员为初始方案，其余为其扰动副本
func (o *GeneticOptimizer) initPopulation(seed *model.Candidate) []*model.Candidate {
	n := atLeastOne(o.cfg.PerturbFraction, seed.Len())
	pop := make([]*model.Candidate, o.cfg.PopulationSize)
	pop[0] = seed
	for i := 1; i < len(pop); i++ {
		pop[i] = o.perturber.Perturb(seed, n)
	}
	return pop
}

// nextGeneration 精英直接保留，其余由 选择+交叉+变异 产生并评估
func (o *GeneticOptimizer) nextGeneration(ctx context.Context, pop []*model.Candidate) ([]*model.Candidate, error) {
	next := make([]*model.Candidate, 0, len(pop))
	next = append(next, elites(pop, o.cfg.EliteSize)...)

	children := make([]*model.Candidate, 0, len(pop)-len(next))
	for len(next)+len(children) < len(pop) {
		child := o.crossover(o.tournament(pop), o.tournament(pop))
		if o.rng.Float64() < o.cfg.MutationRate {
			child = o.perturber.Perturb(child, atLeastOne(o.cfg.MutationFraction, child.Len()))
		}
		children = append(children, child)
	}
	if err := o.evaluator.EvaluateAll(ctx, children); err != nil {
		return nil, err
	}
	return append(next, children...), nil
}

// tournament 随机抽取 k 个成员，返回最优者
func (o *GeneticOptimizer) tournament(pop []*model.Candidate) *model.Candidate {
	var best *model.Candidate
	for i := 0; i < o.cfg.TournamentSize; i++ {
		c := pop[o.rng.Intn(len(pop))]
		if best == nil || c.Score > best.Score {
			best = c
		}
	}
	return best
}

// crossover 单点交叉：a 的前段接 b 的后段，记录共享。
// 拼接结果可能存在冲突，由适应度函数惩罚
func (o *GeneticOptimizer) crossover(a, b *model.Candidate) *model.Candidate {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	point := 0
	if n > 0 {
		point = o.rng.Intn(n)
	}
	entries := make([]*model.Entry, 0, b.Len())
	entries = append(entries, a.Entries[:point]...)
	entries = append(entries, b.Entries[point:]...)
	return model.NewCandidate(entries)
}

// elites 返回得分最高的 n 个成员
func elites(pop []*model.Candidate, n int) []*model.Candidate {
	if n <= 0 {
		return nil
	}
	sorted := append([]*model.Candidate(nil), pop...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

func atLeastOne(fraction float64, size int) int {
	n := int(fraction * float64(size))
	if n < 1 {
		n = 1
	}
	return n
}
