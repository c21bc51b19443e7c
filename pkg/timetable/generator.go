package timetable

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/logger"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/assign"
	"github.com/paiban/kebiao/pkg/scheduler/fitness"
	"github.com/paiban/kebiao/pkg/scheduler/optimizer"
	"github.com/paiban/kebiao/pkg/scheduler/solver"
)

// DefaultTimeout 单次生成的时限
const DefaultTimeout = 3 * time.Minute

// GeneratorConfig 生成流程配置
type GeneratorConfig struct {
	Timeout   time.Duration    `json:"timeout" mapstructure:"timeout"`
	Assembler solver.Config    `json:"assembler" mapstructure:"assembler"`
	Optimizer optimizer.Config `json:"optimizer" mapstructure:"optimizer"`
	// SkipOptimize 为 true 时直接提交组装结果
	SkipOptimize bool            `json:"skip_optimize" mapstructure:"skip_optimize"`
	Weights      fitness.Weights `json:"weights" mapstructure:"weights"`
}

// DefaultGeneratorConfig 默认配置
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Timeout:   DefaultTimeout,
		Assembler: solver.DefaultConfig(),
		Optimizer: optimizer.DefaultConfig(),
		Weights:   fitness.DefaultWeights(),
	}
}

// GenerationResult 一次成功生成的摘要
type GenerationResult struct {
	Snapshot     *Snapshot          `json:"snapshot"`
	Statistics   *solver.Statistics `json:"statistics"`
	Shortfalls   []solver.Shortfall `json:"shortfalls,omitempty"`
	InitialScore float64            `json:"initial_score"`
	Generations  int                `json:"generations"`
	StopReason   string             `json:"stop_reason,omitempty"`
	Breakdown    fitness.Breakdown  `json:"breakdown"`
	Duration     time.Duration      `json:"duration"`
}

// Observer 接收生成结果，outcome 为 success/shortfall/timeout/error
type Observer interface {
	ObserveGeneration(outcome string, duration time.Duration, entries int, score float64)
}

// Generator 生成流程：读取输入、组装、优化、提交。同一进程同时只允许一次生成
type Generator struct {
	cfg      GeneratorConfig
	rules    ConfigProvider
	pool     ResourcePool
	store    *Store
	assigner assign.ResourceAssigner
	observer Observer
	logger   *logger.SchedulerLogger

	running atomic.Bool
}

// NewGenerator 创建生成器
func NewGenerator(cfg GeneratorConfig, rules ConfigProvider, pool ResourcePool, store *Store) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Weights == (fitness.Weights{}) {
		cfg.Weights = fitness.DefaultWeights()
	}
	return &Generator{
		cfg:      cfg,
		rules:    rules,
		pool:     pool,
		store:    store,
		assigner: assign.NewQualificationAssigner(),
		logger:   logger.NewSchedulerLogger(),
	}
}

// SetObserver 设置结果观察者
func (g *Generator) SetObserver(o Observer) {
	g.observer = o
}

// SetLogger 设置日志器
func (g *Generator) SetLogger(l *logger.SchedulerLogger) {
	g.logger = l
}

// Running 是否有生成在进行
func (g *Generator) Running() bool {
	return g.running.Load()
}

type outcome struct {
	result  *GenerationResult
	entries []*model.Entry
	err     error
}

// Generate 在时限内运行一次完整生成并提交。
// 超时返回 TIMEOUT 并丢弃部分结果；被放弃的后台流程退出时才释放运行标志
func (g *Generator) Generate(ctx context.Context) (*GenerationResult, error) {
	if !g.running.CompareAndSwap(false, true) {
		return nil, apperrors.GenerationInProgress()
	}

	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	done := make(chan outcome)
	abandoned := make(chan struct{})
	go func() {
		res, entries, err := g.run(runCtx)
		select {
		case done <- outcome{result: res, entries: entries, err: err}:
		case <-abandoned:
			g.running.Store(false)
		}
	}()

	select {
	case out := <-done:
		defer g.running.Store(false)
		if out.err != nil {
			return nil, g.fail(ctx, out.err, start)
		}
		out.result.Snapshot = g.store.Commit(ctx, out.entries, out.result.Snapshot.Score)
		out.result.Duration = time.Since(start)
		g.observe("success", out.result.Duration, len(out.entries), out.result.Snapshot.Score)
		logger.Info().
			Int64("version", out.result.Snapshot.Version).
			Int("entries", len(out.entries)).
			Float64("score", out.result.Snapshot.Score).
			Dur("duration", out.result.Duration).
			Msg("课表已提交")
		return out.result, nil
	case <-runCtx.Done():
		close(abandoned)
		return nil, g.fail(ctx, runCtx.Err(), start)
	}
}

func (g *Generator) fail(parent context.Context, err error, start time.Time) error {
	d := time.Since(start)
	switch {
	case errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil:
		g.observe("timeout", d, 0, 0)
		logger.Warn().Dur("budget", g.cfg.Timeout).Msg("课表生成超时，结果已丢弃")
		return apperrors.Timeout(g.cfg.Timeout)
	case apperrors.Is(err, apperrors.CodeAssemblyShortfall):
		g.observe("shortfall", d, 0, 0)
		return err
	default:
		g.observe("error", d, 0, 0)
		return err
	}
}

func (g *Generator) observe(outcome string, d time.Duration, entries int, score float64) {
	if g.observer != nil {
		g.observer.ObserveGeneration(outcome, d, entries, score)
	}
}

// run 生成流程本体，不触碰存储
func (g *Generator) run(ctx context.Context) (*GenerationResult, []*model.Entry, error) {
	in, err := LoadInput(ctx, g.rules, g.pool)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	assembler := solver.NewAssembler(g.cfg.Assembler, g.assigner)
	assembler.SetLogger(g.logger)
	assembled, err := assembler.Assemble(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	evaluator := fitness.NewEvaluator(in.Config, in.Resources.Teachers, g.cfg.Weights)
	result := &GenerationResult{
		Statistics: assembled.Statistics,
		Shortfalls: assembled.Shortfalls,
	}

	best := assembled.Candidate()
	best.Score = evaluator.Score(best.Entries)
	result.InitialScore = best.Score

	if !g.cfg.SkipOptimize {
		opt := optimizer.NewGeneticOptimizer(g.cfg.Optimizer, evaluator, in.Config, &in.Resources)
		opt.SetLogger(g.logger)
		optimized, err := opt.Optimize(ctx, best)
		if err != nil {
			return nil, nil, err
		}
		result.Generations = optimized.Generations
		result.StopReason = string(optimized.StopReason)
		if optimized.Best != nil {
			best = optimized.Best
		}
	} else {
		model.SortEntries(best.Entries, in.Config.Ordering())
	}

	eval := evaluator.Evaluate(best.Entries)
	result.Breakdown = eval.Breakdown
	result.Snapshot = &Snapshot{Score: eval.Score}
	return result, best.Entries, nil
}
