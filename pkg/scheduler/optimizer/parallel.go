package optimizer

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/paiban/kebiao/pkg/model"
)

// Scorer 方案评分函数，须可并发调用
type Scorer interface {
	Score(entries []*model.Entry) float64
}

// ParallelEvaluator 并行评估器
type ParallelEvaluator struct {
	workers int
	scorer  Scorer
}

// NewParallelEvaluator 创建并行评估器，workers<=0 时使用 GOMAXPROCS
func NewParallelEvaluator(workers int, scorer Scorer) *ParallelEvaluator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &ParallelEvaluator{
		workers: workers,
		scorer:  scorer,
	}
}

// EvaluateAll 并行评估并写回每个方案的 Score。每个协程只写自己的方案
func (p *ParallelEvaluator) EvaluateAll(ctx context.Context, candidates []*model.Candidate) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for _, c := range candidates {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c.Score = p.scorer.Score(c.Entries)
			return nil
		})
	}
	return g.Wait()
}

// FindBest 返回得分最高的方案，同分取靠前者
func FindBest(candidates []*model.Candidate) *model.Candidate {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best
}

// MeanScore 平均得分
func MeanScore(candidates []*model.Candidate) float64 {
	if len(candidates) == 0 {
		return 0
	}
	var sum float64
	for _, c := range candidates {
		sum += c.Score
	}
	return sum / float64(len(candidates))
}
