package optimizer

import (
	"context"
	"time"

	"github.com/paiban/kebiao/pkg/model"
)

// HillClimber 单记录扰动的爬山搜索，只接受更优的邻域解
type HillClimber struct {
	scorer     Scorer
	perturber  *Perturber
	iterations int
	maxTime    time.Duration
}

// NewHillClimber 创建爬山搜索
func NewHillClimber(scorer Scorer, perturber *Perturber, iterations int, maxTime time.Duration) *HillClimber {
	return &HillClimber{
		scorer:     scorer,
		perturber:  perturber,
		iterations: iterations,
		maxTime:    maxTime,
	}
}

// Improve 从 c 出发搜索，返回不差于 c 的方案，c 本身不被修改
func (h *HillClimber) Improve(ctx context.Context, c *model.Candidate) (*model.Candidate, int) {
	start := time.Now()
	current := c
	accepted := 0
	for i := 0; i < h.iterations; i++ {
		if ctx.Err() != nil {
			break
		}
		if h.maxTime > 0 && time.Since(start) >= h.maxTime {
			break
		}
		neighbor := h.perturber.Perturb(current, 1)
		neighbor.Score = h.scorer.Score(neighbor.Entries)
		if neighbor.Score > current.Score {
			current = neighbor
			accepted++
		}
	}
	return current, accepted
}
