package optimizer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/fitness"
	"github.com/paiban/kebiao/pkg/scheduler/optimizer"
	"github.com/paiban/kebiao/pkg/scheduler/solver"
	"github.com/paiban/kebiao/pkg/scheduler/solver/solvertest"
)

type constScorer float64

func (s constScorer) Score([]*model.Entry) float64 { return float64(s) }

func assembled(t *testing.T) (*solver.Input, *model.Candidate) {
	t.Helper()
	in := solvertest.Campus(solvertest.Options{Lectures: 11, Labs: 1})
	cfg := solver.DefaultConfig()
	cfg.Seed = 21
	res, err := solver.NewAssembler(cfg, nil).Assemble(context.Background(), in)
	require.NoError(t, err)
	return in, res.Candidate()
}

func smallConfig() optimizer.Config {
	cfg := optimizer.DefaultConfig()
	cfg.PopulationSize = 8
	cfg.Generations = 15
	cfg.MutationRate = 0.3
	cfg.Workers = 2
	cfg.Seed = 5
	return cfg
}

func TestGeneticOptimizer_NeverWorseThanInitial(t *testing.T) {
	in, initial := assembled(t)
	ev := fitness.NewEvaluator(in.Config, in.Resources.Teachers, fitness.DefaultWeights())
	before := model.CloneEntries(initial.Entries)

	opt := optimizer.NewGeneticOptimizer(smallConfig(), ev, in.Config, &in.Resources)
	res, err := opt.Optimize(context.Background(), initial)
	require.NoError(t, err)

	assert.InDelta(t, ev.Score(initial.Entries), res.InitialScore, 1e-12)
	assert.GreaterOrEqual(t, res.Best.Score, res.InitialScore)
	assert.Len(t, res.Best.Entries, initial.Len())
	for i := 1; i < len(res.History); i++ {
		assert.GreaterOrEqual(t, res.History[i], res.History[i-1])
	}

	for i, e := range initial.Entries {
		assert.Equal(t, *before[i], *e, "initial candidate must not be modified")
	}

	days := in.Config.Ordering().Days
	dayIndex := func(d string) int {
		for i, v := range days {
			if v == d {
				return i
			}
		}
		return len(days)
	}
	for i := 1; i < len(res.Best.Entries); i++ {
		prev, cur := res.Best.Entries[i-1], res.Best.Entries[i]
		if prev.Branch != cur.Branch {
			assert.Less(t, prev.Branch, cur.Branch)
			continue
		}
		if prev.Day != cur.Day {
			assert.Less(t, dayIndex(prev.Day), dayIndex(cur.Day))
			continue
		}
		assert.LessOrEqual(t, int(prev.Slot.Start), int(cur.Slot.Start))
	}
}

func TestGeneticOptimizer_StopReasons(t *testing.T) {
	in, initial := assembled(t)

	tests := []struct {
		name   string
		mutate func(cfg *optimizer.Config)
		reason optimizer.StopReason
		gens   int
	}{
		{"代数耗尽", func(cfg *optimizer.Config) {
			cfg.Generations = 5
			cfg.PlateauGenerations = 0
		}, optimizer.StopGenerations, 5},
		{"停滞", func(cfg *optimizer.Config) {
			cfg.Generations = 1000
			cfg.PlateauGenerations = 3
		}, optimizer.StopPlateau, 3},
		{"超时", func(cfg *optimizer.Config) {
			cfg.MaxTime = time.Nanosecond
		}, optimizer.StopTime, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := smallConfig()
			tt.mutate(&cfg)
			opt := optimizer.NewGeneticOptimizer(cfg, constScorer(0.5), in.Config, &in.Resources)

			res, err := opt.Optimize(context.Background(), initial)
			require.NoError(t, err)
			assert.Equal(t, tt.reason, res.StopReason)
			assert.Equal(t, tt.gens, res.Generations)
			assert.Len(t, res.History, tt.gens+1)
		})
	}
}

func TestGeneticOptimizer_Cancelled(t *testing.T) {
	in, initial := assembled(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opt := optimizer.NewGeneticOptimizer(smallConfig(), constScorer(0.5), in.Config, &in.Resources)
	_, err := opt.Optimize(ctx, initial)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGeneticOptimizer_Empty(t *testing.T) {
	ev := fitness.NewEvaluator(nil, nil, fitness.DefaultWeights())
	opt := optimizer.NewGeneticOptimizer(smallConfig(), ev, nil, nil)

	res, err := opt.Optimize(context.Background(), model.NewCandidate(nil))
	require.NoError(t, err)
	assert.Equal(t, optimizer.StopEmpty, res.StopReason)
	assert.Equal(t, 0.0, res.Best.Score)
}

func TestGeneticOptimizer_Polish(t *testing.T) {
	in, initial := assembled(t)
	ev := fitness.NewEvaluator(in.Config, in.Resources.Teachers, fitness.DefaultWeights())

	cfg := smallConfig()
	cfg.Generations = 2
	cfg.PolishIterations = 50
	res, err := optimizer.NewGeneticOptimizer(cfg, ev, in.Config, &in.Resources).Optimize(context.Background(), initial)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Best.Score, res.History[len(res.History)-1])
}
