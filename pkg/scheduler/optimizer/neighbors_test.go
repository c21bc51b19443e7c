package optimizer

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/solver"
)

func sampleCandidate() *model.Candidate {
	slot := model.TimeSlot{Start: model.MustClock("09:30"), End: model.MustClock("10:30")}
	var entries []*model.Entry
	for i, course := range []string{"DE", "EC", "EG", "PPS"} {
		typ := model.SessionLecture
		room := "011"
		if course == "PPS" {
			typ, room = model.SessionLab, "IoT Lab"
		}
		entries = append(entries, &model.Entry{
			Year: "firstYear", Branch: "CST", Course: course, Teacher: "T" + course,
			Room: room, Day: model.DefaultWorkingDays[i], Slot: slot, Type: typ,
		})
	}
	return model.NewCandidate(entries)
}

func testResources() *solver.Resources {
	return &solver.Resources{
		Rooms: []*model.Room{{Name: "011"}, {Name: "012"}},
		Labs:  []*model.Room{{Name: "IoT Lab", Lab: true}, {Name: "AI Lab", Lab: true}},
	}
}

func TestPerturber_CopyOnWrite(t *testing.T) {
	cfg := model.DefaultConstraintConfig()
	p := NewPerturber(cfg, testResources(), rand.New(rand.NewSource(1)))
	orig := sampleCandidate()
	before := model.CloneEntries(orig.Entries)

	for i := 0; i < 50; i++ {
		out := p.Perturb(orig, 2)
		require.Len(t, out.Entries, len(orig.Entries))

		changed := 0
		for j := range out.Entries {
			if out.Entries[j] != orig.Entries[j] {
				changed++
				assert.Equal(t, orig.Entries[j].ID, out.Entries[j].ID)
			}
		}
		assert.Equal(t, 2, changed)
	}
	for i, e := range orig.Entries {
		assert.Equal(t, *before[i], *e)
	}
}

func TestPerturber_StaysOnGrid(t *testing.T) {
	cfg := model.DefaultConstraintConfig()
	p := NewPerturber(cfg, testResources(), rand.New(rand.NewSource(2)))

	labs := map[string]bool{"IoT Lab": true, "AI Lab": true}
	for i := 0; i < 200; i++ {
		out := p.Perturb(sampleCandidate(), 4)
		for _, e := range out.Entries {
			assert.True(t, cfg.IsWorkingDay(e.Day))
			assert.False(t, e.Slot.Overlaps(cfg.Lunch()))
			if e.Type.IsLab() {
				assert.True(t, labs[e.Room], "lab moved to %s", e.Room)
			} else {
				assert.False(t, labs[e.Room], "lecture moved to %s", e.Room)
			}
		}
	}
}

func TestCrossover_Splice(t *testing.T) {
	o := NewGeneticOptimizer(DefaultConfig(), nil, model.DefaultConstraintConfig(), testResources())
	o.rng = rand.New(rand.NewSource(3))

	a := sampleCandidate()
	b := sampleCandidate()
	for i := 0; i < 20; i++ {
		child := o.crossover(a, b)
		require.Len(t, child.Entries, a.Len())

		split := 0
		for split < len(child.Entries) && child.Entries[split] == a.Entries[split] {
			split++
		}
		for j := split; j < len(child.Entries); j++ {
			assert.Same(t, b.Entries[j], child.Entries[j])
		}
	}
}

func TestElites(t *testing.T) {
	pop := []*model.Candidate{{Score: 0.2}, {Score: 0.9}, {Score: 0.5}, {Score: 0.7}}
	top := elites(pop, 2)
	require.Len(t, top, 2)
	assert.Equal(t, 0.9, top[0].Score)
	assert.Equal(t, 0.7, top[1].Score)
	assert.Equal(t, 0.2, pop[0].Score, "population order must be kept")
	assert.Nil(t, elites(pop, 0))
}

type countScorer struct{}

func (countScorer) Score(entries []*model.Entry) float64 {
	n := 0
	for _, e := range entries {
		if e.Day == "Monday" {
			n++
		}
	}
	return float64(n)
}

func TestParallelEvaluator_EvaluateAll(t *testing.T) {
	pop := make([]*model.Candidate, 10)
	for i := range pop {
		pop[i] = sampleCandidate()
	}
	require.NoError(t, NewParallelEvaluator(3, countScorer{}).EvaluateAll(context.Background(), pop))
	for _, c := range pop {
		assert.Equal(t, 1.0, c.Score)
	}
	assert.Equal(t, 1.0, MeanScore(pop))
	assert.Same(t, pop[0], FindBest(pop))
}

func TestHillClimber_NeverWorse(t *testing.T) {
	cfg := model.DefaultConstraintConfig()
	p := NewPerturber(cfg, testResources(), rand.New(rand.NewSource(4)))
	start := sampleCandidate()
	start.Score = countScorer{}.Score(start.Entries)

	improved, accepted := NewHillClimber(countScorer{}, p, 200, 0).Improve(context.Background(), start)
	assert.GreaterOrEqual(t, improved.Score, start.Score)
	if accepted > 0 {
		assert.Greater(t, improved.Score, start.Score)
	}
	assert.Equal(t, 1.0, countScorer{}.Score(start.Entries))
}
