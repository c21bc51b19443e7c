package stats

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kebiao/pkg/model"
)

func createEntry(branch, course, teacher, room, day, slot string) *model.Entry {
	ts, err := model.ParseTimeSlot(slot)
	if err != nil {
		panic(err)
	}
	typ := model.SessionLecture
	if model.IsLabName(room) {
		typ = model.SessionLab
	}
	return &model.Entry{
		ID: uuid.New(), Year: "firstYear", Branch: branch, Course: course,
		Teacher: teacher, Room: room, Day: day, Slot: ts, Type: typ,
	}
}

func TestFairnessAnalyzer_Analyze(t *testing.T) {
	analyzer := NewFairnessAnalyzer(nil)
	teachers := []*model.Teacher{{Name: "Dr. A"}, {Name: "Dr. B"}, {Name: "Dr. C"}}
	entries := []*model.Entry{
		createEntry("CST", "DE", "Dr. A", "011", "Monday", "08:30-09:30"),
		createEntry("CST", "DE", "Dr. A", "011", "Tuesday", "08:30-09:30"),
		createEntry("IT", "DE", "Dr. A", "012", "Tuesday", "09:30-10:30"),
		createEntry("IT", "EC", "Dr. B", "012", "Monday", "15:15-16:15"),
	}

	m := analyzer.Analyze(entries, teachers)
	require.Len(t, m.TeacherStats, 3)
	assert.Equal(t, "Dr. A", m.TeacherStats[0].Teacher)
	assert.Equal(t, 3, m.TeacherStats[0].Sessions)
	assert.Equal(t, 2, m.TeacherStats[0].DaysTeaching)
	assert.Equal(t, 2, m.TeacherStats[0].MaxPerDay)
	assert.Equal(t, 1, m.TeacherStats[1].LateSessions)
	assert.Equal(t, "Dr. C", m.TeacherStats[2].Teacher)
	assert.Zero(t, m.TeacherStats[2].Sessions)
	assert.Equal(t, 3, m.MaxSessions)
	assert.Equal(t, 0, m.MinSessions)
	assert.Greater(t, m.WorkloadGini, 0.0)
	assert.Less(t, m.OverallFairnessScore, 100.0)
	assert.Equal(t, 100.0, m.SessionTypeDistribution["lecture"])

	require.Len(t, m.BatchSpread, 2)
	assert.Equal(t, "CST", m.BatchSpread[0].Batch.Branch)
	assert.Equal(t, 2, m.BatchSpread[0].Sessions)
	assert.Equal(t, 1, m.BatchSpread[0].PerDay["Monday"])
}

func TestFairnessAnalyzer_Empty(t *testing.T) {
	m := NewFairnessAnalyzer(nil).Analyze(nil, nil)
	assert.Equal(t, 100.0, m.OverallFairnessScore)
	assert.NotNil(t, m.SessionTypeDistribution)
}

func TestCalculateGini(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"完全平均", []float64{4, 4, 4, 4}, 0},
		{"全部为零", []float64{0, 0}, 0},
		{"一人承担", []float64{0, 0, 0, 8}, 0.75},
		{"空", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calculateGini(tt.values), 1e-9)
		})
	}
}

func TestCompareSchedules(t *testing.T) {
	analyzer := NewFairnessAnalyzer(nil)
	teachers := []*model.Teacher{{Name: "Dr. A"}, {Name: "Dr. B"}}
	uneven := []*model.Entry{
		createEntry("CST", "DE", "Dr. A", "011", "Monday", "08:30-09:30"),
		createEntry("CST", "EC", "Dr. A", "011", "Tuesday", "08:30-09:30"),
	}
	even := []*model.Entry{
		createEntry("CST", "DE", "Dr. A", "011", "Monday", "08:30-09:30"),
		createEntry("CST", "EC", "Dr. B", "011", "Tuesday", "08:30-09:30"),
	}

	diff := analyzer.CompareSchedules(uneven, even, teachers)
	assert.Less(t, diff["workload_gini_diff"], 0.0)
	assert.Greater(t, diff["overall_score_diff"], 0.0)
}
