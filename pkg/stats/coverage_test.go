package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kebiao/pkg/model"
)

func TestCoverageAnalyzer_Analyze(t *testing.T) {
	cfg := model.DefaultConstraintConfig()
	analyzer := NewCoverageAnalyzer(cfg)

	offerings := []model.CourseOffering{
		{Year: "firstYear", Branch: "CST", Course: "DE", Type: model.SessionLecture},
		{Year: "firstYear", Branch: "CST", Course: "PPS", Type: model.SessionLab},
	}
	entries := []*model.Entry{
		createEntry("CST", "DE", "Dr. A", "011", "Monday", "08:30-09:30"),
		createEntry("CST", "DE", "Dr. A", "011", "Tuesday", "08:30-09:30"),
		createEntry("CST", "DE", "Dr. A", "011", "Wednesday", "08:30-09:30"),
		createEntry("CST", "PPS", "Dr. B", "IoT Lab", "Monday", "08:30-09:30"),
	}
	rooms := []*model.Room{{Name: "011"}, {Name: "012"}, {Name: "IoT Lab", Lab: true}}

	m := analyzer.Analyze(offerings, entries, rooms)
	assert.Equal(t, 5, m.RequiredSessions)
	assert.Equal(t, 4, m.PlacedSessions)
	assert.InDelta(t, 80.0, m.OverallCoverage, 1e-9)
	assert.InDelta(t, 100.0, m.TypeCoverage["lecture"], 1e-9)
	assert.InDelta(t, 50.0, m.TypeCoverage["lab"], 1e-9)

	require.Len(t, m.Uncovered, 1)
	assert.Equal(t, "PPS", m.Uncovered[0].Course)
	assert.Equal(t, 1, m.Uncovered[0].Missing)

	assert.Equal(t, 40, m.SlotCapacity)
	assert.InDelta(t, 3.0/40*100, m.RoomUtilization["011"], 1e-9)
	assert.Equal(t, []string{"012"}, m.IdleRooms)
	assert.Equal(t, 2, m.DailyLoad["Monday"])

	require.Len(t, m.SlotLoad, 40)
	assert.Equal(t, SlotLoad{Day: "Monday", Time: "08:30-09:30", Sessions: 2, Labs: 1}, m.SlotLoad[0])

	report := analyzer.GenerateCoverageReport(m)
	assert.Contains(t, report, "覆盖率: 80.0%")
	assert.Contains(t, report, "PPS")
	assert.Contains(t, report, "012")
}

func TestCoverageAnalyzer_NoOfferings(t *testing.T) {
	m := NewCoverageAnalyzer(nil).Analyze(nil, nil, nil)
	assert.Equal(t, 100.0, m.OverallCoverage)
	assert.Empty(t, m.Uncovered)
}
