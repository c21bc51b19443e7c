package builtin

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/constraint"
	"github.com/paiban/kebiao/pkg/scheduler/solver"
	"github.com/paiban/kebiao/pkg/scheduler/solver/solvertest"
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
		ID:      uuid.New(),
		Year:    "firstYear",
		Branch:  branch,
		Course:  course,
		Teacher: teacher,
		Room:    room,
		Day:     day,
		Slot:    ts,
		Type:    typ,
	}
}

func createTestContext(teachers []*model.Teacher, entries ...*model.Entry) *constraint.Context {
	ctx := constraint.NewContext(model.DefaultConstraintConfig(), teachers)
	ctx.SetEntries(entries)
	return ctx
}

func TestClashConstraints(t *testing.T) {
	a := createEntry("CST", "DE", "Dr. A", "011", "Monday", "09:30-10:30")

	tests := []struct {
		name    string
		other   *model.Entry
		teacher bool
		room    bool
		batch   bool
	}{
		{"教师重复", createEntry("IT", "EC", "Dr. A", "012", "Monday", "09:30-10:30"), false, true, true},
		{"教室重复", createEntry("IT", "EC", "Dr. B", "011", "Monday", "09:30-10:30"), true, false, true},
		{"班级重复", createEntry("CST", "EC", "Dr. B", "012", "Monday", "09:30-10:30"), true, true, false},
		{"不同时间段", createEntry("CST", "DE", "Dr. A", "011", "Monday", "10:30-11:30"), true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := createTestContext(nil, a, tt.other)

			for _, c := range []struct {
				rule *ClashConstraint
				want bool
			}{
				{NewTeacherClashConstraint(), tt.teacher},
				{NewRoomClashConstraint(), tt.room},
				{NewBatchClashConstraint(), tt.batch},
			} {
				valid, penalty, details := c.rule.Evaluate(ctx)
				assert.Equal(t, c.want, valid, c.rule.Name())
				if c.want {
					assert.Zero(t, penalty)
					continue
				}
				require.Len(t, details, 1)
				assert.Equal(t, []uuid.UUID{tt.other.ID, a.ID}, details[0].Entries)
				assert.Equal(t, "Monday", details[0].Day)
				assert.Equal(t, "09:30-10:30", details[0].Time)
				assert.Equal(t, 100, penalty)

				ok, _ := c.rule.EvaluateEntry(createTestContext(nil, a), tt.other)
				assert.False(t, ok)
			}
		})
	}
}

func TestLabExclusiveConstraint(t *testing.T) {
	c := NewLabExclusiveConstraint()
	a := createEntry("CST", "PPS", "Dr. A", "IoT Lab", "Tuesday", "14:15-15:15")
	b := createEntry("IT", "DS", "Dr. B", "DBMS Lab", "Tuesday", "14:15-15:15")
	lecture := createEntry("ECE", "EC", "Dr. C", "011", "Tuesday", "14:15-15:15")

	valid, penalty, details := c.Evaluate(createTestContext(nil, a, b, lecture))
	assert.False(t, valid)
	assert.Equal(t, 90, penalty)
	require.Len(t, details, 1)
	assert.Equal(t, []uuid.UUID{b.ID, a.ID}, details[0].Entries)

	ok, _ := c.EvaluateEntry(createTestContext(nil, a), lecture)
	assert.True(t, ok, "理论课不受实验室独占限制")
}

func TestTeacherDailyLoadConstraint(t *testing.T) {
	c := NewTeacherDailyLoadConstraint(2)
	entries := []*model.Entry{
		createEntry("CST", "DE", "Dr. A", "011", "Monday", "08:30-09:30"),
		createEntry("IT", "DE", "Dr. A", "012", "Monday", "10:30-11:30"),
		createEntry("ECE", "DE", "Dr. A", "013", "Monday", "14:15-15:15"),
		createEntry("CST", "DE", "Dr. A", "011", "Tuesday", "08:30-09:30"),
	}

	valid, penalty, details := c.Evaluate(createTestContext(nil, entries...))
	assert.False(t, valid)
	assert.Equal(t, 80, penalty)
	require.Len(t, details, 1)
	assert.Len(t, details[0].Entries, 3)
	assert.Equal(t, "Monday", details[0].Day)

	ok, _ := c.EvaluateEntry(createTestContext(nil, entries[:2]...), entries[2])
	assert.False(t, ok)
	ok, _ = c.EvaluateEntry(createTestContext(nil, entries[:1]...), entries[1])
	assert.True(t, ok)

	valid, _, _ = NewTeacherDailyLoadConstraint(0).Evaluate(createTestContext(nil, entries...))
	assert.True(t, valid, "上限为 0 表示不限制")
}

func TestNoBackToBackConstraint(t *testing.T) {
	tests := []struct {
		name      string
		second    *model.Entry
		wantValid bool
	}{
		{"同课程相邻", createEntry("CST", "DE", "Dr. B", "012", "Monday", "10:30-11:30"), false},
		{"不同课程相邻", createEntry("CST", "EC", "Dr. B", "012", "Monday", "10:30-11:30"), true},
		{"同课程有间隔", createEntry("CST", "DE", "Dr. B", "012", "Monday", "11:30-12:30"), true},
		{"其他班级", createEntry("IT", "DE", "Dr. B", "012", "Monday", "10:30-11:30"), true},
	}

	c := NewNoBackToBackConstraint()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := createEntry("CST", "DE", "Dr. A", "011", "Monday", "09:30-10:30")
			valid, _, details := c.Evaluate(createTestContext(nil, tt.second, first))
			assert.Equal(t, tt.wantValid, valid)
			if !tt.wantValid {
				require.Len(t, details, 1)
				assert.Equal(t, "10:30-11:30", details[0].Time)
			}

			ok, _ := c.EvaluateEntry(createTestContext(nil, first), tt.second)
			assert.Equal(t, tt.wantValid, ok)
		})
	}
}

func TestWeeklyCountConstraint(t *testing.T) {
	c := NewWeeklyCountConstraint(model.DefaultSessionRules())
	var entries []*model.Entry
	for _, day := range []string{"Monday", "Tuesday", "Wednesday", "Thursday"} {
		entries = append(entries, createEntry("CST", "DE", "Dr. A", "011", day, "09:30-10:30"))
	}
	entries = append(entries, createEntry("IT", "DE", "Dr. A", "011", "Friday", "09:30-10:30"))

	valid, penalty, details := c.Evaluate(createTestContext(nil, entries...))
	assert.False(t, valid)
	assert.Equal(t, 70, penalty)
	require.Len(t, details, 1)
	assert.Len(t, details[0].Entries, 4)

	ok, _ := c.EvaluateEntry(createTestContext(nil, entries[:2]...), entries[2])
	assert.True(t, ok)
	ok, _ = c.EvaluateEntry(createTestContext(nil, entries[:3]...), entries[3])
	assert.False(t, ok)
}

func TestTimeRules(t *testing.T) {
	cfg := model.DefaultConstraintConfig()

	tests := []struct {
		name     string
		entry    *model.Entry
		duration bool
		lunch    bool
		hours    bool
	}{
		{"正常", createEntry("CST", "DE", "Dr. A", "011", "Monday", "09:30-10:30"), true, true, true},
		{"时长两小时", createEntry("CST", "DE", "Dr. A", "011", "Monday", "09:30-11:30"), false, true, true},
		{"占用午休", createEntry("CST", "DE", "Dr. A", "011", "Monday", "12:00-13:00"), true, false, true},
		{"晚于下课", createEntry("CST", "DE", "Dr. A", "011", "Monday", "17:00-18:00"), true, true, false},
		{"早于上课", createEntry("CST", "DE", "Dr. A", "011", "Monday", "07:30-08:30"), true, true, false},
		{"非工作日", createEntry("CST", "DE", "Dr. A", "011", "Saturday", "09:30-10:30"), true, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := createTestContext(nil, tt.entry)

			valid, _, _ := NewSessionDurationConstraint(cfg.SessionRules).Evaluate(ctx)
			assert.Equal(t, tt.duration, valid, "时长")
			valid, _, _ = NewLunchBreakConstraint(cfg.Lunch()).Evaluate(ctx)
			assert.Equal(t, tt.lunch, valid, "午休")
			valid, _, details := NewWorkingHoursConstraint(cfg).Evaluate(ctx)
			assert.Equal(t, tt.hours, valid, "上课时间")
			if !tt.hours {
				require.Len(t, details, 1)
				assert.Equal(t, []uuid.UUID{tt.entry.ID}, details[0].Entries)
			}
		})
	}
}

func TestQualificationConstraint(t *testing.T) {
	teachers := []*model.Teacher{
		{Name: "Dr. A", Subjects: []model.Subject{{Course: "DE", Type: model.SessionLecture, TeachesTo: []string{"CST"}}}},
	}
	c := NewQualificationConstraint()

	tests := []struct {
		name  string
		entry *model.Entry
		want  bool
	}{
		{"具备资格", createEntry("CST", "DE", "Dr. A", "011", "Monday", "09:30-10:30"), true},
		{"专业不符", createEntry("IT", "DE", "Dr. A", "011", "Monday", "09:30-10:30"), false},
		{"课程不符", createEntry("CST", "EC", "Dr. A", "011", "Monday", "09:30-10:30"), false},
		{"不在名单", createEntry("CST", "DE", "Dr. Z", "011", "Monday", "09:30-10:30"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, _, _ := c.Evaluate(createTestContext(teachers, tt.entry))
			assert.Equal(t, tt.want, valid)
		})
	}

	valid, _, _ := c.Evaluate(createTestContext(nil, tests[3].entry))
	assert.True(t, valid, "没有教师名单时跳过")
}

func TestTeacherPreferenceConstraint(t *testing.T) {
	avoid, _ := model.ParseTimeSlot("08:30-10:30")
	teachers := []*model.Teacher{{Name: "Dr. A", Avoid: []model.TimeSlot{avoid}}}
	c := NewTeacherPreferenceConstraint(50)

	early := createEntry("CST", "DE", "Dr. A", "011", "Monday", "09:30-10:30")
	late := createEntry("CST", "DE", "Dr. A", "011", "Tuesday", "14:15-15:15")

	valid, penalty, details := c.Evaluate(createTestContext(teachers, early, late))
	assert.True(t, valid, "软约束不影响有效性")
	assert.Equal(t, 25, penalty)
	require.Len(t, details, 1)
	assert.Equal(t, "warning", details[0].Severity)
}

func TestWorkloadBalanceConstraint(t *testing.T) {
	var entries []*model.Entry
	for _, day := range []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"} {
		entries = append(entries, createEntry("CST", "DE", "Dr. A", "011", day, "09:30-10:30"))
	}
	entries = append(entries, createEntry("IT", "EC", "Dr. B", "012", "Monday", "09:30-10:30"))

	c := NewWorkloadBalanceConstraint(40, 30, 0)
	valid, penalty, details := c.Evaluate(createTestContext(nil, entries...))
	assert.True(t, valid)
	assert.Len(t, details, 2)
	assert.Equal(t, 40, penalty)

	valid, penalty, _ = c.Evaluate(createTestContext(nil, entries[0]))
	assert.True(t, valid)
	assert.Zero(t, penalty, "只有一位教师时不比较")
}

func TestRegisterDefaultConstraints(t *testing.T) {
	cfg := model.DefaultConstraintConfig()
	m := constraint.NewManager()
	RegisterDefaultConstraints(m, cfg, nil)

	summary := m.Summary()
	assert.Equal(t, 11, summary["hard"])
	assert.Equal(t, 2, summary["soft"])
	assert.NotNil(t, m.GetConstraint(constraint.TypeLabExclusive), "默认开启实验课时段独占")

	cfg.ExclusiveLabs = false
	cfg.NoBackToBackSameCourse = false
	m.Clear()
	RegisterDefaultConstraints(m, cfg, map[string]interface{}{"preference_weight": 10})
	assert.Nil(t, m.GetConstraint(constraint.TypeLabExclusive))
	assert.Nil(t, m.GetConstraint(constraint.TypeNoBackToBack))
	assert.Equal(t, 10, m.GetConstraint(constraint.TypeTeacherPreference).Weight())
}

func TestAssembledScheduleSatisfiesPlacementRules(t *testing.T) {
	in := solvertest.Campus(solvertest.Options{Lectures: 11, Labs: 1})
	cfg := solver.DefaultConfig()
	cfg.Seed = 42
	// 未达到最少课次时也返回最佳结果
	res, _ := solver.NewAssembler(cfg, nil).Assemble(context.Background(), in)
	require.NotNil(t, res)
	require.NotEmpty(t, res.Entries)

	m := constraint.NewManager()
	RegisterDefaultConstraints(m, in.Config, nil)
	m.Unregister(constraint.TypeNoBackToBack)

	ctx := constraint.NewContext(in.Config, in.Resources.Teachers)
	ctx.SetEntries(res.Entries)
	result := m.Evaluate(ctx)
	assert.True(t, result.IsValid, "%v", result.Messages())
	assert.Empty(t, result.HardViolations)
}
