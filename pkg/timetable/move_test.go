package timetable

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/validator"
)

func committedStore(entries ...*model.Entry) *Store {
	s := NewStore()
	s.Commit(context.Background(), entries, 0.5)
	return s
}

func mustSlot(s string) model.TimeSlot {
	ts, err := model.ParseTimeSlot(s)
	if err != nil {
		panic(err)
	}
	return ts
}

func TestProposeMove_RoomOccupied(t *testing.T) {
	occupant := createEntry("IT", "Engineering Chemistry", "Dr. K", "101", "Tuesday", "10:30-11:30")
	mover := createEntry("CST", "Discrete Mathematics", "Dr. A", "101", "Monday", "09:30-10:30")
	store := committedStore(occupant, mover)
	before := store.Current()

	res, err := NewMoveController(store).ProposeMove(context.Background(), nil, MoveRequest{
		EntryID: mover.ID,
		Day:     "Tuesday",
		Slot:    mustSlot("10:30-11:30"),
	})
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Contains(t, res.Reason, "Engineering Chemistry")
	assert.Contains(t, res.Reason, "Dr. K")
	require.NotNil(t, res.Conflict)
	assert.Equal(t, validator.ConflictRoom, res.Conflict.Type)
	assert.Equal(t, int64(1), res.Version)

	assert.Equal(t, before, store.Current(), "被拒绝后课表保持不变")
}

func TestProposeMove_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		day      string
		slot     string
		wantOK   bool
		wantType validator.ConflictType
	}{
		{"空闲位置", "Wednesday", "14:15-15:15", true, ""},
		{"教师占用", "Tuesday", "08:30-09:30", false, validator.ConflictTeacher},
		{"班级占用", "Thursday", "11:30-12:30", false, validator.ConflictBatch},
		{"原位置", "Monday", "09:30-10:30", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mover := createEntry("CST", "DE", "Dr. A", "011", "Monday", "09:30-10:30")
			sameTeacher := createEntry("IT", "DE", "Dr. A", "012", "Tuesday", "08:30-09:30")
			sameBatch := createEntry("CST", "EC", "Dr. B", "013", "Thursday", "11:30-12:30")
			store := committedStore(mover, sameTeacher, sameBatch)

			res, err := NewMoveController(store).ProposeMove(context.Background(), nil, MoveRequest{
				EntryID: mover.ID, Day: tt.day, Slot: mustSlot(tt.slot),
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, res.Committed)

			_, moved := model.FindEntry(store.Current().Entries, mover.ID)
			if tt.wantOK {
				assert.Equal(t, int64(2), store.Version())
				assert.Equal(t, tt.day, moved.Day)
				assert.Equal(t, tt.slot, moved.Slot.String())
				require.NotNil(t, res.Entry)
				assert.Equal(t, tt.day, res.Entry.Day)
				return
			}
			assert.Equal(t, tt.wantType, res.Conflict.Type)
			assert.Equal(t, int64(1), store.Version())
			assert.Equal(t, "Monday", moved.Day)
		})
	}
}

func TestProposeMove_ExistingConflictBlocks(t *testing.T) {
	mover := createEntry("CST", "DE", "Dr. A", "011", "Monday", "09:30-10:30")
	x := createEntry("IT", "EC", "Dr. B", "020", "Friday", "08:30-09:30")
	y := createEntry("ECE", "EC", "Dr. B", "021", "Friday", "08:30-09:30")
	store := committedStore(mover, x, y)

	res, err := NewMoveController(store).ProposeMove(context.Background(), nil, MoveRequest{
		EntryID: mover.ID, Day: "Wednesday", Slot: mustSlot("14:15-15:15"),
	})
	require.NoError(t, err)
	assert.False(t, res.Committed, "整张课表仍有冲突时不提交")
	assert.Equal(t, validator.ConflictTeacher, res.Conflict.Type)
	assert.Equal(t, int64(1), store.Version())
}

func TestProposeMove_OffGridRejected(t *testing.T) {
	tests := []struct {
		name       string
		day        string
		slot       string
		wantReason string
	}{
		{"午休时间", "Monday", "12:30-13:30", "午休"},
		{"非工作日", "Sunday", "09:30-10:30", "非工作日"},
		{"时长不符", "Monday", "09:00-09:15", "时长"},
		{"不在网格上", "Monday", "09:00-10:00", "网格"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mover := createEntry("CST", "DE", "Dr. A", "011", "Tuesday", "08:30-09:30")
			store := committedStore(mover)
			before := store.Current()

			res, err := NewMoveController(store).ProposeMove(context.Background(), model.DefaultConstraintConfig(), MoveRequest{
				EntryID: mover.ID, Day: tt.day, Slot: mustSlot(tt.slot),
			})
			require.NoError(t, err)
			assert.False(t, res.Committed)
			assert.Contains(t, res.Reason, tt.wantReason)
			require.NotNil(t, res.Violation)
			assert.Nil(t, res.Conflict)

			assert.Equal(t, int64(1), store.Version())
			assert.Equal(t, before, store.Current(), "被拒绝后课表保持不变")
		})
	}
}

func TestProposeMove_ConcurrentSameTarget(t *testing.T) {
	for round := 0; round < 20; round++ {
		first := createEntry("CST", "DE", "Dr. A", "011", "Monday", "08:30-09:30")
		second := createEntry("IT", "EC", "Dr. B", "011", "Tuesday", "08:30-09:30")
		store := committedStore(first, second)
		c := NewMoveController(store)

		var wg sync.WaitGroup
		start := make(chan struct{})
		results := make([]*MoveResult, 2)
		for i, e := range []*model.Entry{first, second} {
			wg.Add(1)
			go func(i int, id uuid.UUID) {
				defer wg.Done()
				<-start
				res, err := c.ProposeMove(context.Background(), nil, MoveRequest{
					EntryID: id, Day: "Wednesday", Slot: mustSlot("10:30-11:30"),
				})
				assert.NoError(t, err)
				results[i] = res
			}(i, e.ID)
		}
		close(start)
		wg.Wait()

		committed := 0
		for _, res := range results {
			require.NotNil(t, res)
			if res.Committed {
				committed++
			} else {
				require.NotNil(t, res.Conflict)
				assert.Equal(t, validator.ConflictRoom, res.Conflict.Type)
			}
		}
		assert.Equal(t, 1, committed, "同一教室同一时间段只能提交一次")
		assert.Equal(t, int64(2), store.Version())
		assert.Empty(t, validator.NewConflictDetector().DetectAll(store.Current().Entries))
	}
}

func TestProposeMove_Errors(t *testing.T) {
	ctx := context.Background()
	mover := createEntry("CST", "DE", "Dr. A", "011", "Monday", "09:30-10:30")

	_, err := NewMoveController(NewStore()).ProposeMove(ctx, nil, MoveRequest{EntryID: mover.ID, Day: "Monday", Slot: mustSlot("10:30-11:30")})
	assert.True(t, apperrors.Is(err, apperrors.CodeNoTimetable))

	store := committedStore(mover)
	c := NewMoveController(store)

	_, err = c.ProposeMove(ctx, nil, MoveRequest{EntryID: uuid.New(), Day: "Monday", Slot: mustSlot("10:30-11:30")})
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	_, err = c.ProposeMove(ctx, nil, MoveRequest{EntryID: mover.ID, Day: "Monday"})
	assert.True(t, apperrors.Is(err, apperrors.CodeInvalidInput))

	assert.Equal(t, int64(1), store.Version())
}

func TestSuggest(t *testing.T) {
	cfg := model.DefaultConstraintConfig()
	mover := createEntry("CST", "DE", "Dr. A", "011", "Monday", "08:30-09:30")
	blocker := createEntry("IT", "EC", "Dr. B", "011", "Monday", "09:30-10:30")
	store := committedStore(mover, blocker)
	c := NewMoveController(store)

	options, err := c.Suggest(cfg, mover.ID, nil, &SuggestOptions{})
	require.NoError(t, err)

	// 每天 8 个时间段，排除原位置与被占用的教室
	assert.Len(t, options, 5*8-2)
	for _, opt := range options {
		assert.False(t, opt.Day == "Monday" && opt.Slot.String() == "09:30-10:30")
		assert.False(t, opt.Day == "Monday" && opt.Slot.String() == "08:30-09:30")
	}
	assert.Equal(t, 1, options[0].Rank)
	assert.Equal(t, int64(1), store.Version(), "推荐不提交")

	limited, err := c.Suggest(cfg, mover.ID, countScorer{}, &SuggestOptions{MaxOptions: 3})
	require.NoError(t, err)
	assert.Len(t, limited, 3)
	assert.Equal(t, 2.0, limited[0].Score)

	_, err = c.Suggest(cfg, uuid.New(), nil, nil)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	_, moved := model.FindEntry(store.Current().Entries, mover.ID)
	assert.Equal(t, "08:30-09:30", moved.Slot.String())
}
