package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/timetable"
)

var (
	_ timetable.Persister = (*SnapshotRepository)(nil)
	_ timetable.Loader    = (*SnapshotRepository)(nil)
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sampleEntries() []*model.Entry {
	return []*model.Entry{{
		ID:      uuid.New(),
		Year:    "firstYear",
		Branch:  "CST",
		Course:  "DE",
		Teacher: "Dr. A",
		Room:    "011",
		Day:     "Monday",
		Slot:    model.TimeSlot{Start: model.MustClock("08:30"), End: model.MustClock("09:30")},
		Type:    model.SessionLecture,
	}}
}

func TestSnapshotRepositorySave(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	snap := &timetable.Snapshot{ID: uuid.New(), Version: 3, Entries: sampleEntries(), Score: 912.5, CreatedAt: time.Now()}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO timetable_snapshots")).
		WithArgs(snap.ID, int64(3), 912.5, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.SaveSnapshot(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryLoad(t *testing.T) {
	t.Run("读取最新版本", func(t *testing.T) {
		db, mock, cleanup := newRepoMock(t)
		defer cleanup()
		repo := NewSnapshotRepository(db)

		entries := sampleEntries()
		raw, err := json.Marshal(entries)
		require.NoError(t, err)
		id := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "version", "score", "entries", "created_at"}).
			AddRow(id.String(), 7, 880.0, raw, time.Now())
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, version, score, entries, created_at FROM timetable_snapshots ORDER BY version DESC LIMIT 1")).
			WillReturnRows(rows)

		snap, err := repo.LoadSnapshot(context.Background())
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Equal(t, id, snap.ID)
		assert.Equal(t, int64(7), snap.Version)
		require.Len(t, snap.Entries, 1)
		assert.Equal(t, *entries[0], *snap.Entries[0])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("没有快照", func(t *testing.T) {
		db, mock, cleanup := newRepoMock(t)
		defer cleanup()
		repo := NewSnapshotRepository(db)

		mock.ExpectQuery("FROM timetable_snapshots").WillReturnError(sql.ErrNoRows)

		snap, err := repo.LoadSnapshot(context.Background())
		require.NoError(t, err)
		assert.Nil(t, snap)
	})
}

func TestSnapshotRepositoryHistory(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	rows := sqlmock.NewRows([]string{"id", "version", "score", "entry_count", "created_at"}).
		AddRow(uuid.NewString(), 2, 900.0, 120, time.Now()).
		AddRow(uuid.NewString(), 1, 850.0, 118, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_snapshots ORDER BY version DESC LIMIT $1 OFFSET $2")).
		WithArgs(20, 0).
		WillReturnRows(rows)

	list, err := repo.History(context.Background(), ListFilter{Limit: 500})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 120, list[0].Entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryPrune(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSnapshotRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_snapshots")).
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.Prune(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepositoryFindByVersion(t *testing.T) {
	query := regexp.QuoteMeta("FROM timetable_snapshots WHERE version = $1")

	t.Run("命中", func(t *testing.T) {
		db, mock, cleanup := newRepoMock(t)
		defer cleanup()
		repo := NewSnapshotRepository(db)

		raw, err := json.Marshal(sampleEntries())
		require.NoError(t, err)
		rows := sqlmock.NewRows([]string{"id", "version", "score", "entries", "created_at"}).
			AddRow(uuid.New().String(), 4, 901.0, raw, time.Now())
		mock.ExpectQuery(query).WithArgs(int64(4)).WillReturnRows(rows)

		snap, err := repo.FindByVersion(context.Background(), 4)
		require.NoError(t, err)
		assert.Equal(t, int64(4), snap.Version)
		assert.Len(t, snap.Entries, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("版本不存在", func(t *testing.T) {
		db, mock, cleanup := newRepoMock(t)
		defer cleanup()
		repo := NewSnapshotRepository(db)

		mock.ExpectQuery(query).WithArgs(int64(99)).WillReturnError(sql.ErrNoRows)

		_, err := repo.FindByVersion(context.Background(), 99)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))
	})
}
