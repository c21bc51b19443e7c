package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/timetable"
)

// SnapshotSummary 历史版本概要
type SnapshotSummary struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Version   int64     `json:"version" db:"version"`
	Score     float64   `json:"score" db:"score"`
	Entries   int       `json:"entries" db:"entry_count"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type snapshotRow struct {
	ID        uuid.UUID      `db:"id"`
	Version   int64          `db:"version"`
	Score     float64        `db:"score"`
	Entries   types.JSONText `db:"entries"`
	CreatedAt time.Time      `db:"created_at"`
}

// SnapshotRepository 课表快照仓储，实现 timetable.Persister 与 timetable.Loader
type SnapshotRepository struct {
	db DB
}

// NewSnapshotRepository 创建快照仓储
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveSnapshot 保存一个已提交版本，同一 id 重复保存时覆盖
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, s *timetable.Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot payload is nil")
	}
	entries, err := json.Marshal(s.Entries)
	if err != nil {
		return fmt.Errorf("marshal snapshot entries: %w", err)
	}
	row := snapshotRow{
		ID:        s.ID,
		Version:   s.Version,
		Score:     s.Score,
		Entries:   types.JSONText(entries),
		CreatedAt: s.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO timetable_snapshots (id, version, score, entries, created_at)
VALUES (:id, :version, :score, :entries, :created_at)
ON CONFLICT (id) DO UPDATE SET version = EXCLUDED.version, score = EXCLUDED.score, entries = EXCLUDED.entries`
	if _, err := sqlx.NamedExecContext(ctx, r.db, query, row); err != nil {
		return fmt.Errorf("insert timetable snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot 读取最新版本，没有时返回 nil, nil
func (r *SnapshotRepository) LoadSnapshot(ctx context.Context) (*timetable.Snapshot, error) {
	const query = `SELECT id, version, score, entries, created_at FROM timetable_snapshots ORDER BY version DESC LIMIT 1`
	var row snapshotRow
	if err := sqlx.GetContext(ctx, r.db, &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load latest timetable snapshot: %w", err)
	}
	return row.snapshot()
}

// FindByVersion 读取指定版本
func (r *SnapshotRepository) FindByVersion(ctx context.Context, version int64) (*timetable.Snapshot, error) {
	const query = `SELECT id, version, score, entries, created_at FROM timetable_snapshots WHERE version = $1 ORDER BY created_at DESC LIMIT 1`
	var row snapshotRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("课表版本", fmt.Sprint(version))
		}
		return nil, fmt.Errorf("find snapshot v%d: %w", version, err)
	}
	return row.snapshot()
}

// History 按版本倒序列出历史快照
func (r *SnapshotRepository) History(ctx context.Context, filter ListFilter) ([]SnapshotSummary, error) {
	filter = filter.normalize()
	const query = `SELECT id, version, score, jsonb_array_length(entries) AS entry_count, created_at
FROM timetable_snapshots ORDER BY version DESC LIMIT $1 OFFSET $2`
	var list []SnapshotSummary
	if err := sqlx.SelectContext(ctx, r.db, &list, query, filter.Limit, filter.Offset); err != nil {
		return nil, fmt.Errorf("list timetable snapshots: %w", err)
	}
	return list, nil
}

// Prune 只保留最近 keep 个版本
func (r *SnapshotRepository) Prune(ctx context.Context, keep int) (int64, error) {
	const query = `DELETE FROM timetable_snapshots WHERE version <= (SELECT COALESCE(MAX(version), 0) FROM timetable_snapshots) - $1`
	result, err := r.db.ExecContext(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("prune timetable snapshots: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("timetable snapshot rows affected: %w", err)
	}
	return affected, nil
}

func (row snapshotRow) snapshot() (*timetable.Snapshot, error) {
	var entries []*model.Entry
	if err := json.Unmarshal(row.Entries, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s entries: %w", row.ID, err)
	}
	return &timetable.Snapshot{
		ID:        row.ID,
		Version:   row.Version,
		Entries:   entries,
		Score:     row.Score,
		CreatedAt: row.CreatedAt,
	}, nil
}
