package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/paiban/kebiao/pkg/model"
)

type teacherRow struct {
	Name      string         `db:"name"`
	Subjects  types.JSONText `db:"subjects"`
	Preferred types.JSONText `db:"preferred"`
	Avoid     types.JSONText `db:"avoid"`
}

// CatalogRepository 从 Postgres 读取排课规则与资源，实现 timetable.ConfigProvider 与 timetable.ResourcePool
type CatalogRepository struct {
	db       DB
	semester string
}

// NewCatalogRepository 创建目录仓储，semester 为排课使用的学期
func NewCatalogRepository(db *sqlx.DB, semester string) *CatalogRepository {
	return &CatalogRepository{db: db, semester: semester}
}

// ConstraintConfig 读取最近保存的规则，没有保存过时返回默认规则
func (r *CatalogRepository) ConstraintConfig(ctx context.Context) (*model.ConstraintConfig, error) {
	const query = `SELECT config FROM constraint_configs ORDER BY updated_at DESC, id DESC LIMIT 1`
	var raw types.JSONText
	if err := sqlx.GetContext(ctx, r.db, &raw, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.DefaultConstraintConfig(), nil
		}
		return nil, fmt.Errorf("load constraint config: %w", err)
	}
	cfg := model.DefaultConstraintConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal constraint config: %w", err)
	}
	return cfg, nil
}

// SaveConstraintConfig 保存一份新的规则
func (r *CatalogRepository) SaveConstraintConfig(ctx context.Context, cfg *model.ConstraintConfig) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal constraint config: %w", err)
	}
	const query = `INSERT INTO constraint_configs (config, updated_at) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, types.JSONText(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("insert constraint config: %w", err)
	}
	return nil
}

// Offerings 读取当前学期的课程目录，按录入顺序
func (r *CatalogRepository) Offerings(ctx context.Context) ([]model.CourseOffering, error) {
	return r.Courses(ctx, r.semester)
}

// Courses 读取指定学期的课程目录
func (r *CatalogRepository) Courses(ctx context.Context, semester string) ([]model.CourseOffering, error) {
	const query = `SELECT year, branch, course, session_type, semester FROM course_offerings WHERE semester = $1 ORDER BY position, id`
	var list []model.CourseOffering
	if err := sqlx.SelectContext(ctx, r.db, &list, query, semester); err != nil {
		return nil, fmt.Errorf("list course offerings: %w", err)
	}
	return list, nil
}

// Teachers 读取全部教师
func (r *CatalogRepository) Teachers(ctx context.Context) ([]*model.Teacher, error) {
	const query = `SELECT name, subjects, preferred, avoid FROM teachers ORDER BY name`
	var rows []teacherRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	teachers := make([]*model.Teacher, 0, len(rows))
	for _, row := range rows {
		t := &model.Teacher{Name: row.Name}
		if err := unmarshalJSON(row.Subjects, &t.Subjects); err != nil {
			return nil, fmt.Errorf("teacher %s subjects: %w", row.Name, err)
		}
		if err := unmarshalJSON(row.Preferred, &t.Preferred); err != nil {
			return nil, fmt.Errorf("teacher %s preferred: %w", row.Name, err)
		}
		if err := unmarshalJSON(row.Avoid, &t.Avoid); err != nil {
			return nil, fmt.Errorf("teacher %s avoid: %w", row.Name, err)
		}
		teachers = append(teachers, t)
	}
	return teachers, nil
}

// Rooms 读取普通教室
func (r *CatalogRepository) Rooms(ctx context.Context) ([]*model.Room, error) {
	return r.rooms(ctx, false)
}

// Labs 读取实验室
func (r *CatalogRepository) Labs(ctx context.Context) ([]*model.Room, error) {
	return r.rooms(ctx, true)
}

func (r *CatalogRepository) rooms(ctx context.Context, lab bool) ([]*model.Room, error) {
	const query = `SELECT name, is_lab FROM rooms WHERE is_lab = $1 ORDER BY name`
	var list []*model.Room
	if err := sqlx.SelectContext(ctx, r.db, &list, query, lab); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return list, nil
}

// CatalogImport 一次导入的目录内容
type CatalogImport struct {
	Semester  string
	Offerings []model.CourseOffering
	Teachers  []*model.Teacher
	Rooms     []*model.Room
}

// Import 在一个事务中替换学期课程，并按名称更新教师和教室
func (r *CatalogRepository) Import(ctx context.Context, tx *sqlx.Tx, in CatalogImport) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM course_offerings WHERE semester = $1`, in.Semester); err != nil {
		return fmt.Errorf("clear course offerings: %w", err)
	}
	for i, o := range in.Offerings {
		const query = `INSERT INTO course_offerings (semester, year, branch, course, session_type, position) VALUES ($1, $2, $3, $4, $5, $6)`
		if _, err := tx.ExecContext(ctx, query, in.Semester, o.Year, o.Branch, o.Course, string(o.Type), i); err != nil {
			return fmt.Errorf("insert course offering %s: %w", o.Course, err)
		}
	}

	for _, t := range in.Teachers {
		subjects, _ := json.Marshal(nonNil(t.Subjects))
		preferred, _ := json.Marshal(nonNil(t.Preferred))
		avoid, _ := json.Marshal(nonNil(t.Avoid))
		const query = `
INSERT INTO teachers (name, subjects, preferred, avoid) VALUES ($1, $2, $3, $4)
ON CONFLICT (name) DO UPDATE SET subjects = EXCLUDED.subjects, preferred = EXCLUDED.preferred, avoid = EXCLUDED.avoid`
		if _, err := tx.ExecContext(ctx, query, t.Name, types.JSONText(subjects), types.JSONText(preferred), types.JSONText(avoid)); err != nil {
			return fmt.Errorf("upsert teacher %s: %w", t.Name, err)
		}
	}

	for _, room := range in.Rooms {
		const query = `INSERT INTO rooms (name, is_lab) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET is_lab = EXCLUDED.is_lab`
		if _, err := tx.ExecContext(ctx, query, room.Name, room.Lab); err != nil {
			return fmt.Errorf("upsert room %s: %w", room.Name, err)
		}
	}
	return nil
}

func unmarshalJSON(raw types.JSONText, dest interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
