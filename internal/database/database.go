// Package database 提供数据库连接和管理
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/paiban/kebiao/internal/config"
	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/logger"
)

// DB 数据库连接封装
type DB struct {
	*sqlx.DB
	cfg *config.DatabaseConfig
}

// New 创建新的数据库连接
func New(cfg *config.DatabaseConfig) (*DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("打开数据库连接失败: %w", err)
	}

	// 配置连接池
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "数据库连接测试失败").
			WithDetails(fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Name))
	}

	logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Name).
		Msg("数据库连接成功")

	return &DB{DB: db, cfg: cfg}, nil
}

// Wrap 包装已有连接，测试中配合 sqlmock 使用
func Wrap(db *sqlx.DB) *DB {
	return &DB{DB: db}
}

// Close 关闭数据库连接
func (db *DB) Close() error {
	if db.DB != nil {
		logger.Info().Msg("关闭数据库连接")
		return db.DB.Close()
	}
	return nil
}

// Health 健康检查
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Transaction 执行事务
func (db *DB) Transaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("事务回滚失败: %v (原始错误: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

// Migrate 创建课表相关的表，可重复执行
func (db *DB) Migrate(ctx context.Context) error {
	start := time.Now()
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("执行建表语句失败: %w", err)
		}
	}
	logger.Info().Dur("duration", time.Since(start)).Int("statements", len(schema)).Msg("数据库结构已就绪")
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS timetable_snapshots (
	id UUID PRIMARY KEY,
	version BIGINT NOT NULL,
	score DOUBLE PRECISION NOT NULL DEFAULT 0,
	entries JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_timetable_snapshots_version ON timetable_snapshots (version DESC)`,
	`CREATE TABLE IF NOT EXISTS constraint_configs (
	id SERIAL PRIMARY KEY,
	config JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE TABLE IF NOT EXISTS course_offerings (
	id SERIAL PRIMARY KEY,
	semester TEXT NOT NULL,
	year TEXT NOT NULL,
	branch TEXT NOT NULL,
	course TEXT NOT NULL,
	session_type TEXT NOT NULL,
	position INT NOT NULL DEFAULT 0
)`,
	`CREATE TABLE IF NOT EXISTS teachers (
	name TEXT PRIMARY KEY,
	subjects JSONB NOT NULL DEFAULT '[]',
	preferred JSONB NOT NULL DEFAULT '[]',
	avoid JSONB NOT NULL DEFAULT '[]'
)`,
	`CREATE TABLE IF NOT EXISTS rooms (
	name TEXT PRIMARY KEY,
	is_lab BOOLEAN NOT NULL DEFAULT FALSE
)`,
}
