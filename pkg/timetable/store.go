// Package timetable 管理已提交的课表：版本化存储、单条调整准入与生成流程
package timetable

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/paiban/kebiao/pkg/errors"
	"github.com/paiban/kebiao/pkg/logger"
	"github.com/paiban/kebiao/pkg/model"
)

// Snapshot 一个已提交版本的课表
type Snapshot struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	Version   int64          `json:"version" db:"version"`
	Entries   []*model.Entry `json:"entries"`
	Score     float64        `json:"score" db:"score"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// Clone 深拷贝
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Entries = model.CloneEntries(s.Entries)
	return &c
}

// Persister 提交后保存快照，失败只记录日志
type Persister interface {
	SaveSnapshot(ctx context.Context, s *Snapshot) error
}

// Loader 启动时读取最近的快照，没有时返回 nil, nil
type Loader interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// Scorer 为调整后的课表重新计算分数
type Scorer interface {
	Score(entries []*model.Entry) float64
}

// Store 唯一的已提交课表。只能通过 Commit（生成）和 Update（调整准入）写入
type Store struct {
	mu         sync.RWMutex
	current    *Snapshot
	version    int64
	scorer     Scorer
	persisters []Persister
}

// NewStore 创建空存储
func NewStore(persisters ...Persister) *Store {
	return &Store{persisters: persisters}
}

// SetScorer 设置调整后重新打分使用的评估器
func (s *Store) SetScorer(scorer Scorer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scorer = scorer
}

// Current 返回当前版本的副本，尚未生成时返回 nil
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Version 返回当前版本号，0 表示尚未生成
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Commit 以新版本提交整张课表
func (s *Store) Commit(ctx context.Context, entries []*model.Entry, score float64) *Snapshot {
	s.mu.Lock()
	snap := s.next(model.CloneEntries(entries), score)
	s.mu.Unlock()

	s.persist(ctx, snap)
	return snap.Clone()
}

// Update 在临界区内对当前课表的副本执行 fn。
// fn 返回 true 时副本成为新版本，否则存储保持不变
func (s *Store) Update(ctx context.Context, fn func(working []*model.Entry) (bool, error)) (*Snapshot, bool, error) {
	s.mu.Lock()
	if s.current == nil {
		s.mu.Unlock()
		return nil, false, apperrors.New(apperrors.CodeNoTimetable, "尚未生成课表")
	}

	working := model.CloneEntries(s.current.Entries)
	commit, err := fn(working)
	if err != nil || !commit {
		cur := s.current.Clone()
		s.mu.Unlock()
		return cur, false, err
	}

	score := s.current.Score
	if s.scorer != nil {
		score = s.scorer.Score(working)
	}
	snap := s.next(working, score)
	s.mu.Unlock()

	s.persist(ctx, snap)
	return snap.Clone(), true, nil
}

// next 生成下一版本，调用方持有写锁
func (s *Store) next(entries []*model.Entry, score float64) *Snapshot {
	s.version++
	s.current = &Snapshot{
		ID:        uuid.New(),
		Version:   s.version,
		Entries:   entries,
		Score:     score,
		CreatedAt: time.Now(),
	}
	return s.current
}

func (s *Store) persist(ctx context.Context, snap *Snapshot) {
	for _, p := range s.persisters {
		if err := p.SaveSnapshot(ctx, snap.Clone()); err != nil {
			logger.Warn().Err(err).Int64("version", snap.Version).Msg("保存课表快照失败")
		}
	}
}

// Restore 依次尝试 loaders，采用第一个读到的快照并沿用其版本号
func (s *Store) Restore(ctx context.Context, loaders ...Loader) bool {
	for _, l := range loaders {
		snap, err := l.LoadSnapshot(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("读取课表快照失败")
			continue
		}
		if snap == nil {
			continue
		}
		s.mu.Lock()
		s.current = snap.Clone()
		s.version = snap.Version
		s.mu.Unlock()
		logger.Info().Int64("version", snap.Version).Int("entries", len(snap.Entries)).Msg("已恢复课表快照")
		return true
	}
	return false
}
