package constraint

import (
	"fmt"
	"sort"
	"sync"

	"github.com/paiban/kebiao/pkg/logger"
	"github.com/paiban/kebiao/pkg/model"
)

// Manager 规则管理器
type Manager struct {
	constraints []Constraint
	mu          sync.RWMutex
	logger      *logger.SchedulerLogger
}

// NewManager 创建规则管理器
func NewManager() *Manager {
	return &Manager{
		constraints: make([]Constraint, 0),
		logger:      logger.NewSchedulerLogger(),
	}
}

// Register 注册规则，同类型的规则会被替换
func (m *Manager) Register(c Constraint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, existing := range m.constraints {
		if existing.Type() == c.Type() {
			m.constraints[i] = c
			return
		}
	}

	m.constraints = append(m.constraints, c)

	// 硬约束在前，权重高的在前
	sort.SliceStable(m.constraints, func(i, j int) bool {
		ci, cj := m.constraints[i], m.constraints[j]
		if ci.Category() != cj.Category() {
			return ci.Category() == CategoryHard
		}
		return ci.Weight() > cj.Weight()
	})
}

// Unregister 注销规则
func (m *Manager) Unregister(t Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.constraints {
		if c.Type() == t {
			m.constraints = append(m.constraints[:i], m.constraints[i+1:]...)
			return
		}
	}
}

// GetConstraint 获取规则
func (m *Manager) GetConstraint(t Type) Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.constraints {
		if c.Type() == t {
			return c
		}
	}
	return nil
}

// GetAll 获取所有规则
func (m *Manager) GetAll() []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Constraint, len(m.constraints))
	copy(result, m.constraints)
	return result
}

// GetByCategory 按类别获取规则
func (m *Manager) GetByCategory(cat Category) []Constraint {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Constraint
	for _, c := range m.constraints {
		if c.Category() == cat {
			result = append(result, c)
		}
	}
	return result
}

// Evaluate 评估所有规则，违反以数据形式返回
func (m *Manager) Evaluate(ctx *Context) *Result {
	constraints := m.GetAll()

	result := &Result{
		IsValid:        true,
		HardViolations: make([]ViolationDetail, 0),
		SoftViolations: make([]ViolationDetail, 0),
	}

	maxPenalty := 0
	for _, c := range constraints {
		valid, penalty, details := c.Evaluate(ctx)

		// 按每条规则最多违反 100 次估算满分
		maxPenalty += c.Weight() * 100
		result.TotalPenalty += penalty

		for _, d := range details {
			if c.Category() == CategoryHard {
				result.HardViolations = append(result.HardViolations, d)
				m.logger.ConstraintViolation(c.Name(), d.Message)
			} else {
				result.SoftViolations = append(result.SoftViolations, d)
			}
		}
		if !valid && c.Category() == CategoryHard {
			result.IsValid = false
		}
	}

	result.CalculateScore(maxPenalty)
	return result
}

// EvaluateEntry 评估一条待加入的记录
func (m *Manager) EvaluateEntry(ctx *Context, e *model.Entry) (bool, int, []ViolationDetail) {
	var violations []ViolationDetail
	totalPenalty := 0
	isValid := true

	for _, c := range m.GetAll() {
		valid, penalty := c.EvaluateEntry(ctx, e)
		if valid {
			continue
		}
		totalPenalty += penalty
		violations = append(violations, ViolationDetail{
			ConstraintType: c.Type(),
			ConstraintName: c.Name(),
			Day:            e.Day,
			Time:           e.Slot.String(),
			Message:        fmt.Sprintf("违反规则: %s", c.Name()),
			Severity:       string(c.Category()),
			Penalty:        penalty,
		})
		if c.Category() == CategoryHard {
			isValid = false
		}
	}
	return isValid, totalPenalty, violations
}

// CanPlace 只检查硬约束，返回第一条被违反的规则
func (m *Manager) CanPlace(ctx *Context, e *model.Entry) (bool, string) {
	for _, c := range m.GetByCategory(CategoryHard) {
		if valid, _ := c.EvaluateEntry(ctx, e); !valid {
			return false, fmt.Sprintf("违反硬约束: %s", c.Name())
		}
	}
	return true, ""
}

// Clear 清除所有规则
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints = make([]Constraint, 0)
}

// Count 返回规则数量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.constraints)
}

// Summary 返回规则摘要
func (m *Manager) Summary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hard := 0
	soft := 0
	for _, c := range m.constraints {
		if c.Category() == CategoryHard {
			hard++
		} else {
			soft++
		}
	}

	return map[string]interface{}{
		"total": len(m.constraints),
		"hard":  hard,
		"soft":  soft,
	}
}
