// Package optimizer 提供课表进化优化算法
package optimizer

import (
	"math/rand"

	"github.com/paiban/kebiao/pkg/model"
	"github.com/paiban/kebiao/pkg/scheduler/slots"
	"github.com/paiban/kebiao/pkg/scheduler/solver"
)

// MoveType 扰动类型
type MoveType int

const (
	MoveDay  MoveType = iota // 换到另一天的同一时间段
	MoveSlot                 // 同一天换时间段
	MoveRoom                 // 换教室
)

// Perturber 对方案中的记录做随机的 星期/时间段/教室 扰动。
// 被扰动的记录先复制再修改，原方案不受影响
type Perturber struct {
	days  []string
	grid  []model.TimeSlot
	rooms []*model.Room
	labs  []*model.Room
	rng   *rand.Rand
	// weights 依次对应 MoveDay、MoveSlot、MoveRoom
	weights [3]float64
}

// NewPerturber 创建扰动器，时间段网格取自排课规则，rng 不可并发使用
func NewPerturber(cfg *model.ConstraintConfig, res *solver.Resources, rng *rand.Rand) *Perturber {
	p := &Perturber{
		rng:     rng,
		weights: [3]float64{0.4, 0.4, 0.2},
	}
	if cfg != nil {
		tpl := slots.Build(cfg)
		p.days = tpl.Days()
		if len(p.days) > 0 {
			p.grid = tpl.Slots(p.days[0])
		}
	}
	if res != nil {
		p.rooms = res.Rooms
		p.labs = res.Labs
	}
	return p
}

// Perturb 复制方案并扰动其中 n 条不同的记录
func (p *Perturber) Perturb(c *model.Candidate, n int) *model.Candidate {
	out := c.Fork()
	size := len(out.Entries)
	if size == 0 {
		return out
	}
	if n > size {
		n = size
	}
	for _, i := range p.rng.Perm(size)[:n] {
		out.Entries[i] = p.move(out.Entries[i])
	}
	return out
}

// move 返回扰动后的记录副本
func (p *Perturber) move(e *model.Entry) *model.Entry {
	moved := e.Clone()
	switch p.selectMoveType() {
	case MoveDay:
		if len(p.days) > 0 {
			moved.Day = p.days[p.rng.Intn(len(p.days))]
		}
	case MoveSlot:
		if len(p.grid) > 0 {
			moved.Slot = p.grid[p.rng.Intn(len(p.grid))]
		}
	case MoveRoom:
		pool := p.rooms
		if moved.Type.IsLab() {
			pool = p.labs
		}
		if len(pool) > 0 {
			moved.Room = pool[p.rng.Intn(len(pool))].Name
		}
	}
	return moved
}

// selectMoveType 按权重选择扰动类型
func (p *Perturber) selectMoveType() MoveType {
	r := p.rng.Float64()
	cumulative := 0.0
	for mt, w := range p.weights {
		cumulative += w
		if r < cumulative {
			return MoveType(mt)
		}
	}
	return MoveDay
}
