package simulator

import (
	"math/rand"
	"sync"

	"SequenceGame/internal/game/engine"
)

// Policy 从合法走法中选一步。moves 非空。
type Policy interface {
	Choose(view engine.View, moves []engine.MoveAction) engine.MoveAction
}

// RandomPolicy 均匀随机选择；同一种子给出同样的选择序列
type RandomPolicy struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{rnd: rand.New(rand.NewSource(seed))}
}

func (p *RandomPolicy) Choose(_ engine.View, moves []engine.MoveAction) engine.MoveAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return moves[p.rnd.Intn(len(moves))]
}
