package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"SequenceGame/internal/game/card"
	"SequenceGame/internal/game/dealer"
	"SequenceGame/internal/game/engine"
	"SequenceGame/internal/game/table"
	"SequenceGame/internal/repository"
	"SequenceGame/internal/utils"

	"github.com/google/uuid"
)

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrPermissionDenied = errors.New("permission denied")
)

// Joined 创建或加入对局后返回给玩家的身份（含私有 ID，只给本人）
type Joined struct {
	GameID uuid.UUID    `json:"gameId"`
	Player table.Player `json:"player"`
}

// 每局一把锁：同一局同时最多一个修改，不同对局互不阻塞
type entry struct {
	mu   sync.Mutex
	game *engine.Game
}

// GameManager 管理所有对局：内存注册表 + 写穿持久化，缺失时从 repo 恢复
type GameManager struct {
	mu      sync.Mutex
	games   map[uuid.UUID]*entry
	repo    repository.Repo
	newDeck func() *dealer.Deck
}

type Option func(*GameManager)

// WithDeckFactory 指定新对局的牌堆来源（测试与模拟用固定种子）
func WithDeckFactory(f func() *dealer.Deck) Option {
	return func(m *GameManager) { m.newDeck = f }
}

func NewGameManager(repo repository.Repo, opts ...Option) *GameManager {
	m := &GameManager{
		games:   make(map[uuid.UUID]*entry),
		repo:    repo,
		newDeck: func() *dealer.Deck { return dealer.NewDeck(nil) },
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// CreateGame 建局，创建者作为房主入座
func (m *GameManager) CreateGame(ctx context.Context, maxPlayers int, hostName string) (Joined, error) {
	g := engine.NewGame(maxPlayers, m.newDeck())
	host, err := g.AddPlayer(hostName)
	if err != nil {
		return Joined{}, err
	}
	if err := m.repo.Save(ctx, g.Snapshot()); err != nil {
		return Joined{}, fmt.Errorf("save new game: %w", err)
	}

	m.mu.Lock()
	m.games[g.ID()] = &entry{game: g}
	m.mu.Unlock()

	utils.Log.Info("game created", "game", g.ID(), "maxPlayers", maxPlayers, "host", host.Public)
	return Joined{GameID: g.ID(), Player: host}, nil
}

func (m *GameManager) JoinGame(ctx context.Context, id uuid.UUID, name string) (Joined, error) {
	var p table.Player
	err := m.mutate(ctx, id, func(g *engine.Game) error {
		var err error
		p, err = g.AddPlayer(name)
		return err
	})
	if err != nil {
		return Joined{}, err
	}
	utils.Log.Info("player joined", "game", id, "player", p.Public, "name", p.Name)
	return Joined{GameID: id, Player: p}, nil
}

// StartGame 只有房主（凭私有 ID）可以开局
func (m *GameManager) StartGame(ctx context.Context, id uuid.UUID, hostPrivate table.PrivateID) error {
	err := m.mutate(ctx, id, func(g *engine.Game) error {
		pub, ok := g.PublicID(hostPrivate)
		if !ok {
			return ErrPermissionDenied
		}
		if host, _ := g.Host(); host.Public != pub {
			return fmt.Errorf("%w: only the host can start the game", ErrPermissionDenied)
		}
		return g.Initialise()
	})
	if err != nil {
		return err
	}
	utils.Log.Info("game started", "game", id)
	return nil
}

// Move 以私有 ID 鉴权后走一步，返回带本人手牌的视图
func (m *GameManager) Move(ctx context.Context, id uuid.UUID, private table.PrivateID, move engine.MoveAction) (engine.View, error) {
	var view engine.View
	err := m.mutate(ctx, id, func(g *engine.Game) error {
		pub, ok := g.PublicID(private)
		if !ok {
			return ErrPermissionDenied
		}
		if err := g.DoPlayerMoveAction(pub, move); err != nil {
			return err
		}
		view = g.View(&private)
		return nil
	})
	if err != nil {
		if me, ok := engine.IsMoveError(err); ok {
			utils.Log.Debug("move rejected", "game", id, "reason", me.Code())
		}
		return engine.View{}, err
	}
	if view.Status == engine.Completed {
		utils.Log.Info("game completed", "game", id, "winner", view.Winner)
	}
	return view, nil
}

// GameView private 为 nil 时不含手牌
func (m *GameManager) GameView(ctx context.Context, id uuid.UUID, private *table.PrivateID) (engine.View, error) {
	var view engine.View
	err := m.read(ctx, id, func(g *engine.Game) error {
		view = g.View(private)
		return nil
	})
	return view, err
}

func (m *GameManager) Hand(ctx context.Context, id uuid.UUID, private table.PrivateID) ([]card.Card, error) {
	var hand []card.Card
	err := m.read(ctx, id, func(g *engine.Game) error {
		pub, ok := g.PublicID(private)
		if !ok {
			return ErrPermissionDenied
		}
		hand, _ = g.Hand(pub)
		return nil
	})
	return hand, err
}

func (m *GameManager) LegalMoves(ctx context.Context, id uuid.UUID, private table.PrivateID) ([]engine.MoveAction, error) {
	var moves []engine.MoveAction
	err := m.read(ctx, id, func(g *engine.Game) error {
		pub, ok := g.PublicID(private)
		if !ok {
			return ErrPermissionDenied
		}
		moves = g.LegalMoves(pub)
		return nil
	})
	return moves, err
}

func (m *GameManager) GameStats(ctx context.Context, id uuid.UUID) (engine.Stats, error) {
	var st engine.Stats
	err := m.read(ctx, id, func(g *engine.Game) error {
		st = g.Stats()
		return nil
	})
	return st, err
}

// Stats 仓库中所有对局的统计；读取期间消失的对局跳过
func (m *GameManager) Stats(ctx context.Context) ([]engine.Stats, error) {
	ids, err := m.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Stats, 0, len(ids))
	for _, id := range ids {
		st, err := m.GameStats(ctx, id)
		if errors.Is(err, ErrGameNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Evict 从内存注册表移除（持久化数据保留），下次访问时重新恢复
// 先拿到该局的锁，等进行中的修改结束后再移除
func (m *GameManager) Evict(id uuid.UUID) {
	m.mu.Lock()
	e, ok := m.games[id]
	m.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	m.drop(id, e)
}

// drop 只在注册表中仍是 e 时移除；调用方持有 e.mu
func (m *GameManager) drop(id uuid.UUID, e *entry) {
	m.mu.Lock()
	if m.games[id] == e {
		delete(m.games, id)
	}
	m.mu.Unlock()
}

// Delete 移除对局及其持久化数据。持锁删除，排队中的修改重新查找时得到 ErrGameNotFound。
func (m *GameManager) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := m.acquire(ctx, id)
	if errors.Is(err, ErrGameNotFound) {
		return nil
	}
	if err != nil {
		// 快照损坏等无法恢复的情况，仍然删除存储
		return m.repo.Delete(ctx, id)
	}
	defer e.mu.Unlock()
	if err := m.repo.Delete(ctx, id); err != nil {
		return err
	}
	m.drop(id, e)
	utils.Log.Info("game deleted", "game", id)
	return nil
}

// ---------------------
//      内部
// ---------------------

func (m *GameManager) lookup(ctx context.Context, id uuid.UUID) (*entry, error) {
	m.mu.Lock()
	e, ok := m.games[id]
	m.mu.Unlock()
	if ok {
		return e, nil
	}

	snap, err := m.repo.Load(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", id, err)
	}
	g, err := engine.Restore(snap)
	if err != nil {
		utils.Log.Error("cannot rehydrate game", "game", id, "err", err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// 并发恢复时以先注册的为准
	if e, ok := m.games[id]; ok {
		return e, nil
	}
	e = &entry{game: g}
	m.games[id] = e
	utils.Log.Debug("game rehydrated", "game", id)
	return e, nil
}

// acquire 返回已加锁、且仍登记在注册表中的 entry。
// 等锁期间 entry 被移除（保存失败、Evict）时重新查找，不在脱离注册表的对局上操作。
func (m *GameManager) acquire(ctx context.Context, id uuid.UUID) (*entry, error) {
	for {
		e, err := m.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		m.mu.Lock()
		live := m.games[id] == e
		m.mu.Unlock()
		if live {
			return e, nil
		}
		e.mu.Unlock()
	}
}

func (m *GameManager) read(ctx context.Context, id uuid.UUID, fn func(*engine.Game) error) error {
	e, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()
	return fn(e.game)
}

// mutate 持锁执行 fn，成功后写穿保存。保存失败时丢弃内存中的对局，
// 下次访问从最后一次成功保存的快照恢复。
func (m *GameManager) mutate(ctx context.Context, id uuid.UUID, fn func(*engine.Game) error) error {
	e, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	if err := fn(e.game); err != nil {
		return err
	}
	if err := m.repo.Save(ctx, e.game.Snapshot()); err != nil {
		m.drop(id, e)
		utils.Log.Error("save failed, dropping live game", "game", id, "err", err)
		return fmt.Errorf("save game %s: %w", id, err)
	}
	return nil
}
