package engine

import (
	"fmt"
	"time"

	"SequenceGame/internal/game/board"
	"SequenceGame/internal/game/card"
	"SequenceGame/internal/game/dealer"
	"SequenceGame/internal/game/table"

	"github.com/google/uuid"
)

// PlayerState 持久化的单个玩家
type PlayerState struct {
	Public  table.PublicID  `json:"publicId"`
	Private table.PrivateID `json:"privateId"`
	Name    string          `json:"name"`
	Team    board.Color     `json:"team,omitempty"`
	Hand    []card.Card     `json:"hand"`
	HasHand bool            `json:"hasHand"` // 区分空手牌与尚未发牌
	Turns   int             `json:"turns"`
}

// Snapshot 无损持久化形式：牌堆顺序、棋盘、玩家（按座位顺序）、历史、计数器。
// Restore 之后的行为与快照前完全一致。
type Snapshot struct {
	ID                uuid.UUID      `json:"id"`
	Status            Status         `json:"status"`
	MaxPlayers        int            `json:"maxPlayers"`
	CreatedAt         time.Time      `json:"createdAt"`
	StartedAt         time.Time      `json:"startedAt"`
	Host              table.PublicID `json:"host"`
	CurrentTurn       table.PublicID `json:"currentTurn"`
	Players           []PlayerState  `json:"players"`
	Winner            board.Color    `json:"winner,omitempty"`
	WinningThreshold  int            `json:"winningThreshold"`
	DeadCardDiscarded bool           `json:"deadCardDiscardedThisTurn"`
	History           []MoveRecord   `json:"history"`
	DrawPile          []card.Card    `json:"drawPile"`
	DiscardPile       []card.Card    `json:"discardPile"`
	Board             board.State    `json:"board"`
}

// Snapshot 深拷贝，与 Game 无共享
func (g *Game) Snapshot() *Snapshot {
	s := &Snapshot{
		ID:                g.id,
		Status:            g.status,
		MaxPlayers:        g.maxPlayers,
		CreatedAt:         g.createdAt,
		StartedAt:         g.startedAt,
		CurrentTurn:       g.players.CurrentPlayerTurn(),
		Winner:            g.winner,
		WinningThreshold:  g.threshold,
		DeadCardDiscarded: g.deadCardDiscarded,
		History:           g.History(),
		DrawPile:          g.deck.DrawPile(),
		DiscardPile:       g.deck.DiscardPile(),
		Board:             g.board.State(),
	}
	if host, ok := g.players.Host(); ok {
		s.Host = host.Public
	}
	for _, id := range g.players.Players() {
		p, _ := g.players.Player(id)
		team, _ := g.players.Team(id)
		hand, hasHand := g.players.Cards(id)
		s.Players = append(s.Players, PlayerState{
			Public:  p.Public,
			Private: p.Private,
			Name:    p.Name,
			Team:    team,
			Hand:    hand,
			HasHand: hasHand,
			Turns:   g.turns[id],
		})
	}
	return s
}

// Restore 从快照重建。计数器原样恢复，不重放落子。
// 房主不是第一个座位、当前回合不在名单中等矛盾返回 ErrInconsistentSnapshot。
func Restore(s *Snapshot) (*Game, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInconsistentSnapshot)
	}
	if err := s.check(); err != nil {
		return nil, err
	}

	g := &Game{
		id:                s.ID,
		createdAt:         s.CreatedAt,
		startedAt:         s.StartedAt,
		status:            s.Status,
		maxPlayers:        s.MaxPlayers,
		board:             board.New(),
		deck:              dealer.FromPiles(s.DrawPile, s.DiscardPile, nil),
		players:           table.New(),
		winner:            s.Winner,
		threshold:         s.WinningThreshold,
		deadCardDiscarded: s.DeadCardDiscarded,
		turns:             make(map[table.PublicID]int),
		history:           make([]MoveRecord, 0, len(s.History)),
	}
	if skipped := g.board.Restore(s.Board); skipped > 0 {
		return nil, fmt.Errorf("%w: %d board spaces cannot hold the stored state", ErrInconsistentSnapshot, skipped)
	}
	for _, ps := range s.Players {
		g.players.AddPlayer(table.Player{Public: ps.Public, Private: ps.Private, Name: ps.Name})
		if ps.Team != board.None {
			g.players.SetTeam(ps.Public, ps.Team)
		}
		if ps.HasHand {
			g.players.SetCards(ps.Public, ps.Hand)
		}
		if ps.Turns > 0 {
			g.turns[ps.Public] = ps.Turns
		}
	}
	if len(s.Players) > 0 {
		g.players.SetCurrentPlayerTurn(s.CurrentTurn)
	}
	for _, r := range s.History {
		g.history = append(g.history, MoveRecord{Player: r.Player, Move: r.Move.clone()})
	}
	return g, nil
}

func (s *Snapshot) check() error {
	switch s.Status {
	case NotStarted, InProgress, Completed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInconsistentSnapshot, s.Status)
	}
	if len(s.Players) == 0 {
		if !s.Host.IsZero() || !s.CurrentTurn.IsZero() {
			return fmt.Errorf("%w: host or turn set on an empty roster", ErrInconsistentSnapshot)
		}
		return nil
	}
	if s.Host != s.Players[0].Public {
		return fmt.Errorf("%w: host %s is not the first player in turn order", ErrInconsistentSnapshot, s.Host)
	}

	seen := make(map[table.PublicID]bool, len(s.Players))
	private := make(map[table.PrivateID]bool, len(s.Players))
	for _, p := range s.Players {
		if seen[p.Public] || private[p.Private] {
			return fmt.Errorf("%w: duplicate player %s", ErrInconsistentSnapshot, p.Public)
		}
		seen[p.Public] = true
		private[p.Private] = true
	}
	if !seen[s.CurrentTurn] {
		return fmt.Errorf("%w: current turn %s is not in the roster", ErrInconsistentSnapshot, s.CurrentTurn)
	}
	if s.Status == Completed && s.Winner == board.None {
		return fmt.Errorf("%w: completed game without a winner", ErrInconsistentSnapshot)
	}
	if s.Status == NotStarted {
		return nil
	}
	// 开局后：胜利门槛已定，每人都有队伍和手牌
	if s.WinningThreshold < 1 {
		return fmt.Errorf("%w: winning threshold %d", ErrInconsistentSnapshot, s.WinningThreshold)
	}
	for _, p := range s.Players {
		if p.Team == board.None {
			return fmt.Errorf("%w: player %s has no team", ErrInconsistentSnapshot, p.Public)
		}
		if !p.HasHand {
			return fmt.Errorf("%w: player %s has no hand", ErrInconsistentSnapshot, p.Public)
		}
	}
	return nil
}
