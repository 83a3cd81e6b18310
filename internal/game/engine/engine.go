package engine

import (
	"fmt"
	"strings"
	"time"

	"SequenceGame/internal/game/board"
	"SequenceGame/internal/game/card"
	"SequenceGame/internal/game/dealer"
	"SequenceGame/internal/game/table"

	"github.com/google/uuid"
)

// ---------------------
//      STATE / MOVE
// ---------------------

type Status string

const (
	NotStarted Status = "NOT_STARTED"
	InProgress Status = "IN_PROGRESS"
	Completed  Status = "COMPLETED"
)

// MoveAction 玩家提交的一步：目标坐标 + 打出的牌
type MoveAction struct {
	Row  int        `json:"row"`
	Col  int        `json:"col"`
	Card *card.Card `json:"card"`
}

// MoveRecord 走子历史条目
type MoveRecord struct {
	Player table.PublicID `json:"player"`
	Move   MoveAction     `json:"move"`
}

func (m MoveAction) clone() MoveAction {
	if m.Card != nil {
		c := *m.Card
		m.Card = &c
	}
	return m
}

// ---------------------
//        GAME
// ---------------------

// Game 单局状态机。独占 Board、Deck、Table，不加锁：
// 同一局的并发走子由外层（manager）串行化。
type Game struct {
	id         uuid.UUID
	createdAt  time.Time
	startedAt  time.Time
	status     Status
	maxPlayers int

	board   *board.Board
	deck    *dealer.Deck
	players *table.Table

	winner            board.Color
	threshold         int
	deadCardDiscarded bool
	turns             map[table.PublicID]int
	history           []MoveRecord
}

// NewGame deck 为 nil 时新建一副洗好的牌
func NewGame(maxPlayers int, deck *dealer.Deck) *Game {
	if deck == nil {
		deck = dealer.NewDeck(nil)
	}
	return &Game{
		id:         uuid.New(),
		createdAt:  time.Now(),
		status:     NotStarted,
		maxPlayers: maxPlayers,
		board:      board.New(),
		deck:       deck,
		players:    table.New(),
		turns:      make(map[table.PublicID]int),
	}
}

// AddPlayer 入座。空名字使用 "Player N"。开局后或满员时拒绝。
func (g *Game) AddPlayer(name string) (table.Player, error) {
	if g.status != NotStarted {
		return table.Player{}, ErrGameAlreadyStarted
	}
	if g.players.Len() >= g.maxPlayers {
		return table.Player{}, ErrGameFull
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Player %d", g.players.Len()+1)
	}
	p := table.NewPlayer(name)
	g.players.AddPlayer(p)
	return p, nil
}

// IsValidPlayerSize 当前人数是否有对应的手牌数
func (g *Game) IsValidPlayerSize() bool {
	_, err := dealer.HandSize(g.players.Len())
	return err == nil
}

// Initialise 分队、发牌、进入 InProgress。所有校验在任何修改之前完成。
func (g *Game) Initialise() error {
	if g.status != NotStarted {
		return ErrGameAlreadyStarted
	}
	n := g.players.Len()
	if n < 2 {
		return ErrGameNotFull
	}
	if _, err := dealer.HandSize(n); err != nil {
		return err
	}
	if _, err := table.TeamCount(n); err != nil {
		return err
	}

	teams, err := g.players.AssignTeams()
	if err != nil {
		return err
	}
	hands, err := g.deck.DealHands(n)
	if err != nil {
		return fmt.Errorf("deal hands: %w", err)
	}
	order := g.players.Players()
	for i, id := range order {
		g.players.SetCards(id, hands[i])
	}
	g.players.SetCurrentPlayerTurn(order[0])

	g.threshold = winningThreshold(teams)
	g.status = InProgress
	g.startedAt = time.Now()
	return nil
}

// 两队需要 2 条 sequence，三队需要 1 条
func winningThreshold(teams int) int {
	if teams == 2 {
		return 2
	}
	return 1
}

// DoPlayerMoveAction 校验并执行一步。校验全部通过后才修改状态，
// 失败时返回 MoveError，游戏状态不变。
func (g *Game) DoPlayerMoveAction(id table.PublicID, move MoveAction) error {
	team, discard, err := g.validate(id, move)
	if err != nil {
		return err
	}
	played := *move.Card

	switch {
	case played.IsOneEyedJack():
		g.board.SetChip(move.Row, move.Col, board.None)
	case discard:
		// 死牌弃掉，不落子
	default:
		g.board.SetChip(move.Row, move.Col, team)
	}

	if _, err := g.players.PlayCard(id, played); err != nil {
		return err
	}
	g.deck.Discard(played)
	g.history = append(g.history, MoveRecord{Player: id, Move: move.clone()})
	g.turns[id]++

	if g.board.CompletedSequences(team) >= g.threshold {
		g.status = Completed
		g.winner = team
		return nil
	}

	if discard {
		g.deadCardDiscarded = true
	} else {
		g.deadCardDiscarded = false
		g.players.SetCurrentPlayerTurn(g.players.NextPlayerTurn())
	}

	// 出牌的人补一张；刚弃掉的牌已在弃牌堆，抽牌不会失败
	drawn, err := g.deck.Draw()
	if err != nil {
		return fmt.Errorf("draw replacement: %w", err)
	}
	return g.players.AddCard(id, drawn)
}

// validate 按固定顺序逐项检查，返回行动方颜色以及是否为死牌弃牌
func (g *Game) validate(id table.PublicID, move MoveAction) (board.Color, bool, error) {
	if g.status != InProgress {
		return board.None, false, GameNotInProgress
	}
	if !g.players.IsCurrentPlayerTurn(id) {
		return board.None, false, NotYourTurn
	}
	_, seated := g.players.Player(id)
	team, hasTeam := g.players.Team(id)
	if _, hasHand := g.players.Cards(id); !seated || !hasTeam || !hasHand {
		return board.None, false, PlayerNotFound
	}
	if move.Card == nil || !g.players.HasCard(id, *move.Card) {
		return board.None, false, CardNotInHand
	}
	space, ok := g.board.Space(move.Row, move.Col)
	if !ok {
		return board.None, false, InvalidBoardPosition
	}
	if space.IsWild() {
		return board.None, false, CannotPlayOnWildcard
	}

	c := *move.Card
	switch c.Kind() {
	case card.OneEyedJack:
		switch {
		case !space.Occupied():
			return board.None, false, CannotRemoveEmptyChip
		case space.PartOfSequence():
			return board.None, false, CannotRemoveSequence
		case space.Chip() == team:
			return board.None, false, CannotRemoveOwnChip
		}
	case card.TwoEyedJack:
		if space.Occupied() {
			return board.None, false, PositionOccupied
		}
	default:
		if space.Occupied() {
			return board.None, false, PositionOccupied
		}
		if g.board.IsDeadCard(c) {
			if g.deadCardDiscarded {
				return board.None, false, DeadCardDiscardAlreadyUsed
			}
			return team, true, nil
		}
	}
	return team, false, nil
}

// ---------------------
//      ACCESSORS
// ---------------------

func (g *Game) ID() uuid.UUID         { return g.id }
func (g *Game) Status() Status        { return g.status }
func (g *Game) MaxPlayers() int       { return g.maxPlayers }
func (g *Game) PlayerCount() int      { return g.players.Len() }
func (g *Game) CreatedAt() time.Time  { return g.createdAt }
func (g *Game) StartedAt() time.Time  { return g.startedAt }
func (g *Game) WinningThreshold() int { return g.threshold }

func (g *Game) DeadCardDiscardedThisTurn() bool { return g.deadCardDiscarded }

// Winner 未结束时 ok=false
func (g *Game) Winner() (board.Color, bool) {
	return g.winner, g.status == Completed
}

func (g *Game) CurrentPlayerTurn() table.PublicID { return g.players.CurrentPlayerTurn() }

// Players 按座位顺序
func (g *Game) Players() []table.PublicID { return g.players.Players() }

func (g *Game) Player(id table.PublicID) (table.Player, bool) { return g.players.Player(id) }

func (g *Game) Team(id table.PublicID) (board.Color, bool) { return g.players.Team(id) }

// Host 第一个入座的玩家
func (g *Game) Host() (table.Player, bool) { return g.players.Host() }

// PublicID 鉴权查找：私有 ID -> 公开 ID
func (g *Game) PublicID(private table.PrivateID) (table.PublicID, bool) {
	return g.players.PublicID(private)
}

// Hand 手牌副本。调用方负责先用 PublicID 完成私有 ID 校验。
func (g *Game) Hand(id table.PublicID) ([]card.Card, bool) { return g.players.Cards(id) }

func (g *Game) TurnCount(id table.PublicID) int { return g.turns[id] }

// History 走子历史副本
func (g *Game) History() []MoveRecord {
	out := make([]MoveRecord, len(g.history))
	for i, r := range g.history {
		out[i] = MoveRecord{Player: r.Player, Move: r.Move.clone()}
	}
	return out
}

// Space 只读格子副本
func (g *Game) Space(row, col int) (board.Space, bool) { return g.board.Space(row, col) }

func (g *Game) CompletedSequences(color board.Color) int { return g.board.CompletedSequences(color) }
