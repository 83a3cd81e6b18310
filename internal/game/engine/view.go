package engine

import (
	"time"

	"SequenceGame/internal/game/board"
	"SequenceGame/internal/game/card"
	"SequenceGame/internal/game/table"

	"github.com/google/uuid"
)

// SpaceView 棋盘格的对外形式
type SpaceView struct {
	Row            int         `json:"row"`
	Col            int         `json:"col"`
	Color          board.Color `json:"color,omitempty"`
	Card           *card.Card  `json:"card,omitempty"`
	PartOfSequence bool        `json:"partOfSequence"`
}

// PlayerView 公开的玩家信息（不含私有 ID 与手牌内容）
type PlayerView struct {
	ID       table.PublicID `json:"id"`
	Name     string         `json:"name"`
	Team     board.Color    `json:"team,omitempty"`
	HandSize int            `json:"handSize"`
	Turns    int            `json:"turns"`
}

// View 整局只读快照。Hand 只有在提供了合法私有 ID 时才填充。
type View struct {
	ID                 uuid.UUID           `json:"id"`
	Status             Status              `json:"status"`
	MaxPlayers         int                 `json:"maxPlayers"`
	PlayerCount        int                 `json:"playerCount"`
	Host               table.PublicID      `json:"host"`
	Players            []PlayerView        `json:"players"`
	Board              [][]SpaceView       `json:"board"`
	CurrentTurn        table.PublicID      `json:"currentTurn"`
	Winner             board.Color         `json:"winner,omitempty"`
	WinningThreshold   int                 `json:"winningThreshold"`
	DeadCardDiscarded  bool                `json:"deadCardDiscardedThisTurn"`
	CompletedSequences map[board.Color]int `json:"completedSequences"`
	History            []MoveRecord        `json:"history"`
	CreatedAt          time.Time           `json:"createdAt"`
	StartedAt          time.Time           `json:"startedAt"`

	Viewer *table.PublicID `json:"viewer,omitempty"`
	Hand   []card.Card     `json:"hand,omitempty"`
}

// View viewer 为 nil 或无法识别时不带手牌
func (g *Game) View(viewer *table.PrivateID) View {
	v := View{
		ID:                 g.id,
		Status:             g.status,
		MaxPlayers:         g.maxPlayers,
		PlayerCount:        g.players.Len(),
		CurrentTurn:        g.players.CurrentPlayerTurn(),
		Winner:             g.winner,
		WinningThreshold:   g.threshold,
		DeadCardDiscarded:  g.deadCardDiscarded,
		CompletedSequences: g.board.AllCompletedSequences(),
		History:            g.History(),
		CreatedAt:          g.createdAt,
		StartedAt:          g.startedAt,
	}
	if host, ok := g.players.Host(); ok {
		v.Host = host.Public
	}
	for _, id := range g.players.Players() {
		p, _ := g.players.Player(id)
		team, _ := g.players.Team(id)
		hand, _ := g.players.Cards(id)
		v.Players = append(v.Players, PlayerView{
			ID:       id,
			Name:     p.Name,
			Team:     team,
			HandSize: len(hand),
			Turns:    g.turns[id],
		})
	}
	v.Board = g.boardView()

	if viewer != nil {
		if id, ok := g.players.PublicID(*viewer); ok {
			v.Viewer = &id
			v.Hand, _ = g.players.Cards(id)
		}
	}
	return v
}

func (g *Game) boardView() [][]SpaceView {
	rows := make([][]SpaceView, g.board.Rows())
	for r := range rows {
		rows[r] = make([]SpaceView, g.board.Cols(r))
		for c := range rows[r] {
			s, _ := g.board.Space(r, c)
			sv := SpaceView{Row: r, Col: c, Color: s.Chip(), PartOfSequence: s.PartOfSequence()}
			if cd, ok := s.Card(); ok {
				sv.Card = &cd
			}
			rows[r][c] = sv
		}
	}
	return rows
}

// Stats 对局统计
type Stats struct {
	GameID      uuid.UUID              `json:"gameId"`
	Status      Status                 `json:"status"`
	Winner      board.Color            `json:"winner,omitempty"`
	Sequences   map[board.Color]int    `json:"sequences"`
	ChipsPlaced map[board.Color]int    `json:"chipsPlaced"`
	Turns       map[table.PublicID]int `json:"turns"`
}

func (g *Game) Stats() Stats {
	turns := make(map[table.PublicID]int, len(g.turns))
	for k, v := range g.turns {
		turns[k] = v
	}
	return Stats{
		GameID:      g.id,
		Status:      g.status,
		Winner:      g.winner,
		Sequences:   g.board.AllCompletedSequences(),
		ChipsPlaced: g.board.AllChipsPlaced(),
		Turns:       turns,
	}
}
