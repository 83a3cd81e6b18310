package table

import (
	"errors"
	"fmt"
	"slices"

	"SequenceGame/internal/game/board"
	"SequenceGame/internal/game/card"
	"SequenceGame/internal/game/dealer"
)

var (
	ErrPlayerNotFound = errors.New("player not found")
	// 与发牌人数校验共用同一个哨兵错误
	ErrInvalidPlayerCount = dealer.ErrInvalidPlayerCount
)

// Table 玩家容器：座位顺序（只追加）、身份映射、手牌、队伍、当前回合。
// 第一个加入的玩家是房主，也是第一个行动的人。
type Table struct {
	order           []PublicID
	players         map[PublicID]Player
	privateToPublic map[PrivateID]PublicID
	hands           map[PublicID][]card.Card
	teams           map[PublicID]board.Color
	current         PublicID
}

func New() *Table {
	return &Table{
		players:         make(map[PublicID]Player),
		privateToPublic: make(map[PrivateID]PublicID),
		hands:           make(map[PublicID][]card.Card),
		teams:           make(map[PublicID]board.Color),
	}
}

// AddPlayer 追加到座位末尾
func (t *Table) AddPlayer(p Player) {
	if len(t.order) == 0 {
		t.current = p.Public
	}
	t.order = append(t.order, p.Public)
	t.players[p.Public] = p
	t.privateToPublic[p.Private] = p.Public
}

// Players 座位顺序副本
func (t *Table) Players() []PublicID {
	return slices.Clone(t.order)
}

func (t *Table) Len() int { return len(t.order) }

// Player 按公开 ID 取玩家
func (t *Table) Player(id PublicID) (Player, bool) {
	p, ok := t.players[id]
	return p, ok
}

// Host 第一个加入的玩家
func (t *Table) Host() (Player, bool) {
	if len(t.order) == 0 {
		return Player{}, false
	}
	return t.players[t.order[0]], true
}

func (t *Table) IsHost(id PublicID) bool {
	return len(t.order) > 0 && t.order[0] == id
}

// Names 公开 ID -> 名字
func (t *Table) Names() map[PublicID]string {
	out := make(map[PublicID]string, len(t.players))
	for id, p := range t.players {
		out[id] = p.Name
	}
	return out
}

// PublicID 鉴权查找：私有 ID -> 公开 ID。不提供反向查找。
func (t *Table) PublicID(private PrivateID) (PublicID, bool) {
	id, ok := t.privateToPublic[private]
	return id, ok
}

// ---------------------
//        手牌
// ---------------------

func (t *Table) SetCards(id PublicID, cards []card.Card) {
	t.hands[id] = slices.Clone(cards)
}

func (t *Table) AddCard(id PublicID, c card.Card) error {
	hand, ok := t.hands[id]
	if !ok {
		return ErrPlayerNotFound
	}
	t.hands[id] = append(hand, c)
	return nil
}

// Cards 手牌副本；没有手牌记录时 ok=false
func (t *Table) Cards(id PublicID) ([]card.Card, bool) {
	hand, ok := t.hands[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(hand), true
}

// HasCard 手里是否有这张牌
func (t *Table) HasCard(id PublicID, c card.Card) bool {
	return slices.Contains(t.hands[id], c)
}

// PlayCard 从手牌移除一张。没有手牌记录返回 ErrPlayerNotFound；
// 手里没有这张牌返回 removed=false（不是错误，调用方视为未移除）。
func (t *Table) PlayCard(id PublicID, c card.Card) (removed bool, err error) {
	hand, ok := t.hands[id]
	if !ok {
		return false, ErrPlayerNotFound
	}
	i := slices.Index(hand, c)
	if i < 0 {
		return false, nil
	}
	t.hands[id] = slices.Delete(hand, i, i+1)
	return true, nil
}

// ---------------------
//        队伍
// ---------------------

func (t *Table) SetTeam(id PublicID, color board.Color) {
	t.teams[id] = color
}

func (t *Table) Team(id PublicID) (board.Color, bool) {
	c, ok := t.teams[id]
	return c, ok
}

// Teams 副本
func (t *Table) Teams() map[PublicID]board.Color {
	out := make(map[PublicID]board.Color, len(t.teams))
	for k, v := range t.teams {
		out[k] = v
	}
	return out
}

// TeamCount 人数能被 3 整除为 3 队，否则能被 2 整除为 2 队
func TeamCount(players int) (int, error) {
	switch {
	case players < 2:
		return 0, fmt.Errorf("%w: %d players cannot form teams", ErrInvalidPlayerCount, players)
	case players%3 == 0:
		return 3, nil
	case players%2 == 0:
		return 2, nil
	}
	return 0, fmt.Errorf("%w: %d players cannot be split into teams", ErrInvalidPlayerCount, players)
}

// AssignTeams 第 i 个座位分到 i % 队数
func (t *Table) AssignTeams() (int, error) {
	n, err := TeamCount(len(t.order))
	if err != nil {
		return 0, err
	}
	for i, id := range t.order {
		t.teams[id] = board.TeamColors[i%n]
	}
	return n, nil
}

// ---------------------
//        回合
// ---------------------

func (t *Table) CurrentPlayerTurn() PublicID { return t.current }

func (t *Table) SetCurrentPlayerTurn(id PublicID) { t.current = id }

func (t *Table) IsCurrentPlayerTurn(id PublicID) bool {
	return len(t.order) > 0 && t.current == id
}

// NextPlayerTurn 按座位顺序轮转的下一位（不修改当前回合）
func (t *Table) NextPlayerTurn() PublicID {
	if len(t.order) == 0 {
		return PublicID{}
	}
	i := slices.Index(t.order, t.current)
	return t.order[(i+1)%len(t.order)]
}
