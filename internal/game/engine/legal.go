package engine

import (
	"SequenceGame/internal/game/board"
	"SequenceGame/internal/game/card"
	"SequenceGame/internal/game/table"
)

// LegalMoves 列出该玩家此刻所有会被 DoPlayerMoveAction 接受的走法。
// 普通牌只给出印有该牌的空格；死牌（本回合还能弃）给出任意空的非万能格。
// 不是当前回合或对局未进行时返回 nil。
func (g *Game) LegalMoves(id table.PublicID) []MoveAction {
	if g.status != InProgress || !g.players.IsCurrentPlayerTurn(id) {
		return nil
	}
	team, ok := g.players.Team(id)
	if !ok {
		return nil
	}
	hand, ok := g.players.Cards(id)
	if !ok {
		return nil
	}

	var moves []MoveAction
	seen := make(map[card.Card]bool, len(hand))
	for _, c := range hand {
		if seen[c] {
			continue
		}
		seen[c] = true

		for _, p := range g.targets(c, team) {
			cc := c
			moves = append(moves, MoveAction{Row: p.Row, Col: p.Col, Card: &cc})
		}
	}
	return moves
}

func (g *Game) targets(c card.Card, team board.Color) []board.Position {
	switch c.Kind() {
	case card.OneEyedJack:
		return g.scan(func(s board.Space) bool {
			return s.Occupied() && s.Chip() != team && !s.PartOfSequence()
		})
	case card.TwoEyedJack:
		return g.scan(func(s board.Space) bool { return !s.Occupied() })
	}

	if g.board.IsDeadCard(c) {
		if g.deadCardDiscarded {
			return nil
		}
		return g.scan(func(s board.Space) bool { return !s.Occupied() })
	}
	var out []board.Position
	for _, p := range g.board.SpacesForCard(c) {
		if s, _ := g.board.Space(p.Row, p.Col); !s.Occupied() {
			out = append(out, p)
		}
	}
	return out
}

// scan 行优先遍历所有非万能格
func (g *Game) scan(keep func(board.Space) bool) []board.Position {
	var out []board.Position
	for r := 0; r < g.board.Rows(); r++ {
		for c := 0; c < g.board.Cols(r); c++ {
			s, _ := g.board.Space(r, c)
			if s.IsWild() || !keep(s) {
				continue
			}
			out = append(out, board.Position{Row: r, Col: c})
		}
	}
	return out
}
