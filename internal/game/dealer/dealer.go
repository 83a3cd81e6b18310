package dealer

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"SequenceGame/internal/game/card"
)

// DeckSize 两副标准牌
const DeckSize = 2 * 52

var (
	ErrEmptyDeck          = errors.New("deck is empty")
	ErrInvalidPlayerCount = errors.New("invalid player count")
)

// Deck 抽牌堆 + 弃牌堆。抽牌总是从队首取；抽牌堆空时把弃牌堆洗匀后接上。
type Deck struct {
	draw    []card.Card
	discard []card.Card
	rnd     *rand.Rand
}

// NewDeck 建 104 张牌并洗牌；rnd 为 nil 时使用当前时间做种子
func NewDeck(rnd *rand.Rand) *Deck {
	d := &Deck{
		draw:    makeCards(),
		discard: make([]card.Card, 0, DeckSize),
		rnd:     orDefault(rnd),
	}
	d.shuffle(d.draw)
	return d
}

// NewSeededDeck 固定种子，测试与模拟复现用
func NewSeededDeck(seed int64) *Deck {
	return NewDeck(rand.New(rand.NewSource(seed)))
}

// FromPiles 按给定顺序重建牌堆（不洗牌），用于快照恢复或测试构造
func FromPiles(drawPile, discardPile []card.Card, rnd *rand.Rand) *Deck {
	d := &Deck{
		draw:    append(make([]card.Card, 0, len(drawPile)), drawPile...),
		discard: append(make([]card.Card, 0, len(discardPile)), discardPile...),
		rnd:     orDefault(rnd),
	}
	return d
}

func orDefault(rnd *rand.Rand) *rand.Rand {
	if rnd != nil {
		return rnd
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func makeCards() []card.Card {
	cards := make([]card.Card, 0, DeckSize)
	for copyNo := 0; copyNo < 2; copyNo++ {
		for _, s := range card.Suits {
			for r := card.Ace; r <= card.King; r++ {
				cards = append(cards, card.Card{Suit: s, Rank: r})
			}
		}
	}
	return cards
}

func (d *Deck) shuffle(cards []card.Card) {
	d.rnd.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
}

// Draw 抽一张。两堆都空才返回 ErrEmptyDeck。
func (d *Deck) Draw() (card.Card, error) {
	if len(d.draw) == 0 {
		if len(d.discard) == 0 {
			return card.Card{}, ErrEmptyDeck
		}
		d.reshuffleDiscard()
	}
	c := d.draw[0]
	d.draw = d.draw[1:]
	return c, nil
}

// DrawN 连续抽 n 张；中途抽空时返回 ErrEmptyDeck（已抽出的牌不回退）
func (d *Deck) DrawN(n int) ([]card.Card, error) {
	out := make([]card.Card, 0, n)
	for i := 0; i < n; i++ {
		c, err := d.Draw()
		if err != nil {
			return out, fmt.Errorf("draw %d of %d: %w", i+1, n, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Discard 放入弃牌堆
func (d *Deck) Discard(c card.Card) {
	d.discard = append(d.discard, c)
}

func (d *Deck) reshuffleDiscard() {
	pile := d.discard
	d.shuffle(pile)
	d.draw = append(d.draw, pile...)
	d.discard = make([]card.Card, 0, cap(pile))
}

// DrawPile 抽牌堆副本（队首在前）
func (d *Deck) DrawPile() []card.Card {
	return append([]card.Card(nil), d.draw...)
}

// DiscardPile 弃牌堆副本（先弃在前）
func (d *Deck) DiscardPile() []card.Card {
	return append([]card.Card(nil), d.discard...)
}

func (d *Deck) Len() int        { return len(d.draw) }
func (d *Deck) DiscardLen() int { return len(d.discard) }

// HandSize 每人手牌数，取决于人数
func HandSize(players int) (int, error) {
	switch players {
	case 2:
		return 7, nil
	case 3, 4:
		return 6, nil
	case 6:
		return 5, nil
	case 8, 9:
		return 4, nil
	case 10, 12:
		return 3, nil
	}
	return 0, fmt.Errorf("%w: no hand size for %d players", ErrInvalidPlayerCount, players)
}

// DealHands 按座位顺序给每人发 HandSize 张
func (d *Deck) DealHands(players int) ([][]card.Card, error) {
	size, err := HandSize(players)
	if err != nil {
		return nil, err
	}
	hands := make([][]card.Card, players)
	for i := range hands {
		hand, err := d.DrawN(size)
		if err != nil {
			return nil, err
		}
		hands[i] = hand
	}
	return hands, nil
}
