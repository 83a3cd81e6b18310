package card

import "fmt"

// Suit 花色，直接用字符串便于 JSON 与快照阅读
type Suit string

const (
	Spades   Suit = "SPADES"
	Hearts   Suit = "HEARTS"
	Diamonds Suit = "DIAMONDS"
	Clubs    Suit = "CLUBS"
)

// Suits 固定顺序，建牌时使用
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

const (
	Ace   = 1
	Jack  = 11
	Queen = 12
	King  = 13
)

// FreeToken 棋盘四角的占位符（无牌）
const FreeToken = "FREE"

// Card 牌面 (suit, rank 1-13)，值类型，同花色同点数即相等（双副牌各有一张）
type Card struct {
	Suit Suit `json:"suit"`
	Rank int  `json:"rank"`
}

// Kind 出牌类型
type Kind int

const (
	Regular Kind = iota
	OneEyedJack
	TwoEyedJack
)

func (k Kind) String() string {
	switch k {
	case OneEyedJack:
		return "one-eyed jack"
	case TwoEyedJack:
		return "two-eyed jack"
	default:
		return "regular"
	}
}

// Kind 纯函数分类：黑桃/梅花 J 为单眼 J（移除），红桃/方块 J 为双眼 J（任意落子）
func (c Card) Kind() Kind {
	if c.Rank != Jack {
		return Regular
	}
	switch c.Suit {
	case Spades, Clubs:
		return OneEyedJack
	case Hearts, Diamonds:
		return TwoEyedJack
	}
	return Regular
}

func (c Card) IsOneEyedJack() bool { return c.Kind() == OneEyedJack }
func (c Card) IsTwoEyedJack() bool { return c.Kind() == TwoEyedJack }

// Valid 花色合法且点数在 [1,13]
func (c Card) Valid() bool {
	if c.Rank < Ace || c.Rank > King {
		return false
	}
	for _, s := range Suits {
		if s == c.Suit {
			return true
		}
	}
	return false
}

// String 返回与棋盘布局相同的两字符记法，如 "AS"、"TH"
func (c Card) String() string {
	return fmtCard(c)
}

// FromLayoutToken 解析布局表中的两字符记号（点数 + 花色）。
// "FREE" 及任何畸形记号返回 ok=false。
func FromLayoutToken(token string) (Card, bool) {
	if len(token) != 2 {
		return Card{}, false
	}
	rank, ok := rankFromChar(token[0])
	if !ok {
		return Card{}, false
	}
	suit, ok := suitFromChar(token[1])
	if !ok {
		return Card{}, false
	}
	return Card{Suit: suit, Rank: rank}, true
}

func rankFromChar(b byte) (int, bool) {
	switch b {
	case 'A':
		return Ace, true
	case 'T':
		return 10, true
	case 'J':
		return Jack, true
	case 'Q':
		return Queen, true
	case 'K':
		return King, true
	}
	if b >= '2' && b <= '9' {
		return int(b - '0'), true
	}
	return 0, false
}

func suitFromChar(b byte) (Suit, bool) {
	switch b {
	case 'S':
		return Spades, true
	case 'H':
		return Hearts, true
	case 'D':
		return Diamonds, true
	case 'C':
		return Clubs, true
	}
	return "", false
}

func fmtCard(c Card) string {
	ranks := map[int]string{
		Ace:   "A",
		10:    "T",
		Jack:  "J",
		Queen: "Q",
		King:  "K",
	}
	rankStr, ok := ranks[c.Rank]
	if !ok {
		rankStr = fmt.Sprintf("%d", c.Rank)
	}
	suitStr := "?"
	if c.Suit != "" {
		suitStr = string(c.Suit[0])
	}
	return rankStr + suitStr
}
