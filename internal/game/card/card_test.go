package card

import "testing"

// ✅ 布局记号解析
func TestFromLayoutToken(t *testing.T) {
	cases := []struct {
		token string
		want  Card
	}{
		{"AS", Card{Suit: Spades, Rank: 1}},
		{"2D", Card{Suit: Diamonds, Rank: 2}},
		{"9C", Card{Suit: Clubs, Rank: 9}},
		{"TH", Card{Suit: Hearts, Rank: 10}},
		{"JS", Card{Suit: Spades, Rank: 11}},
		{"QD", Card{Suit: Diamonds, Rank: 12}},
		{"KC", Card{Suit: Clubs, Rank: 13}},
	}
	for _, tc := range cases {
		got, ok := FromLayoutToken(tc.token)
		if !ok {
			t.Fatalf("token %q should parse", tc.token)
		}
		if got != tc.want {
			t.Fatalf("token %q: expected %+v, got %+v", tc.token, tc.want, got)
		}
		if got.String() != tc.token {
			t.Fatalf("String() should round trip %q, got %q", tc.token, got.String())
		}
	}
}

// ✅ 畸形记号与 FREE 返回 false
func TestFromLayoutTokenRejectsMalformed(t *testing.T) {
	for _, token := range []string{FreeToken, "", "A", "1S", "0H", "AX", "ZZ", "10S", "as"} {
		if _, ok := FromLayoutToken(token); ok {
			t.Fatalf("token %q should not parse", token)
		}
	}
}

// ✅ J 的分类
func TestKind(t *testing.T) {
	if !(Card{Suit: Spades, Rank: Jack}).IsOneEyedJack() {
		t.Fatalf("jack of spades is one-eyed")
	}
	if !(Card{Suit: Clubs, Rank: Jack}).IsOneEyedJack() {
		t.Fatalf("jack of clubs is one-eyed")
	}
	if !(Card{Suit: Hearts, Rank: Jack}).IsTwoEyedJack() {
		t.Fatalf("jack of hearts is two-eyed")
	}
	if !(Card{Suit: Diamonds, Rank: Jack}).IsTwoEyedJack() {
		t.Fatalf("jack of diamonds is two-eyed")
	}
	for _, s := range Suits {
		for r := Ace; r <= King; r++ {
			c := Card{Suit: s, Rank: r}
			if r != Jack && c.Kind() != Regular {
				t.Fatalf("%s should be regular, got %s", c, c.Kind())
			}
		}
	}
}

func TestValid(t *testing.T) {
	if !(Card{Suit: Hearts, Rank: King}).Valid() {
		t.Fatalf("KH should be valid")
	}
	if (Card{Suit: Hearts, Rank: 14}).Valid() {
		t.Fatalf("rank 14 should be invalid")
	}
	if (Card{Suit: "STARS", Rank: 3}).Valid() {
		t.Fatalf("unknown suit should be invalid")
	}
}
