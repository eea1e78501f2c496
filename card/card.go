package card

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Card 牌枚举
//
// 编码规则:
// - 高4位: 花色 (0:Spade, 1:Heart, 2:Club, 3:Diamond)
// - 低4位: 点数 (1:A, 2..9, 10:T, 11:J, 12:Q, 13:K)
type Card byte

// Invalid marks an empty slot; no real card encodes to zero.
const Invalid Card = 0

type Rank byte

const (
	Ace   Rank = 1
	Two   Rank = 2
	Three Rank = 3
	Four  Rank = 4
	Five  Rank = 5
	Six   Rank = 6
	Seven Rank = 7
	Eight Rank = 8
	Nine  Rank = 9
	Ten   Rank = 10
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// wire symbols, Dutch court cards: B(oer), V(rouw), K(oning)
var rankSymbols = [...]string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "T", "B", "V", "K"}

func (r Rank) Symbol() string {
	if r < Ace || r > King {
		return "?"
	}
	return rankSymbols[r]
}

func New(s Suit, r Rank) Card {
	return Card(byte(s)<<4 | byte(r))
}

func (c Card) Valid() bool {
	r := c.Rank()
	return r >= Ace && r <= King && c.Suit() <= Diamond
}

// Rank 获取牌面值 1-13 (A=1, K=13)
func (c Card) Rank() Rank {
	return Rank(c & 0x0F)
}

// Suit 花色 (0:Spades, 1:Hearts, 2:Clubs, 3:Diamonds)
func (c Card) Suit() Suit {
	return Suit(c >> 4)
}

func (c Card) String() string {
	if !c.Valid() {
		return "Invalid"
	}
	return c.Rank().Symbol() + c.Suit().String()
}

// Parse converts strings like "As", "Td", "10h" into a Card.
func Parse(cardStr string) (Card, error) {
	if len(cardStr) < 2 {
		return Invalid, fmt.Errorf("invalid card string: %s", cardStr)
	}

	var suit Suit
	switch cardStr[len(cardStr)-1] {
	case 's', 'S':
		suit = Spade
	case 'h', 'H':
		suit = Heart
	case 'c', 'C':
		suit = Club
	case 'd', 'D':
		suit = Diamond
	default:
		return Invalid, fmt.Errorf("invalid suit: %c", cardStr[len(cardStr)-1])
	}

	rankStr := strings.ToUpper(cardStr[:len(cardStr)-1])
	switch rankStr {
	case "10":
		rankStr = "T"
	case "J":
		rankStr = "B"
	case "Q":
		rankStr = "V"
	}
	r, err := rankFromSymbol(rankStr)
	if err != nil {
		return Invalid, err
	}
	return New(suit, r), nil
}

// MustParse is Parse for fixed test fixtures.
func MustParse(cardStr string) Card {
	c, err := Parse(cardStr)
	if err != nil {
		panic(err)
	}
	return c
}

func rankFromSymbol(sym string) (Rank, error) {
	for r := Ace; r <= King; r++ {
		if rankSymbols[r] == sym {
			return r, nil
		}
	}
	return 0, fmt.Errorf("invalid rank: %s", sym)
}

type wireCard struct {
	Kleur  string `json:"kleur"`
	Waarde string `json:"waarde"`
}

func (c Card) MarshalJSON() ([]byte, error) {
	if !c.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(wireCard{Kleur: c.Suit().Name(), Waarde: c.Rank().Symbol()})
}

func (c *Card) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Invalid
		return nil
	}
	var w wireCard
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s, err := suitFromName(w.Kleur)
	if err != nil {
		return err
	}
	r, err := rankFromSymbol(w.Waarde)
	if err != nil {
		return err
	}
	*c = New(s, r)
	return nil
}
