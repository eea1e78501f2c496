package card

import (
	"errors"
	"math/rand"
)

var ErrDeckEmpty = errors.New("deck exhausted")

type CardList []Card

func (ds CardList) Contains(c Card) bool {
	for _, cc := range ds {
		if cc == c {
			return true
		}
	}
	return false
}

// FullDeck returns the 52 distinct cards in a fixed order.
func FullDeck() CardList {
	cards := make(CardList, 0, 52)
	for _, s := range Suits {
		for r := Ace; r <= King; r++ {
			cards = append(cards, New(s, r))
		}
	}
	return cards
}

// Deck is the stock of one round. Cards leave it once and never come back.
type Deck struct {
	stock CardList
}

func NewDeck(rng *rand.Rand) *Deck {
	cards := FullDeck()
	rng.Shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return &Deck{stock: cards}
}

// Count 获取剩余牌数
func (d *Deck) Count() int {
	return len(d.stock)
}

func (d *Deck) Remaining() CardList {
	return append(CardList(nil), d.stock...)
}

func (d *Deck) Draw(size int) (CardList, error) {
	if size > len(d.stock) {
		return nil, ErrDeckEmpty
	}
	cards := make(CardList, size)
	copy(cards, d.stock[:size])
	d.stock = d.stock[size:]
	return cards, nil
}
