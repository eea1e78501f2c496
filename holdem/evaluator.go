package holdem

import (
	"fmt"

	"github.com/paulhankin/poker"

	"holdem-tafel/card"
)

// HandValue orders showdown hands; larger is stronger.
type HandValue int32

// Ranker scores a concealed hand against the community cards.
type Ranker interface {
	Rank(hand, community []card.Card) (HandValue, error)
}

type RankerFunc func(hand, community []card.Card) (HandValue, error)

func (f RankerFunc) Rank(hand, community []card.Card) (HandValue, error) { return f(hand, community) }

// SevenCardRanker evaluates the best five of hand+community with
// github.com/paulhankin/poker.
type SevenCardRanker struct{}

func (SevenCardRanker) Rank(hand, community []card.Card) (HandValue, error) {
	cards, err := sevenCards(hand, community)
	if err != nil {
		return 0, err
	}
	return HandValue(poker.Eval7(&cards)), nil
}

// DescribeHand names the best hand, e.g. "two pair, kings and nines".
func DescribeHand(hand, community []card.Card) (string, error) {
	cards, err := sevenCards(hand, community)
	if err != nil {
		return "", err
	}
	return poker.Describe(cards[:])
}

func sevenCards(hand, community []card.Card) ([7]poker.Card, error) {
	var out [7]poker.Card
	if len(hand)+len(community) != 7 {
		return out, fmt.Errorf("need 7 cards to evaluate, got %d", len(hand)+len(community))
	}
	i := 0
	for _, set := range [][]card.Card{hand, community} {
		for _, c := range set {
			pc, err := toPokerCard(c)
			if err != nil {
				return out, err
			}
			out[i] = pc
			i++
		}
	}
	return out, nil
}

func toPokerCard(c card.Card) (poker.Card, error) {
	var zero poker.Card
	if !c.Valid() {
		return zero, fmt.Errorf("invalid card %d", byte(c))
	}
	var s poker.Suit
	switch c.Suit() {
	case card.Club:
		s = poker.Club
	case card.Diamond:
		s = poker.Diamond
	case card.Heart:
		s = poker.Heart
	case card.Spade:
		s = poker.Spade
	}
	pc, err := poker.MakeCard(s, poker.Rank(c.Rank()))
	if err != nil {
		return zero, fmt.Errorf("invalid card %s: %w", c, err)
	}
	return pc, nil
}
