package card

import "fmt"

type Suit byte

const (
	Spade Suit = iota // ♠️
	Heart             // ♥️
	Club              // ♣️
	Diamond           // ♦️
)

// Suits lists every suit in deck-building order.
var Suits = [...]Suit{Heart, Diamond, Club, Spade}

func (s Suit) String() string {
	switch s {
	case Diamond:
		return "♦"
	case Club:
		return "♣"
	case Heart:
		return "♥"
	case Spade:
		return "♠"
	}
	return "?"
}

// Name is the suit as it travels on the wire.
func (s Suit) Name() string {
	switch s {
	case Heart:
		return "harten"
	case Diamond:
		return "ruiten"
	case Club:
		return "klaveren"
	case Spade:
		return "schoppen"
	}
	return ""
}

func suitFromName(name string) (Suit, error) {
	for _, s := range Suits {
		if s.Name() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown suit %q", name)
}
