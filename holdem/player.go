package holdem

import "holdem-tafel/card"

// HoleCard is one concealed card with its visibility flag.
type HoleCard struct {
	Card     card.Card
	FaceDown bool
}

type Player struct {
	ID   string
	Name string
	Seat int

	balance int64
	bet     int64

	inHand     bool
	folded     bool
	hasTurn    bool
	lastAction *Action

	hand []HoleCard
	slot *ActionSlot
}

func newPlayer(id, name string, balance int64) *Player {
	return &Player{
		ID:      id,
		Name:    name,
		balance: balance,
		slot:    NewActionSlot(),
	}
}

func (p *Player) Balance() int64 { return p.balance }
func (p *Player) Bet() int64     { return p.bet }
func (p *Player) Folded() bool   { return p.folded }
func (p *Player) InHand() bool   { return p.inHand }

// active players are dealt in and still contesting the pot.
func (p *Player) active() bool {
	return p != nil && p.inHand && !p.folded
}

func (p *Player) resetForNewHand() {
	p.bet = 0
	p.inHand = false
	p.folded = false
	p.hasTurn = false
	p.lastAction = nil
	p.hand = make([]HoleCard, 0, 2)
	p.slot.Clear()
}

func (p *Player) addHandCard(cards ...card.Card) {
	for _, c := range cards {
		p.hand = append(p.hand, HoleCard{Card: c, FaceDown: true})
	}
}

func (p *Player) revealHand() {
	for i := range p.hand {
		p.hand[i].FaceDown = false
	}
}

func (p *Player) handCards() []card.Card {
	out := make([]card.Card, 0, len(p.hand))
	for _, hc := range p.hand {
		out = append(out, hc.Card)
	}
	return out
}

func (p *Player) fold() {
	p.folded = true
	p.lastAction = &Action{Type: ActionPass}
}
