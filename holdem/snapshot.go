package holdem

import "holdem-tafel/card"

// PlayerView is one seat as seen by a particular viewer. Concealed cards
// of other players are card.Invalid.
type PlayerView struct {
	ID      string
	Name    string
	Seat    int
	Balance int64
	Bet     int64
	Hand    []card.Card
	HasTurn bool
	Folded  bool
	InHand  bool
}

type View struct {
	HandNumber uint64
	Phase      Phase
	Players    map[int]PlayerView
	Community  [5]card.Card
	Pot        int64
	HighestBet int64
	DealerSeat int
	TurnSeat   int
}

// Snapshot projects the table for viewer. An empty viewer sees only
// face-up cards.
func (g *Game) Snapshot(viewer string) (View, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	v := View{
		HandNumber: g.handNumber,
		Phase:      g.phase,
		Players:    make(map[int]PlayerView, len(g.players)),
		Community:  g.community,
		Pot:        g.ledger.Pot(),
		HighestBet: g.ledger.HighestBet(),
		DealerSeat: g.dealerSeat,
		TurnSeat:   g.turnSeat,
	}
	for id, p := range g.players {
		if prev, dup := v.Players[p.Seat]; dup {
			return View{}, &DuplicateSeatError{Seat: p.Seat, First: prev.ID, Second: id}
		}
		pv := PlayerView{
			ID:      p.ID,
			Name:    p.Name,
			Seat:    p.Seat,
			Balance: p.balance,
			Bet:     p.bet,
			HasTurn: p.hasTurn,
			Folded:  p.folded,
			InHand:  p.inHand,
			Hand:    make([]card.Card, 0, len(p.hand)),
		}
		for _, hc := range p.hand {
			if hc.FaceDown && viewer != p.ID {
				pv.Hand = append(pv.Hand, card.Invalid)
				continue
			}
			pv.Hand = append(pv.Hand, hc.Card)
		}
		v.Players[p.Seat] = pv
	}
	return v, nil
}
