package holdem

import (
	"holdem-tafel/card"
)

type ShowdownHand struct {
	PlayerID    string
	Seat        int
	Cards       []card.Card
	Value       HandValue
	Description string
	IsWinner    bool
}

type Payout struct {
	PlayerID string
	Seat     int
	Amount   int64
}

type SettlementResult struct {
	HandNumber uint64
	Pot        int64
	Community  []card.Card
	// Showdown is false when the hand ended because everyone else folded.
	Showdown bool
	Hands    []ShowdownHand
	Payouts  []Payout
	// Unclaimed is pot left with nobody to receive it (all players gone).
	Unclaimed int64
}

func (r *SettlementResult) Winners() []string {
	ids := make([]string, 0, len(r.Payouts))
	for _, p := range r.Payouts {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

// splitPot divides pot among winners listed in turn order. The remainder
// of the integer division goes to the first of them.
func splitPot(pot int64, winners int) []int64 {
	if winners <= 0 {
		return nil
	}
	shares := make([]int64, winners)
	each := pot / int64(winners)
	for i := range shares {
		shares[i] = each
	}
	shares[0] += pot - each*int64(winners)
	return shares
}

// settleLocked runs showdown and payout for the active players, ordered
// from the seat after the dealer.
func (g *Game) settleLocked() (*SettlementResult, error) {
	active := g.activeInTurnOrderLocked(g.dealerSeat)
	result := &SettlementResult{
		HandNumber: g.handNumber,
		Pot:        g.ledger.Pot(),
		Community:  g.communityLocked(),
	}

	var winners []*Player
	switch len(active) {
	case 0:
		result.Unclaimed = g.ledger.Pot()
	case 1:
		winners = active
	default:
		g.phase = PhaseShowdown
		result.Showdown = true
		best := HandValue(0)
		values := make([]HandValue, len(active))
		for i, p := range active {
			p.revealHand()
			v, err := g.ranker.Rank(p.handCards(), result.Community)
			if err != nil {
				return nil, ErrInvalidState("rank seat %d: %v", p.Seat, err)
			}
			values[i] = v
			if i == 0 || v > best {
				best = v
			}
			desc, _ := DescribeHand(p.handCards(), result.Community)
			result.Hands = append(result.Hands, ShowdownHand{
				PlayerID:    p.ID,
				Seat:        p.Seat,
				Cards:       p.handCards(),
				Value:       v,
				Description: desc,
			})
		}
		for i, p := range active {
			if values[i] == best {
				winners = append(winners, p)
				result.Hands[i].IsWinner = true
			}
		}
	}

	g.phase = PhasePayout
	shares := splitPot(g.ledger.Pot(), len(winners))
	for i, p := range winners {
		g.ledger.payout(p, shares[i])
		result.Payouts = append(result.Payouts, Payout{PlayerID: p.ID, Seat: p.Seat, Amount: shares[i]})
	}
	if result.Unclaimed > 0 {
		g.ledger.pot = 0
	}
	return result, nil
}
