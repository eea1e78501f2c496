package holdem

import "fmt"

// Ledger keeps the pot and the highest round wager. It is owned by the
// Game and only touched under the table lock.
type Ledger struct {
	pot     int64
	highest int64
	// wagers left behind by players who stood up mid-hand
	forfeited int64
}

func (l *Ledger) Reset() {
	l.pot = 0
	l.highest = 0
	l.forfeited = 0
}

func (l *Ledger) Pot() int64        { return l.pot }
func (l *Ledger) HighestBet() int64 { return l.highest }
func (l *Ledger) Forfeited() int64  { return l.forfeited }

// Post moves amount from the player's balance into the pot.
func (l *Ledger) Post(p *Player, amount int64) error {
	if amount < 0 {
		return ErrInvalidState("negative post %d", amount)
	}
	if amount > p.balance {
		return fmt.Errorf("%w: need %d, have %d", ErrInsufficientFunds, amount, p.balance)
	}
	p.balance -= amount
	p.bet += amount
	l.pot += amount
	if p.bet > l.highest {
		l.highest = p.bet
	}
	return nil
}

// ValidateRaise checks a raise-to amount against the table state.
func (l *Ledger) ValidateRaise(p *Player, amount int64) error {
	if amount <= l.highest {
		return fmt.Errorf("%w: raise to %d, highest bet is %d", ErrRaiseTooLow, amount, l.highest)
	}
	if delta := amount - p.bet; delta > p.balance {
		return fmt.Errorf("%w: raise needs %d, have %d", ErrInsufficientFunds, delta, p.balance)
	}
	return nil
}

func (l *Ledger) Raise(p *Player, amount int64) error {
	if err := l.ValidateRaise(p, amount); err != nil {
		return err
	}
	return l.Post(p, amount-p.bet)
}

func (l *Ledger) Shortfall(p *Player) int64 {
	if s := l.highest - p.bet; s > 0 {
		return s
	}
	return 0
}

// SettleCall posts exactly what the player is behind.
func (l *Ledger) SettleCall(p *Player) (int64, error) {
	s := l.Shortfall(p)
	if s == 0 {
		return 0, nil
	}
	if err := l.Post(p, s); err != nil {
		return 0, err
	}
	return s, nil
}

// forfeit keeps a departing player's wager in the pot.
func (l *Ledger) forfeit(p *Player) {
	l.forfeited += p.bet
	p.bet = 0
}

func (l *Ledger) payout(p *Player, amount int64) {
	p.balance += amount
	l.pot -= amount
}

// refund hands a wager back, used when a hand is aborted.
func (l *Ledger) refund(p *Player) {
	p.balance += p.bet
	l.pot -= p.bet
	p.bet = 0
}
