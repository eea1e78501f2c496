package holdem

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"holdem-tafel/card"
)

// Game is the round engine of one table. A single goroutine drives hands
// through Run or PlayHand; connection goroutines call Join, Leave, Submit
// and Snapshot concurrently.
type Game struct {
	cfg    Config
	rng    *rand.Rand
	ranker Ranker
	log    logrus.FieldLogger

	mu sync.Mutex

	seats   *SeatTable
	players map[string]*Player

	// hand state
	handNumber   uint64
	phase        Phase
	deck         *card.Deck
	community    [5]card.Card
	ledger       Ledger
	dealerSeat   int
	bigBlindSeat int
	turnSeat     int

	// interrupts the current wait when the hand can no longer continue
	turnCancel      context.CancelFunc
	turnInterrupted bool

	// wakes Run when the seat table changes
	changed chan struct{}

	listenersMu sync.RWMutex
	listeners   []Listener
}

func NewGame(cfg Config, ranker Ranker, log logrus.FieldLogger) (*Game, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if ranker == nil {
		ranker = SevenCardRanker{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Game{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(seed)),
		ranker:  ranker,
		log:     log,
		seats:   NewSeatTable(cfg.MaxPlayers),
		players: make(map[string]*Player, cfg.MaxPlayers),
		phase:   PhaseIdle,
		changed: make(chan struct{}, 1),
	}, nil
}

func (g *Game) Config() Config { return g.cfg }

// Join seats a new player with the starting balance. A player joining
// during a hand waits for the next one.
func (g *Game) Join(playerID, name string) (int, error) {
	g.mu.Lock()
	seat, err := g.seats.Seat(playerID)
	if err != nil {
		g.mu.Unlock()
		return NoSeat, err
	}
	p := newPlayer(playerID, name, g.cfg.StartBalance)
	p.Seat = seat
	g.players[playerID] = p
	hand := g.handNumber
	g.mu.Unlock()

	g.log.WithFields(logrus.Fields{"player": name, "seat": seat}).Info("player seated")
	g.notifyChanged()
	g.emit(Event{Type: EventSeated, HandNumber: hand, Seat: seat, PlayerID: playerID})
	return seat, nil
}

// Leave unseats the player immediately. Their wager stays in the pot and,
// if the engine is waiting on them, the wait resolves as a fold.
func (g *Game) Leave(playerID string) bool {
	g.mu.Lock()
	p := g.players[playerID]
	if p == nil {
		g.mu.Unlock()
		return false
	}
	delete(g.players, playerID)
	g.seats.Unseat(playerID)
	if p.inHand && g.phase != PhaseIdle {
		if !p.folded {
			p.fold()
		}
		g.ledger.forfeit(p)
		// the engine may be waiting on the last player still in
		if g.turnCancel != nil && p.Seat != g.turnSeat && g.activeCountLocked() <= 1 {
			g.turnInterrupted = true
			g.turnCancel()
		}
	}
	hand := g.handNumber
	g.mu.Unlock()

	p.slot.Cancel()
	g.log.WithFields(logrus.Fields{"player": p.Name, "seat": p.Seat}).Info("player left")
	g.notifyChanged()
	g.emit(Event{Type: EventLeft, HandNumber: hand, Seat: p.Seat, PlayerID: playerID})
	return true
}

// Submit validates a against the current table state and hands it to the
// engine. Out-of-turn and illegal actions are rejected with an error.
func (g *Game) Submit(playerID string, a Action) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.players[playerID]
	if p == nil {
		return ErrNotSeated
	}
	if !p.hasTurn || !g.phase.Betting() {
		return ErrOutOfTurn
	}
	if err := g.validateLocked(p, a); err != nil {
		return err
	}
	// deposited under g.mu so the engine cannot close the turn in between
	p.slot.Submit(a)
	return nil
}

func (g *Game) validateLocked(p *Player, a Action) error {
	switch a.Type {
	case ActionPass:
		return nil
	case ActionCheck:
		if s := g.ledger.Shortfall(p); s > p.balance {
			return fmt.Errorf("%w: call needs %d, have %d", ErrInsufficientFunds, s, p.balance)
		}
		return nil
	case ActionRaise:
		return g.ledger.ValidateRaise(p, a.Amount)
	default:
		return ErrUnknownAction
	}
}

// Run plays hands until ctx is cancelled, waiting for enough players
// between hands.
func (g *Game) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := g.PlayHand(ctx)
		switch {
		case errors.Is(err, ErrNotEnoughPlayers):
			select {
			case <-g.changed:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			g.log.WithError(err).Error("hand aborted")
		default:
			g.log.WithFields(logrus.Fields{
				"hand":    result.HandNumber,
				"pot":     result.Pot,
				"winners": result.Winners(),
			}).Info("hand finished")
		}
		if g.cfg.HandDelay > 0 {
			select {
			case <-time.After(g.cfg.HandDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (g *Game) notifyChanged() {
	select {
	case g.changed <- struct{}{}:
	default:
	}
}

type street struct {
	phase  Phase
	reveal int
}

var streets = [...]street{
	{PhasePreflop, 0},
	{PhaseFlop, 3},
	{PhaseTurn, 1},
	{PhaseRiver, 1},
}

// PlayHand runs one full hand from setup to payout. It returns
// ErrNotEnoughPlayers without touching chips when fewer than MinPlayers
// can cover the big blind.
func (g *Game) PlayHand(ctx context.Context) (*SettlementResult, error) {
	if err := g.setup(); err != nil {
		return nil, err
	}
	if err := g.postBlinds(); err != nil {
		return nil, g.abort(err)
	}
	for _, st := range streets {
		if g.activeCount() <= 1 {
			break
		}
		if st.reveal > 0 {
			if err := g.reveal(st.phase, st.reveal); err != nil {
				return nil, g.abort(err)
			}
		}
		if err := g.bettingPhase(ctx, st.phase); err != nil {
			return nil, g.abort(err)
		}
	}

	g.mu.Lock()
	result, err := g.settleLocked()
	if err != nil {
		g.mu.Unlock()
		return nil, g.abort(err)
	}
	g.phase = PhaseIdle
	g.mu.Unlock()

	events := []Event{}
	if result.Showdown {
		events = append(events, Event{Type: EventShowdown, HandNumber: result.HandNumber, Phase: PhaseShowdown, Result: result})
	}
	events = append(events, Event{Type: EventHandEnd, HandNumber: result.HandNumber, Phase: PhaseIdle, Result: result})
	g.emit(events...)
	if result.Unclaimed > 0 {
		g.log.WithFields(logrus.Fields{"hand": result.HandNumber, "pot": result.Unclaimed}).Warn("pot unclaimed, every player left")
	}
	return result, nil
}

// setup resets the round and deals two concealed cards to every seated
// player who can cover the big blind.
func (g *Game) setup() error {
	g.mu.Lock()
	if err := g.checkSeatsLocked(); err != nil {
		g.mu.Unlock()
		return g.abort(err)
	}
	g.phase = PhaseSetup
	g.ledger.Reset()
	g.community = [5]card.Card{}
	g.turnSeat = NoSeat
	g.bigBlindSeat = NoSeat
	g.deck = card.NewDeck(g.rng)

	inHand := make([]int, 0, len(g.players))
	for _, seat := range g.seats.Occupied() {
		p := g.playerAtLocked(seat)
		if p == nil {
			continue
		}
		p.resetForNewHand()
		if p.balance >= g.cfg.BigBlind {
			p.inHand = true
			inHand = append(inHand, seat)
		}
	}
	if len(inHand) < g.cfg.MinPlayers {
		for _, p := range g.players {
			p.inHand = false
		}
		g.phase = PhaseIdle
		g.mu.Unlock()
		return fmt.Errorf("%w: %d < %d", ErrNotEnoughPlayers, len(inHand), g.cfg.MinPlayers)
	}

	dealer, err := NextSeat(inHand, g.dealerSeat)
	if err != nil {
		g.mu.Unlock()
		return g.abort(ErrInvalidState("no dealer: %v", err))
	}
	g.dealerSeat = dealer
	g.handNumber++

	for round := 0; round < 2; round++ {
		for _, seat := range TurnOrder(inHand, dealer) {
			cards, err := g.deck.Draw(1)
			if err != nil {
				g.mu.Unlock()
				return g.abort(ErrInvalidState("deal: %v", err))
			}
			g.playerAtLocked(seat).addHandCard(cards...)
		}
	}
	hand := g.handNumber
	g.mu.Unlock()

	g.log.WithFields(logrus.Fields{"hand": hand, "dealer": dealer, "players": len(inHand)}).Info("hand started")
	g.emit(Event{Type: EventHandStart, HandNumber: hand, Phase: PhaseSetup, Seat: dealer})
	return nil
}

func (g *Game) postBlinds() error {
	g.mu.Lock()
	g.phase = PhaseBlinds
	occupied := g.seats.Occupied()
	sb, ok := NextMatching(occupied, g.dealerSeat, g.activeSeatLocked)
	if !ok {
		g.mu.Unlock()
		return ErrInvalidState("no small blind seat")
	}
	bb, ok := NextMatching(occupied, sb, g.activeSeatLocked)
	if !ok {
		g.mu.Unlock()
		return ErrInvalidState("no big blind seat")
	}
	if err := g.ledger.Post(g.playerAtLocked(sb), g.cfg.SmallBlind); err != nil {
		g.mu.Unlock()
		return ErrInvalidState("small blind: %v", err)
	}
	if err := g.ledger.Post(g.playerAtLocked(bb), g.cfg.BigBlind); err != nil {
		g.mu.Unlock()
		return ErrInvalidState("big blind: %v", err)
	}
	g.bigBlindSeat = bb
	hand := g.handNumber
	g.mu.Unlock()

	g.log.WithFields(logrus.Fields{"hand": hand, "small_blind": sb, "big_blind": bb}).Debug("blinds posted")
	return nil
}

func (g *Game) reveal(phase Phase, n int) error {
	g.mu.Lock()
	cards, err := g.deck.Draw(n)
	if err != nil {
		g.mu.Unlock()
		return ErrInvalidState("reveal: %v", err)
	}
	filled := 0
	for i := range g.community {
		if filled == len(cards) {
			break
		}
		if g.community[i] == card.Invalid {
			g.community[i] = cards[filled]
			filled++
		}
	}
	if filled != len(cards) {
		g.mu.Unlock()
		return ErrInvalidState("no room for %d community cards", len(cards))
	}
	hand := g.handNumber
	g.mu.Unlock()

	g.emit(Event{Type: EventReveal, HandNumber: hand, Phase: phase, Cards: cards})
	return nil
}

// bettingPhase asks players for actions in turn order until the phase is
// settled or only one player is left.
func (g *Game) bettingPhase(ctx context.Context, phase Phase) error {
	g.mu.Lock()
	g.phase = phase
	anchor := g.dealerSeat
	if phase == PhasePreflop {
		anchor = g.bigBlindSeat
	}
	acted := make(map[string]bool, len(g.players))
	actor, ok := NextMatching(g.seats.Occupied(), anchor, g.activeSeatLocked)
	hand := g.handNumber
	g.mu.Unlock()
	if !ok {
		return nil
	}

	for {
		g.mu.Lock()
		if g.activeCountLocked() <= 1 || g.phaseSettledLocked(acted) {
			g.mu.Unlock()
			return nil
		}
		p := g.playerAtLocked(actor)
		if !p.active() {
			actor, ok = NextMatching(g.seats.Occupied(), actor, g.activeSeatLocked)
			g.mu.Unlock()
			if !ok {
				return nil
			}
			continue
		}
		// a submission left over from an earlier turn must not answer this one
		p.slot.Clear()
		p.hasTurn = true
		g.turnSeat = actor
		turnCtx, cancel := context.WithCancel(ctx)
		g.turnCancel = cancel
		g.turnInterrupted = false
		slot := p.slot
		g.mu.Unlock()

		g.emit(Event{Type: EventTurn, HandNumber: hand, Phase: phase, Seat: actor, PlayerID: p.ID})

		action, waitErr := g.awaitAction(turnCtx, slot)

		g.mu.Lock()
		cancel()
		g.turnCancel = nil
		p.hasTurn = false
		g.turnSeat = NoSeat
		if err := ctx.Err(); err != nil {
			g.mu.Unlock()
			return err
		}
		if g.turnInterrupted && g.activeCountLocked() <= 1 {
			// everyone else left; the hand goes straight to payout
			g.turnInterrupted = false
			g.mu.Unlock()
			return nil
		}

		var ev Event
		switch {
		case waitErr != nil || g.players[p.ID] != p:
			if !p.folded {
				p.fold()
			}
			acted[p.ID] = true
			ev = Event{Type: EventAction, HandNumber: hand, Phase: phase, Seat: actor, PlayerID: p.ID, Action: foldAction, Implicit: true, Err: waitErr}
			g.log.WithFields(logrus.Fields{"hand": hand, "seat": actor, "player": p.Name}).WithError(waitErr).Info("implicit fold")
		default:
			if err := g.applyLocked(p, action); err != nil {
				g.mu.Unlock()
				g.log.WithFields(logrus.Fields{"hand": hand, "seat": actor, "player": p.Name, "action": action.String()}).WithError(err).Warn("action rejected")
				g.emit(Event{Type: EventRejected, HandNumber: hand, Phase: phase, Seat: actor, PlayerID: p.ID, Action: action, Err: err})
				continue
			}
			if action.Type == ActionRaise {
				acted = make(map[string]bool, len(g.players))
			}
			acted[p.ID] = true
			ev = Event{Type: EventAction, HandNumber: hand, Phase: phase, Seat: actor, PlayerID: p.ID, Action: action}
		}
		next, more := NextMatching(g.seats.Occupied(), actor, g.activeSeatLocked)
		g.mu.Unlock()

		g.emit(ev)
		if !more {
			return nil
		}
		actor = next
	}
}

func (g *Game) awaitAction(ctx context.Context, slot *ActionSlot) (Action, error) {
	if g.cfg.ActionTimeout <= 0 {
		return slot.Await(ctx)
	}
	waitCtx, cancel := context.WithTimeout(ctx, g.cfg.ActionTimeout)
	defer cancel()
	return slot.Await(waitCtx)
}

func (g *Game) applyLocked(p *Player, a Action) error {
	switch a.Type {
	case ActionPass:
		p.fold()
		return nil
	case ActionCheck:
		if _, err := g.ledger.SettleCall(p); err != nil {
			return err
		}
	case ActionRaise:
		if err := g.ledger.Raise(p, a.Amount); err != nil {
			return err
		}
	default:
		return ErrUnknownAction
	}
	p.lastAction = &a
	return nil
}

// abort resets an interrupted hand: wagers go back to their owners and
// the table returns to idle so the next hand can start.
func (g *Game) abort(cause error) error {
	g.mu.Lock()
	hand := g.handNumber
	for _, p := range g.players {
		g.ledger.refund(p)
		p.hand = nil
		p.inHand = false
		p.folded = false
		p.hasTurn = false
	}
	lost := g.ledger.forfeited
	g.ledger.Reset()
	g.community = [5]card.Card{}
	g.turnSeat = NoSeat
	g.phase = PhaseIdle
	g.mu.Unlock()

	entry := g.log.WithFields(logrus.Fields{"hand": hand, "forfeited": lost}).WithError(cause)
	if isInvariantViolation(cause) {
		entry.Error("hand aborted on invariant violation")
	} else {
		entry.Warn("hand aborted")
	}
	g.emit(Event{Type: EventAborted, HandNumber: hand, Phase: PhaseIdle, Err: cause})
	return fmt.Errorf("hand %d aborted: %w", hand, cause)
}

func (g *Game) playerAtLocked(seat int) *Player {
	id, ok := g.seats.Occupant(seat)
	if !ok {
		return nil
	}
	return g.players[id]
}

func (g *Game) activeSeatLocked(seat int) bool {
	return g.playerAtLocked(seat).active()
}

func (g *Game) activeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activeCountLocked()
}

func (g *Game) activeCountLocked() int {
	n := 0
	for _, p := range g.players {
		if p.active() {
			n++
		}
	}
	return n
}

// phaseSettledLocked: everyone still in has acted since the last raise
// and matched the highest bet.
func (g *Game) phaseSettledLocked(acted map[string]bool) bool {
	for id, p := range g.players {
		if !p.active() {
			continue
		}
		if !acted[id] || p.bet != g.ledger.HighestBet() {
			return false
		}
	}
	return true
}

func (g *Game) activeInTurnOrderLocked(from int) []*Player {
	out := make([]*Player, 0, len(g.players))
	for _, seat := range TurnOrder(g.seats.Occupied(), from) {
		if p := g.playerAtLocked(seat); p.active() {
			out = append(out, p)
		}
	}
	return out
}

func (g *Game) communityLocked() []card.Card {
	out := make([]card.Card, 0, len(g.community))
	for _, c := range g.community {
		if c != card.Invalid {
			out = append(out, c)
		}
	}
	return out
}

func (g *Game) checkSeatsLocked() error {
	bySeat := make(map[int]string, len(g.players))
	for id, p := range g.players {
		if other, dup := bySeat[p.Seat]; dup {
			return &DuplicateSeatError{Seat: p.Seat, First: other, Second: id}
		}
		bySeat[p.Seat] = id
	}
	return nil
}

// Pot, HighestBet, Phase and friends are point-in-time reads for callers
// outside the engine goroutine.

func (g *Game) Pot() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.Pot()
}

func (g *Game) HighestBet() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.HighestBet()
}

func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *Game) DealerSeat() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dealerSeat
}

// Turn returns the seat and player currently awaited, if any.
func (g *Game) Turn() (int, string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.turnSeat == NoSeat {
		return NoSeat, "", false
	}
	id, _ := g.seats.Occupant(g.turnSeat)
	return g.turnSeat, id, true
}

func (g *Game) Balance(playerID string) (int64, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.players[playerID]
	if p == nil {
		return 0, false
	}
	return p.balance, true
}

func (g *Game) SeatOf(playerID string) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seats.SeatOf(playerID)
}

func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}
