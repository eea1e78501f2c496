package holdem

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"holdem-tafel/card"
)

type handOutcome struct {
	result *SettlementResult
	err    error
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ActionTimeout = 5 * time.Second
	cfg.HandDelay = 0
	cfg.Seed = 1
	return cfg
}

type testTable struct {
	*Game
	turns chan Event
}

func newTestGame(t *testing.T, cfg Config, ranker Ranker, ids ...string) *testTable {
	t.Helper()
	log, _ := logtest.NewNullLogger()
	g, err := NewGame(cfg, ranker, log)
	if err != nil {
		t.Fatalf("NewGame err: %v", err)
	}
	tb := &testTable{Game: g, turns: make(chan Event, 256)}
	g.Subscribe(func(e Event) {
		if e.Type == EventTurn {
			tb.turns <- e
		}
	})
	for _, id := range ids {
		if _, err := g.Join(id, "name-"+id); err != nil {
			t.Fatalf("Join(%s) err: %v", id, err)
		}
	}
	return tb
}

func startHand(ctx context.Context, g *testTable) <-chan handOutcome {
	out := make(chan handOutcome, 1)
	go func() {
		r, err := g.PlayHand(ctx)
		out <- handOutcome{r, err}
	}()
	return out
}

// expectTurn consumes the next turn prompt and checks its seat.
func (tb *testTable) expectTurn(t *testing.T, seat int) {
	t.Helper()
	select {
	case e := <-tb.turns:
		if e.Seat != seat {
			t.Fatalf("expected turn at seat %d, got %d", seat, e.Seat)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for seat %d", seat)
	}
}

func (tb *testTable) act(t *testing.T, seat int, id string, a Action) {
	t.Helper()
	tb.expectTurn(t, seat)
	tb.submit(t, id, a)
}

func (tb *testTable) submit(t *testing.T, id string, a Action) {
	t.Helper()
	if err := tb.Submit(id, a); err != nil {
		t.Fatalf("Submit(%s, %s) err: %v", id, a, err)
	}
}

func wait(t *testing.T, ch <-chan handOutcome) handOutcome {
	t.Helper()
	select {
	case o := <-ch:
		return o
	case <-time.After(3 * time.Second):
		t.Fatalf("hand did not finish")
	}
	return handOutcome{}
}

func balances(g *testTable, ids ...string) int64 {
	var sum int64
	for _, id := range ids {
		b, _ := g.Balance(id)
		sum += b
	}
	return sum
}

var (
	check = Action{Type: ActionCheck}
	pass  = Action{Type: ActionPass}
)

func raise(to int64) Action { return Action{Type: ActionRaise, Amount: to} }

func TestPlayHand_BlindsAndFoldToOne(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a", "b", "c")
	done := startHand(context.Background(), g)

	// dealer seat 1, small blind seat 2, big blind seat 3; seat 1 acts first
	g.expectTurn(t, 1)
	if g.Pot() != 3 || g.HighestBet() != 2 {
		t.Fatalf("after blinds expected pot 3 highest 2, got %d/%d", g.Pot(), g.HighestBet())
	}
	if g.DealerSeat() != 1 {
		t.Fatalf("expected dealer seat 1, got %d", g.DealerSeat())
	}

	g.submit(t, "a", pass)
	g.act(t, 2, "b", pass)

	o := wait(t, done)
	if o.err != nil {
		t.Fatalf("PlayHand err: %v", o.err)
	}
	if o.result.Showdown {
		t.Fatalf("fold-to-one should not reach showdown")
	}
	if w := o.result.Winners(); len(w) != 1 || w[0] != "c" {
		t.Fatalf("expected c to win, got %v", w)
	}
	if b, _ := g.Balance("c"); b != 101 {
		t.Fatalf("expected c balance 101, got %d", b)
	}
	if total := balances(g, "a", "b", "c"); total != 300 {
		t.Fatalf("chips not conserved: %d", total)
	}
	if g.Phase() != PhaseIdle {
		t.Fatalf("expected idle after hand, got %s", g.Phase())
	}
}

func TestPlayHand_RaiseCallToShowdown(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a", "b", "c")
	done := startHand(context.Background(), g)

	g.act(t, 1, "a", raise(10))
	g.act(t, 2, "b", check)
	g.expectTurn(t, 3)
	if g.HighestBet() != 10 {
		t.Fatalf("expected highest 10, got %d", g.HighestBet())
	}
	g.submit(t, "c", check)

	// flop, turn, river: first to act is left of the dealer
	for street := 0; street < 3; street++ {
		g.expectTurn(t, 2)
		if g.Pot() != 30 {
			t.Fatalf("expected pot 30, got %d", g.Pot())
		}
		g.submit(t, "b", check)
		g.act(t, 3, "c", check)
		g.act(t, 1, "a", check)
	}

	o := wait(t, done)
	if o.err != nil {
		t.Fatalf("PlayHand err: %v", o.err)
	}
	r := o.result
	if !r.Showdown || len(r.Hands) != 3 || len(r.Community) != 5 {
		t.Fatalf("expected 3-way showdown on 5 cards, got %+v", r)
	}
	var paid int64
	for _, p := range r.Payouts {
		paid += p.Amount
	}
	if paid != 30 {
		t.Fatalf("expected payouts to sum to 30, got %d", paid)
	}
	if total := balances(g, "a", "b", "c"); total != 300 {
		t.Fatalf("chips not conserved: %d", total)
	}
}

func TestPlayHand_TieSplitsRemainderInTurnOrder(t *testing.T) {
	tie := RankerFunc(func(hand, community []card.Card) (HandValue, error) { return 1, nil })
	g := newTestGame(t, testConfig(), tie, "a", "b", "c")
	done := startHand(context.Background(), g)

	g.act(t, 1, "a", raise(5))
	g.act(t, 2, "b", pass)
	g.act(t, 3, "c", check)
	for street := 0; street < 3; street++ {
		g.act(t, 3, "c", check)
		g.act(t, 1, "a", check)
	}

	o := wait(t, done)
	if o.err != nil {
		t.Fatalf("PlayHand err: %v", o.err)
	}
	if o.result.Pot != 11 {
		t.Fatalf("expected pot 11, got %d", o.result.Pot)
	}
	// turn order from the seat after the dealer: c (3) before a (1)
	if b, _ := g.Balance("c"); b != 101 {
		t.Fatalf("expected c to take the odd chip (101), got %d", b)
	}
	if b, _ := g.Balance("a"); b != 100 {
		t.Fatalf("expected a balance 100, got %d", b)
	}
	if total := balances(g, "a", "b", "c"); total != 300 {
		t.Fatalf("chips not conserved: %d", total)
	}
}

func TestPlayHand_LeaveWhileAwaitedFoldsImplicitly(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a", "b", "c")
	var mu sync.Mutex
	var implicit []string
	g.Subscribe(func(e Event) {
		if e.Type == EventAction && e.Implicit {
			mu.Lock()
			implicit = append(implicit, e.PlayerID)
			mu.Unlock()
		}
	})
	done := startHand(context.Background(), g)

	g.act(t, 1, "a", check)
	g.act(t, 2, "b", check)
	g.expectTurn(t, 3)
	if !g.Leave("c") {
		t.Fatalf("Leave(c) reported not seated")
	}
	// c's big blind stays in the pot
	g.expectTurn(t, 2)
	if g.Pot() != 6 {
		t.Fatalf("expected pot 6 after leave, got %d", g.Pot())
	}
	g.submit(t, "b", pass)

	o := wait(t, done)
	if o.err != nil {
		t.Fatalf("PlayHand err: %v", o.err)
	}
	if b, _ := g.Balance("a"); b != 104 {
		t.Fatalf("expected a balance 104, got %d", b)
	}
	if _, ok := g.Balance("c"); ok {
		t.Fatalf("c should no longer be seated")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(implicit) != 1 || implicit[0] != "c" {
		t.Fatalf("expected one implicit fold for c, got %v", implicit)
	}
}

func TestPlayHand_ActionTimeoutFolds(t *testing.T) {
	cfg := testConfig()
	cfg.ActionTimeout = 20 * time.Millisecond
	g := newTestGame(t, cfg, nil, "a", "b")
	done := startHand(context.Background(), g)

	// heads-up: dealer seat 1, small blind seat 2, big blind seat 1; seat 2 never acts
	o := wait(t, done)
	if o.err != nil {
		t.Fatalf("PlayHand err: %v", o.err)
	}
	if w := o.result.Winners(); len(w) != 1 || w[0] != "a" {
		t.Fatalf("expected a to win by timeout fold, got %v", w)
	}
	if b, _ := g.Balance("b"); b != 99 {
		t.Fatalf("expected b balance 99, got %d", b)
	}
}

func TestSubmit_RejectsIllegalActions(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a", "b", "c")
	ctx, cancel := context.WithCancel(context.Background())
	done := startHand(ctx, g)
	g.expectTurn(t, 1)

	if err := g.Submit("b", check); !errors.Is(err, ErrOutOfTurn) {
		t.Fatalf("expected ErrOutOfTurn, got %v", err)
	}
	if err := g.Submit("zz", check); !errors.Is(err, ErrNotSeated) {
		t.Fatalf("expected ErrNotSeated, got %v", err)
	}
	if err := g.Submit("a", raise(2)); !errors.Is(err, ErrRaiseTooLow) {
		t.Fatalf("expected ErrRaiseTooLow, got %v", err)
	}
	if err := g.Submit("a", raise(500)); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if err := g.Submit("a", Action{Type: ActionNone}); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if s, _, _ := g.Turn(); s != 1 {
		t.Fatalf("rejected actions must not move the turn, at %d", s)
	}

	cancel()
	o := wait(t, done)
	if !errors.Is(o.err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", o.err)
	}
	// aborted hands refund wagers
	for _, id := range []string{"a", "b", "c"} {
		if b, _ := g.Balance(id); b != 100 {
			t.Fatalf("expected %s refunded to 100, got %d", id, b)
		}
	}
	if g.Pot() != 0 || g.Phase() != PhaseIdle {
		t.Fatalf("expected empty pot and idle phase, got %d/%s", g.Pot(), g.Phase())
	}
}

func TestSnapshot_ConcealsOtherHands(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a", "b", "c")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := startHand(ctx, g)
	g.expectTurn(t, 1)

	seen := map[card.Card]bool{}
	for _, viewer := range []string{"a", "b", "c"} {
		v, err := g.Snapshot(viewer)
		if err != nil {
			t.Fatalf("Snapshot err: %v", err)
		}
		for seat, pv := range v.Players {
			if len(pv.Hand) != 2 {
				t.Fatalf("seat %d: expected 2 cards, got %d", seat, len(pv.Hand))
			}
			for _, c := range pv.Hand {
				if pv.ID == viewer {
					if !c.Valid() {
						t.Fatalf("%s should see own card", viewer)
					}
					if seen[c] {
						t.Fatalf("card %s dealt twice", c)
					}
					seen[c] = true
				} else if c != card.Invalid {
					t.Fatalf("%s can see %s's card %s", viewer, pv.ID, c)
				}
			}
		}
		if v.TurnSeat != 1 || !v.Players[1].HasTurn {
			t.Fatalf("expected seat 1 to have the turn")
		}
	}
	if len(seen) != 6 {
		t.Fatalf("expected 6 distinct hole cards, got %d", len(seen))
	}

	spectator, err := g.Snapshot("")
	if err != nil {
		t.Fatal(err)
	}
	for _, pv := range spectator.Players {
		for _, c := range pv.Hand {
			if c != card.Invalid {
				t.Fatalf("spectator sees card %s", c)
			}
		}
	}
	cancel()
	wait(t, done)
}

func TestSnapshot_DuplicateSeat(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a", "b")
	g.mu.Lock()
	g.players["b"].Seat = 1
	g.mu.Unlock()

	var dup *DuplicateSeatError
	if _, err := g.Snapshot("a"); !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateSeatError, got %v", err)
	}
	if _, err := g.PlayHand(context.Background()); !errors.As(err, &dup) {
		t.Fatalf("expected PlayHand to abort with DuplicateSeatError, got %v", err)
	}
}

func TestPlayHand_NotEnoughPlayers(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a")
	if _, err := g.PlayHand(context.Background()); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Fatalf("expected ErrNotEnoughPlayers, got %v", err)
	}
	if g.Phase() != PhaseIdle {
		t.Fatalf("expected idle, got %s", g.Phase())
	}
}

func TestPlayHand_ShortStackSitsOut(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a", "b", "c")
	g.mu.Lock()
	g.players["c"].balance = 1
	g.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := startHand(ctx, g)
	// heads-up between a and b: seat 2 is small blind and acts first
	g.expectTurn(t, 2)
	v, err := g.Snapshot("c")
	if err != nil {
		t.Fatal(err)
	}
	if pv := v.Players[3]; pv.InHand || len(pv.Hand) != 0 {
		t.Fatalf("short stack should sit out, got %+v", pv)
	}
	if g.Pot() != 3 {
		t.Fatalf("expected pot 3, got %d", g.Pot())
	}
	cancel()
	wait(t, done)
}

func TestJoin_MidHandWaitsForNextHand(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a", "b")
	ctx, cancel := context.WithCancel(context.Background())
	done := startHand(ctx, g)
	g.expectTurn(t, 2)

	seat, err := g.Join("late", "Late")
	if err != nil {
		t.Fatalf("Join err: %v", err)
	}
	v, _ := g.Snapshot("late")
	if pv := v.Players[seat]; pv.InHand || len(pv.Hand) != 0 {
		t.Fatalf("mid-hand joiner should not be dealt in, got %+v", pv)
	}
	if err := g.Submit("late", check); !errors.Is(err, ErrOutOfTurn) {
		t.Fatalf("expected ErrOutOfTurn for waiting player, got %v", err)
	}
	cancel()
	wait(t, done)
}

func TestRun_StopsOnCancel(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a")
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- g.Run(ctx) }()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Run did not stop")
	}
}

func TestPlayHand_LastOpponentLeavingEndsHand(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a", "b")
	var mu sync.Mutex
	var implicit []string
	g.Subscribe(func(e Event) {
		if e.Type == EventAction && e.Implicit {
			mu.Lock()
			implicit = append(implicit, e.PlayerID)
			mu.Unlock()
		}
	})
	done := startHand(context.Background(), g)

	// heads-up: dealer and big blind seat 1, b on seat 2 acts first
	g.expectTurn(t, 2)
	g.Leave("a")

	select {
	case o := <-done:
		if o.err != nil {
			t.Fatalf("PlayHand err: %v", o.err)
		}
		if w := o.result.Winners(); len(w) != 1 || w[0] != "b" {
			t.Fatalf("expected b to win, got %v", w)
		}
		if o.result.Pot != 3 {
			t.Fatalf("expected pot 3, got %d", o.result.Pot)
		}
	case <-time.After(time.Second):
		seat, id, ok := g.Turn()
		t.Fatalf("hand still running after last opponent left: phase=%s turn=%d/%s/%v", g.Phase(), seat, id, ok)
	}
	if b, _ := g.Balance("b"); b != 102 {
		t.Fatalf("expected b balance 102, got %d", b)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(implicit) != 0 {
		t.Fatalf("survivor folded implicitly: %v", implicit)
	}
}

func TestPlayHand_StaleSubmissionDoesNotAnswerLaterTurn(t *testing.T) {
	g := newTestGame(t, testConfig(), nil, "a", "b")
	done := startHand(context.Background(), g)

	g.expectTurn(t, 2)
	// a late message from a lands in the slot while b is on turn
	g.mu.Lock()
	slot := g.players["a"].slot
	g.mu.Unlock()
	slot.Submit(check)
	g.submit(t, "b", check)

	g.expectTurn(t, 1)
	time.Sleep(100 * time.Millisecond)
	if seat, id, ok := g.Turn(); !ok || seat != 1 || id != "a" {
		t.Fatalf("a acted without submitting: turn=%d/%s/%v phase=%s", seat, id, ok, g.Phase())
	}
	g.submit(t, "a", check)

	g.act(t, 2, "b", pass)
	o := wait(t, done)
	if o.err != nil {
		t.Fatalf("PlayHand err: %v", o.err)
	}
	if b, _ := g.Balance("a"); b != 102 {
		t.Fatalf("expected a balance 102, got %d", b)
	}
}

func TestPlayHand_HeadsUpRaiseAndCall(t *testing.T) {
	// B joins first: dealer and big blind seat 1, A small blind seat 2
	g := newTestGame(t, testConfig(), nil, "B", "A")
	done := startHand(context.Background(), g)

	g.act(t, 2, "A", check)
	g.act(t, 1, "B", check)

	// flop: A is first after the dealer, highest bet is 2
	g.expectTurn(t, 2)
	if g.HighestBet() != 2 || g.Pot() != 4 {
		t.Fatalf("expected highest 2 pot 4 on the flop, got %d/%d", g.HighestBet(), g.Pot())
	}
	g.submit(t, "A", raise(10))
	g.expectTurn(t, 1)
	g.mu.Lock()
	shortfall := g.ledger.Shortfall(g.players["B"])
	g.mu.Unlock()
	if shortfall != 8 {
		t.Fatalf("expected B shortfall 8, got %d", shortfall)
	}
	g.submit(t, "B", check)

	g.expectTurn(t, 2)
	v, err := g.Snapshot("")
	if err != nil {
		t.Fatalf("Snapshot err: %v", err)
	}
	var wagers int64
	for _, pv := range v.Players {
		if pv.Bet != 10 {
			t.Fatalf("expected wager 10 for %s, got %d", pv.ID, pv.Bet)
		}
		wagers += pv.Bet
	}
	if v.Pot != wagers || v.Pot != 20 || v.HighestBet != 10 {
		t.Fatalf("expected pot 20 = sum of wagers %d, highest 10; got pot %d highest %d", wagers, v.Pot, v.HighestBet)
	}
	g.submit(t, "A", check)
	g.act(t, 1, "B", check)
	g.act(t, 2, "A", check)
	g.act(t, 1, "B", check)

	o := wait(t, done)
	if o.err != nil {
		t.Fatalf("PlayHand err: %v", o.err)
	}
	if o.result.Pot != 20 {
		t.Fatalf("expected pot 20 at payout, got %d", o.result.Pot)
	}
	if total := balances(g, "A", "B"); total != 200 {
		t.Fatalf("chips not conserved: %d", total)
	}
}
