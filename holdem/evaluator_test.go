package holdem

import (
	"testing"

	"holdem-tafel/card"
)

func cards(t *testing.T, raw ...string) []card.Card {
	t.Helper()
	out := make([]card.Card, 0, len(raw))
	for _, s := range raw {
		c, err := card.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) err: %v", s, err)
		}
		out = append(out, c)
	}
	return out
}

func TestSevenCardRanker_Ordering(t *testing.T) {
	board := cards(t, "2c", "7d", "9h", "Ks", "3d")
	r := SevenCardRanker{}

	pair, err := r.Rank(cards(t, "Kh", "4c"), board)
	if err != nil {
		t.Fatalf("Rank err: %v", err)
	}
	trips, err := r.Rank(cards(t, "9c", "9d"), board)
	if err != nil {
		t.Fatalf("Rank err: %v", err)
	}
	high, err := r.Rank(cards(t, "Ah", "4c"), board)
	if err != nil {
		t.Fatalf("Rank err: %v", err)
	}
	if !(trips > pair && pair > high) {
		t.Fatalf("expected trips > pair > high card, got %d %d %d", trips, pair, high)
	}
}

func TestSevenCardRanker_AceCountsHighAndLow(t *testing.T) {
	board := cards(t, "2c", "3d", "4h", "Ts", "Jd")
	r := SevenCardRanker{}
	wheel, err := r.Rank(cards(t, "As", "5c"), board)
	if err != nil {
		t.Fatal(err)
	}
	pairOfJacks, err := r.Rank(cards(t, "Jh", "9c"), board)
	if err != nil {
		t.Fatal(err)
	}
	if wheel <= pairOfJacks {
		t.Fatalf("A-5 straight should beat a pair, got %d <= %d", wheel, pairOfJacks)
	}
}

func TestSevenCardRanker_NeedsSevenCards(t *testing.T) {
	if _, err := (SevenCardRanker{}).Rank(cards(t, "As", "Ad"), cards(t, "2c", "3c", "4c")); err == nil {
		t.Fatalf("expected error for 5 cards")
	}
}

func TestDescribeHand(t *testing.T) {
	desc, err := DescribeHand(cards(t, "Kh", "Kc"), cards(t, "2c", "7d", "9h", "Ks", "3d"))
	if err != nil {
		t.Fatalf("DescribeHand err: %v", err)
	}
	if desc == "" {
		t.Fatalf("expected a description")
	}
}

func TestSplitPot_RemainderToFirst(t *testing.T) {
	shares := splitPot(11, 2)
	if shares[0] != 6 || shares[1] != 5 {
		t.Fatalf("expected [6 5], got %v", shares)
	}
	shares = splitPot(9, 3)
	for _, s := range shares {
		if s != 3 {
			t.Fatalf("expected even split, got %v", shares)
		}
	}
	if splitPot(5, 0) != nil {
		t.Fatalf("no winners should yield no shares")
	}
}
