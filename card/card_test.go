package card

import (
	"encoding/json"
	"math/rand"
	"testing"
)

func TestNewDeck_HasFiftyTwoDistinctCards(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(7)))
	if d.Count() != 52 {
		t.Fatalf("expected 52 cards, got %d", d.Count())
	}
	seen := make(map[Card]bool, 52)
	for _, c := range d.Remaining() {
		if !c.Valid() {
			t.Fatalf("invalid card in deck: %v", byte(c))
		}
		if seen[c] {
			t.Fatalf("duplicate card %s", c)
		}
		seen[c] = true
	}
}

func TestDeck_DrawNeverRepeats(t *testing.T) {
	d := NewDeck(rand.New(rand.NewSource(1)))
	drawn := CardList{}
	for d.Count() > 0 {
		cs, err := d.Draw(1)
		if err != nil {
			t.Fatal(err)
		}
		if drawn.Contains(cs[0]) {
			t.Fatalf("card %s drawn twice", cs[0])
		}
		drawn = append(drawn, cs...)
	}
	if _, err := d.Draw(1); err != ErrDeckEmpty {
		t.Fatalf("expected ErrDeckEmpty, got %v", err)
	}
}

func TestParse(t *testing.T) {
	cases := map[string]Card{
		"As":  New(Spade, Ace),
		"Th":  New(Heart, Ten),
		"10h": New(Heart, Ten),
		"Qd":  New(Diamond, Queen),
		"Kc":  New(Club, King),
	}
	for in, want := range cases {
		got, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q) err: %v", in, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := Parse("Zx"); err == nil {
		t.Fatal("expected error for bad card")
	}
}

func TestCardJSON_UsesDutchWireNames(t *testing.T) {
	raw, err := json.Marshal([]Card{New(Heart, Queen), Invalid})
	if err != nil {
		t.Fatal(err)
	}
	want := `[{"kleur":"harten","waarde":"V"},null]`
	if string(raw) != want {
		t.Fatalf("got %s, want %s", raw, want)
	}

	var back []Card
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatal(err)
	}
	if back[0] != New(Heart, Queen) || back[1] != Invalid {
		t.Fatalf("unexpected decode: %v", back)
	}
}
