package main

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"holdem-tafel/card"
	"holdem-tafel/internal/codec"
)

func cardText(c card.Card) string {
	if !c.Valid() {
		return "??"
	}
	s := c.String()
	if c.Suit() == card.Heart || c.Suit() == card.Diamond {
		return pterm.LightRed(s)
	}
	return s
}

func handText(hand []card.Card) string {
	if len(hand) == 0 {
		return "-"
	}
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = cardText(c)
	}
	return strings.Join(parts, " ")
}

func riverText(river [5]card.Card) string {
	parts := make([]string, 0, len(river))
	for _, c := range river {
		if c.Valid() {
			parts = append(parts, cardText(c))
		} else {
			parts = append(parts, "[ ]")
		}
	}
	return strings.Join(parts, " ")
}

func statusText(p codec.PlayerState) string {
	switch {
	case p.IsAanDeBeurt:
		return pterm.LightYellow("aan de beurt")
	case p.IsGepast:
		return pterm.LightRed("gepast")
	case p.SpeeltMee:
		return pterm.LightGreen("speelt mee")
	}
	return pterm.FgGray.Sprint("wacht")
}

// renderState formats a gamestate for the player on seat self.
func renderState(gs codec.Gamestate, self int) string {
	seats := make([]int, 0, len(gs.Spelers))
	for seat := range gs.Spelers {
		seats = append(seats, seat)
	}
	sort.Ints(seats)

	rows := [][]string{{"Stoel", "Naam", "Coins", "Inzet", "Hand", "Status"}}
	for _, seat := range seats {
		p := gs.Spelers[seat]
		name := p.Naam
		if seat == self {
			name = pterm.LightCyan(name + " (jij)")
		}
		if seat == gs.Dealer {
			name += " [D]"
		}
		rows = append(rows, []string{
			strconv.Itoa(seat),
			name,
			strconv.FormatInt(p.Coins, 10),
			strconv.FormatInt(p.Inzet, 10),
			handText(p.Hand),
			statusText(p),
		})
	}
	players, err := pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	if err != nil {
		players = err.Error()
	}

	board := pterm.DefaultBox.
		WithTitle(pterm.LightYellow("|HAND " + strconv.FormatUint(gs.HandNummer, 10) + " - " + strings.ToUpper(gs.Fase) + "|")).
		WithTitleTopCenter().
		WithHorizontalPadding(4).
		Sprintf("River: %s\nPot: %d   Hoogste inzet: %d", riverText(gs.River), gs.Pot, gs.HoogsteInzet)

	return board + "\n" + players
}

func eventText(ev codec.EventMessage) string {
	name := "Stoel " + strconv.Itoa(ev.Stoelnummer)
	switch ev.Event {
	case "hand_start":
		return "Hand " + strconv.FormatUint(ev.HandNummer, 10) + " begint"
	case "action":
		text := name + ": " + ev.Actie
		if ev.Bedrag > 0 {
			text += " " + strconv.FormatInt(ev.Bedrag, 10)
		}
		if ev.Impliciet {
			text += " (automatisch)"
		}
		return text
	case "reveal":
		return "Op tafel: " + handText(ev.Kaarten)
	case "hand_end":
		parts := make([]string, 0, len(ev.Winnaars))
		for _, w := range ev.Winnaars {
			s := w.Naam + " wint " + strconv.FormatInt(w.Bedrag, 10)
			if w.Hand != "" {
				s += " met " + w.Hand
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ", ")
	case "aborted":
		return "Hand afgebroken: " + ev.Bericht
	}
	return ""
}
