package codec

import (
	"encoding/json"

	"holdem-tafel/card"
	"holdem-tafel/holdem"
)

// PlayerState is one entry of gamestate.spelers. Concealed cards are null.
type PlayerState struct {
	Naam         string      `json:"naam"`
	Coins        int64       `json:"coins"`
	Inzet        int64       `json:"inzet"`
	Hand         []card.Card `json:"hand"`
	IsAanDeBeurt bool        `json:"isAanDeBeurt"`
	IsGepast     bool        `json:"isGepast"`
	SpeeltMee    bool        `json:"speeltMee"`
	Stoelnummer  int         `json:"stoelnummer"`
}

// Gamestate is the table as one viewer is allowed to see it. Spelers is
// keyed by seat number. AanDeBeurt is the acting seat, null between turns.
type Gamestate struct {
	Type         string              `json:"type"`
	Spelers      map[int]PlayerState `json:"spelers"`
	River        [5]card.Card        `json:"river"`
	AanDeBeurt   *int                `json:"aanDeBeurt"`
	Pot          int64               `json:"pot"`
	HoogsteInzet int64               `json:"hoogsteInzet"`
	Dealer       int                 `json:"dealer"`
	Fase         string              `json:"fase"`
	HandNummer   uint64              `json:"handNummer"`
}

func GamestateFromView(v holdem.View) Gamestate {
	gs := Gamestate{
		Type:         TypeGamestate,
		Spelers:      make(map[int]PlayerState, len(v.Players)),
		River:        v.Community,
		Pot:          v.Pot,
		HoogsteInzet: v.HighestBet,
		Dealer:       v.DealerSeat,
		Fase:         v.Phase.String(),
		HandNummer:   v.HandNumber,
	}
	if v.TurnSeat != holdem.NoSeat {
		seat := v.TurnSeat
		gs.AanDeBeurt = &seat
	}
	for seat, pv := range v.Players {
		hand := pv.Hand
		if hand == nil {
			hand = []card.Card{}
		}
		gs.Spelers[seat] = PlayerState{
			Naam:         pv.Name,
			Coins:        pv.Balance,
			Inzet:        pv.Bet,
			Hand:         hand,
			IsAanDeBeurt: pv.HasTurn,
			IsGepast:     pv.Folded,
			SpeeltMee:    pv.InHand,
			Stoelnummer:  pv.Seat,
		}
	}
	return gs
}

func EncodeGamestate(v holdem.View) ([]byte, error) {
	return json.Marshal(GamestateFromView(v))
}

func DecodeGamestate(raw []byte) (Gamestate, error) {
	var gs Gamestate
	err := json.Unmarshal(raw, &gs)
	return gs, err
}

// Winner is one payout in a hand_end event.
type Winner struct {
	Stoelnummer int    `json:"stoelnummer"`
	Naam        string `json:"naam,omitempty"`
	Bedrag      int64  `json:"bedrag"`
	Hand        string `json:"hand,omitempty"`
}

// EventMessage is a push notification about something that happened at
// the table. Clients that only render gamestate can ignore it.
type EventMessage struct {
	Type        string      `json:"type"`
	Event       string      `json:"event"`
	HandNummer  uint64      `json:"handNummer"`
	Fase        string      `json:"fase,omitempty"`
	Stoelnummer int         `json:"stoelnummer,omitempty"`
	Actie       string      `json:"actie,omitempty"`
	Bedrag      int64       `json:"bedrag,omitempty"`
	Impliciet   bool        `json:"impliciet,omitempty"`
	Kaarten     []card.Card `json:"kaarten,omitempty"`
	Winnaars    []Winner    `json:"winnaars,omitempty"`
	Bericht     string      `json:"bericht,omitempty"`
}

// EventFromEngine converts e; names maps player ids to display names.
func EventFromEngine(e holdem.Event, names map[string]string) EventMessage {
	m := EventMessage{
		Type:        TypeEvent,
		Event:       string(e.Type),
		HandNummer:  e.HandNumber,
		Stoelnummer: e.Seat,
		Impliciet:   e.Implicit,
		Kaarten:     e.Cards,
	}
	if e.Phase != holdem.PhaseIdle {
		m.Fase = e.Phase.String()
	}
	if e.Action.Type != holdem.ActionNone {
		m.Actie = e.Action.Type.String()
		m.Bedrag = e.Action.Amount
	}
	if e.Err != nil {
		m.Bericht = e.Err.Error()
	}
	if e.Result != nil {
		desc := make(map[string]string, len(e.Result.Hands))
		for _, h := range e.Result.Hands {
			desc[h.PlayerID] = h.Description
		}
		for _, p := range e.Result.Payouts {
			m.Winnaars = append(m.Winnaars, Winner{
				Stoelnummer: p.Seat,
				Naam:        names[p.PlayerID],
				Bedrag:      p.Amount,
				Hand:        desc[p.PlayerID],
			})
		}
	}
	return m
}

func EncodeEvent(e holdem.Event, names map[string]string) ([]byte, error) {
	return json.Marshal(EventFromEngine(e, names))
}
