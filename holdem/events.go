package holdem

import "holdem-tafel/card"

type EventType string

const (
	EventSeated    EventType = "seated"
	EventLeft      EventType = "left"
	EventHandStart EventType = "hand_start"
	EventTurn      EventType = "turn"
	EventAction    EventType = "action"
	EventRejected  EventType = "rejected"
	EventReveal    EventType = "reveal"
	EventShowdown  EventType = "showdown"
	EventHandEnd   EventType = "hand_end"
	EventAborted   EventType = "aborted"
)

// Event is published to listeners after the table lock is released.
type Event struct {
	Type       EventType
	HandNumber uint64
	Phase      Phase
	Seat       int
	PlayerID   string
	Action     Action
	// Implicit is set for folds the engine applied on the player's behalf.
	Implicit bool
	Cards    []card.Card
	Result   *SettlementResult
	Err      error
}

type Listener func(Event)

// Subscribe registers l for every future event. Listeners run on the
// goroutine that caused the event and must not block.
func (g *Game) Subscribe(l Listener) {
	if l == nil {
		return
	}
	g.listenersMu.Lock()
	g.listeners = append(g.listeners, l)
	g.listenersMu.Unlock()
}

func (g *Game) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	g.listenersMu.RLock()
	ls := append([]Listener(nil), g.listeners...)
	g.listenersMu.RUnlock()
	for _, e := range events {
		for _, l := range ls {
			l(e)
		}
	}
}
