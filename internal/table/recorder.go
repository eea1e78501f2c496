package table

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"holdem-tafel/holdem"
	"holdem-tafel/internal/history"
)

func (t *Table) buildHandID(hand uint64) string {
	return fmt.Sprintf("%s_h%d", t.ID, hand)
}

// recordEvent turns engine events into history writes. Writes run in
// order on the history goroutine so the engine never waits on storage.
func (t *Table) recordEvent(e holdem.Event) {
	if t.history == nil {
		return
	}

	t.mu.Lock()
	if e.Type == holdem.EventHandStart {
		t.handID = t.buildHandID(e.HandNumber)
		t.handStart = time.Now().UTC()
		t.seq = 0
	}
	// seat changes between hands are not part of any hand
	handID := t.handID
	if handID == "" {
		t.mu.Unlock()
		return
	}
	t.seq++
	item := history.EventItem{
		Seq:        t.seq,
		EventType:  string(e.Type),
		ServerTsMs: time.Now().UnixMilli(),
	}
	fields := t.eventFieldsLocked(e)
	playedAt := t.handStart
	if e.Type == holdem.EventHandEnd || e.Type == holdem.EventAborted {
		t.handID = ""
	}
	t.mu.Unlock()

	payload, err := history.EncodePayload(fields)
	if err != nil {
		t.log.WithFields(logrus.Fields{"hand": handID, "event": e.Type}).WithError(err).Error("encode history payload failed")
	} else {
		item.PayloadB64 = payload
	}

	t.enqueueHistory(func() { t.history.AppendEvent(handID, item) })
	if e.Type == holdem.EventHandEnd && e.Result != nil {
		rec := t.handRecord(handID, playedAt, e.Result)
		t.enqueueHistory(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := t.history.RecordHand(ctx, rec); err != nil {
				t.log.WithField("hand", handID).WithError(err).Error("record hand failed")
			}
		})
	}
}

func (t *Table) enqueueHistory(job func()) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.historyClosed {
		return
	}
	select {
	case t.historyQueue <- job:
	default:
		t.log.Warn("history queue full, write dropped")
	}
}

func (t *Table) drainHistory() {
	defer close(t.historyDone)
	for job := range t.historyQueue {
		job()
	}
}

func (t *Table) eventFieldsLocked(e holdem.Event) map[string]any {
	fields := map[string]any{
		"table_id":    t.ID,
		"hand_number": e.HandNumber,
		"phase":       e.Phase.String(),
	}
	if e.Seat != holdem.NoSeat {
		fields["seat"] = e.Seat
	}
	if e.PlayerID != "" {
		fields["player"] = t.names[e.PlayerID]
	}
	if e.Action.Type != holdem.ActionNone {
		fields["action"] = e.Action.Type.String()
		if e.Action.Type == holdem.ActionRaise {
			fields["amount"] = e.Action.Amount
		}
	}
	if e.Implicit {
		fields["implicit"] = true
	}
	if len(e.Cards) > 0 {
		cards := make([]any, 0, len(e.Cards))
		for _, c := range e.Cards {
			cards = append(cards, c.String())
		}
		fields["cards"] = cards
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	if e.Result != nil {
		fields["pot"] = e.Result.Pot
		payouts := make([]any, 0, len(e.Result.Payouts))
		for _, p := range e.Result.Payouts {
			payouts = append(payouts, map[string]any{
				"seat":   p.Seat,
				"player": t.names[p.PlayerID],
				"amount": p.Amount,
			})
		}
		fields["payouts"] = payouts
		if e.Result.Unclaimed > 0 {
			fields["unclaimed"] = e.Result.Unclaimed
		}
	}
	return fields
}

// handRecord builds the summary row; names are read under RLock.
func (t *Table) handRecord(handID string, playedAt time.Time, r *holdem.SettlementResult) history.HandRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	winners := make([]any, 0, len(r.Payouts))
	for _, p := range r.Payouts {
		winners = append(winners, t.names[p.PlayerID])
	}
	hands := make([]any, 0, len(r.Hands))
	for _, h := range r.Hands {
		hands = append(hands, map[string]any{
			"seat":        h.Seat,
			"player":      t.names[h.PlayerID],
			"description": h.Description,
			"winner":      h.IsWinner,
		})
	}
	community := make([]any, 0, len(r.Community))
	for _, c := range r.Community {
		community = append(community, c.String())
	}
	return history.HandRecord{
		HandID:     handID,
		TableID:    t.ID,
		HandNumber: r.HandNumber,
		PlayedAt:   playedAt,
		Pot:        r.Pot,
		Showdown:   r.Showdown,
		Summary: map[string]any{
			"winners":   winners,
			"hands":     hands,
			"community": community,
			"unclaimed": r.Unclaimed,
		},
	}
}
