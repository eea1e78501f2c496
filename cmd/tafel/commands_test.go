package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-tafel/card"
	"holdem-tafel/internal/codec"
)

func TestParseCommand(t *testing.T) {
	msg, err := parseCommand("raise 12", "u1")
	require.NoError(t, err)
	in, err := codec.DecodeInbound(msg)
	require.NoError(t, err)
	assert.Equal(t, codec.TypeAction, in.Type)
	assert.Equal(t, "u1", in.UUID)
	assert.Equal(t, "raise", in.Action)
	assert.Equal(t, int64(12), in.Amount)

	msg, err = parseCommand("  Pass ", "u1")
	require.NoError(t, err)
	in, _ = codec.DecodeInbound(msg)
	assert.Equal(t, "pass", in.Action)

	msg, err = parseCommand("state", "u1")
	require.NoError(t, err)
	in, _ = codec.DecodeInbound(msg)
	assert.Equal(t, codec.TypeRequestGamestate, in.Type)

	msg, err = parseCommand("", "u1")
	assert.NoError(t, err)
	assert.Nil(t, msg)

	_, err = parseCommand("quit", "u1")
	assert.True(t, errors.Is(err, errQuit))

	for _, bad := range []string{"raise", "raise -3", "raise x", "dance"} {
		_, err := parseCommand(bad, "u1")
		assert.Error(t, err, bad)
	}
}

func TestRenderState(t *testing.T) {
	turn := 2
	gs := codec.Gamestate{
		Spelers: map[int]codec.PlayerState{
			1: {Naam: "Anna", Coins: 99, Inzet: 1, Hand: []card.Card{card.New(card.Spade, card.Ace), card.New(card.Club, card.King)}, SpeeltMee: true},
			2: {Naam: "Bram", Coins: 98, Inzet: 2, Hand: []card.Card{card.Invalid, card.Invalid}, IsAanDeBeurt: true, SpeeltMee: true},
		},
		AanDeBeurt: &turn,
		Pot:        3,
		Dealer:     1,
		Fase:       "preflop",
		HandNummer: 4,
	}
	out := renderState(gs, 1)
	assert.Contains(t, out, "Anna")
	assert.Contains(t, out, "Bram")
	assert.Contains(t, out, "A♠")
	assert.Contains(t, out, "??")
	assert.Contains(t, out, "PREFLOP")
	assert.True(t, strings.Index(out, "Anna") < strings.Index(out, "Bram"))
}

func TestEventText(t *testing.T) {
	raw := []byte(`{"type":"event","event":"hand_end","handNummer":2,"winnaars":[{"stoelnummer":1,"naam":"Anna","bedrag":4,"hand":"Pair"}]}`)
	var ev codec.EventMessage
	require.NoError(t, json.Unmarshal(raw, &ev))
	assert.Equal(t, "Anna wint 4 met Pair", eventText(ev))
	assert.Empty(t, eventText(codec.EventMessage{Event: "turn"}))
}
