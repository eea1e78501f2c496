package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"holdem-tafel/holdem"
	"holdem-tafel/internal/codec"
)

var errQuit = errors.New("quit")

const helpText = `commands:
  check        match the highest bet
  pass         fold this hand
  raise N      raise your bet to N
  state        ask for the current gamestate
  quit         leave the table`

// parseCommand turns one prompt line into the message to send. A nil
// message with nil error means there is nothing to send.
func parseCommand(line, uuid string) ([]byte, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil, nil
	}
	switch fields[0] {
	case "check", "call", "c":
		return codec.EncodeAction(uuid, holdem.Action{Type: holdem.ActionCheck})
	case "pass", "fold", "p":
		return codec.EncodeAction(uuid, holdem.Action{Type: holdem.ActionPass})
	case "raise", "r":
		if len(fields) != 2 {
			return nil, errors.New("usage: raise N")
		}
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid amount %q", fields[1])
		}
		return codec.EncodeAction(uuid, holdem.Action{Type: holdem.ActionRaise, Amount: n})
	case "state", "s":
		return codec.EncodeRequest(codec.TypeRequestGamestate, uuid)
	case "quit", "exit", "q":
		return nil, errQuit
	case "help", "?":
		return nil, errors.New(helpText)
	}
	return nil, fmt.Errorf("unknown command %q, type help", fields[0])
}
