package holdem

import (
	"fmt"
	"strings"
)

// NoSeat is the zero seat; real seats are numbered from 1.
const NoSeat = 0

// Phase 游戏阶段
type Phase byte

const (
	PhaseIdle     Phase = 0
	PhaseSetup    Phase = 1
	PhaseBlinds   Phase = 2
	PhasePreflop  Phase = 3
	PhaseFlop     Phase = 4
	PhaseTurn     Phase = 5
	PhaseRiver    Phase = 6
	PhaseShowdown Phase = 7
	PhasePayout   Phase = 8
)

var PhaseTypeDictionary = map[Phase]string{
	PhaseIdle:     "idle",
	PhaseSetup:    "setup",
	PhaseBlinds:   "blinds",
	PhasePreflop:  "preflop",
	PhaseFlop:     "flop",
	PhaseTurn:     "turn",
	PhaseRiver:    "river",
	PhaseShowdown: "showdown",
	PhasePayout:   "payout",
}

func (p Phase) String() string {
	if s, ok := PhaseTypeDictionary[p]; ok {
		return s
	}
	return fmt.Sprintf("phase(%d)", byte(p))
}

// Betting reports whether players act during the phase.
func (p Phase) Betting() bool {
	return p >= PhasePreflop && p <= PhaseRiver
}

// ActionType 动作类型：0-NONE 1-PASS 2-CHECK 3-RAISE
type ActionType byte

const (
	ActionNone  ActionType = 0
	ActionPass  ActionType = 1 // fold
	ActionCheck ActionType = 2 // check, or call when behind
	ActionRaise ActionType = 3
)

var ActionTypeDictionary = map[ActionType]string{
	ActionNone:  "none",
	ActionPass:  "pass",
	ActionCheck: "check",
	ActionRaise: "raise",
}

func (a ActionType) String() string {
	if s, ok := ActionTypeDictionary[a]; ok {
		return s
	}
	return fmt.Sprintf("action(%d)", byte(a))
}

func ParseActionType(raw string) (ActionType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pass", "fold":
		return ActionPass, nil
	case "check", "call":
		return ActionCheck, nil
	case "raise":
		return ActionRaise, nil
	}
	return ActionNone, fmt.Errorf("%w: %q", ErrUnknownAction, raw)
}

// Action is one player decision. Amount is the raise-to total for the
// round and is ignored for pass and check.
type Action struct {
	Type   ActionType
	Amount int64
}

func (a Action) String() string {
	if a.Type == ActionRaise {
		return fmt.Sprintf("raise %d", a.Amount)
	}
	return a.Type.String()
}

var foldAction = Action{Type: ActionPass}
