package holdem

import (
	"errors"
	"fmt"
)

var (
	ErrTableFull         = errors.New("table is full")
	ErrNoPlayers         = errors.New("no players seated")
	ErrNotEnoughPlayers  = errors.New("not enough players")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrRaiseTooLow       = errors.New("raise must exceed the highest bet")
	ErrOutOfTurn         = errors.New("action out of turn")
	ErrNotSeated         = errors.New("player not seated")
	ErrUnknownAction     = errors.New("unknown action")
	ErrAlreadySeated     = errors.New("player already seated")
	ErrPlayerGone        = errors.New("player left the table")
)

type InvalidStateError string

func (e InvalidStateError) Error() string { return "invalid state: " + string(e) }

func ErrInvalidState(format string, args ...any) error {
	return InvalidStateError(fmt.Sprintf(format, args...))
}

// DuplicateSeatError reports two players holding the same seat number.
type DuplicateSeatError struct {
	Seat          int
	First, Second string
}

func (e *DuplicateSeatError) Error() string {
	return fmt.Sprintf("duplicate seat %d: %s and %s", e.Seat, e.First, e.Second)
}

// IsRuleViolation reports errors caused by a legal message carrying an
// illegal move for the current table state.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrRaiseTooLow) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrOutOfTurn)
}

func isInvariantViolation(err error) bool {
	var dup *DuplicateSeatError
	var inv InvalidStateError
	return errors.As(err, &dup) || errors.As(err, &inv)
}
