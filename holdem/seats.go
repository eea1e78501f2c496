package holdem

import "fmt"

// SeatTable hands out seat numbers 1..capacity, lowest free seat first.
type SeatTable struct {
	occupant []string // index = seat number, [0] unused
}

func NewSeatTable(capacity int) *SeatTable {
	return &SeatTable{occupant: make([]string, capacity+1)}
}

// Seat assigns the lowest unoccupied seat to the player.
func (st *SeatTable) Seat(playerID string) (int, error) {
	if playerID == "" {
		return NoSeat, fmt.Errorf("empty player id")
	}
	if seat, ok := st.SeatOf(playerID); ok {
		return seat, fmt.Errorf("%w at seat %d", ErrAlreadySeated, seat)
	}
	for seat := 1; seat < len(st.occupant); seat++ {
		if st.occupant[seat] == "" {
			st.occupant[seat] = playerID
			return seat, nil
		}
	}
	return NoSeat, ErrTableFull
}

// Unseat frees the player's seat. Unknown players are ignored.
func (st *SeatTable) Unseat(playerID string) {
	if seat, ok := st.SeatOf(playerID); ok {
		st.occupant[seat] = ""
	}
}

func (st *SeatTable) SeatOf(playerID string) (int, bool) {
	for seat := 1; seat < len(st.occupant); seat++ {
		if st.occupant[seat] == playerID {
			return seat, true
		}
	}
	return NoSeat, false
}

func (st *SeatTable) Occupant(seat int) (string, bool) {
	if seat < 1 || seat >= len(st.occupant) || st.occupant[seat] == "" {
		return "", false
	}
	return st.occupant[seat], true
}

// Occupied returns the occupied seat numbers in ascending order.
func (st *SeatTable) Occupied() []int {
	seats := make([]int, 0, len(st.occupant))
	for seat := 1; seat < len(st.occupant); seat++ {
		if st.occupant[seat] != "" {
			seats = append(seats, seat)
		}
	}
	return seats
}

func (st *SeatTable) Len() int {
	return len(st.Occupied())
}
