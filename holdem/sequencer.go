package holdem

// Turn order is always computed from a fresh ascending list of occupied
// seats, so a seat that empties between two calls is simply not there.

// NextSeat returns the first seat after from, wrapping from the highest
// occupied seat back to the lowest. from does not need to be occupied.
func NextSeat(occupied []int, from int) (int, error) {
	if len(occupied) == 0 {
		return NoSeat, ErrNoPlayers
	}
	for _, seat := range occupied {
		if seat > from {
			return seat, nil
		}
	}
	return occupied[0], nil
}

// TurnOrder lists every seat once, starting with the seat after from.
func TurnOrder(occupied []int, from int) []int {
	if len(occupied) == 0 {
		return nil
	}
	start := 0
	for i, seat := range occupied {
		if seat > from {
			start = i
			break
		}
	}
	order := make([]int, 0, len(occupied))
	order = append(order, occupied[start:]...)
	order = append(order, occupied[:start]...)
	return order
}

// NextMatching walks one full circle after from (ending on from itself if
// it is occupied) and returns the first seat accepted by ok.
func NextMatching(occupied []int, from int, ok func(seat int) bool) (int, bool) {
	for _, seat := range TurnOrder(occupied, from) {
		if ok(seat) {
			return seat, true
		}
	}
	return NoSeat, false
}
