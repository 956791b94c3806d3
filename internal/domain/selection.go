package domain

import "slices"

// SelectionState is what the visitor has picked so far. Page controllers own
// it and pass it along explicitly; methods return a modified copy.
type SelectionState struct {
	Movie *Movie
	Seats []SeatID
	Food  []string
}

func (s SelectionState) HasMovie() bool {
	return s.Movie != nil
}

func (s SelectionState) WithMovie(m Movie) SelectionState {
	s.Movie = &m
	return s
}

// ToggleSeat adds the seat if absent and removes it otherwise.
func (s SelectionState) ToggleSeat(id SeatID) SelectionState {
	seats := slices.Clone(s.Seats)
	if i := slices.Index(seats, id); i >= 0 {
		s.Seats = slices.Delete(seats, i, i+1)
		return s
	}
	s.Seats = append(seats, id)
	return s
}

func (s SelectionState) ClearSeats() SelectionState {
	s.Seats = nil
	return s
}

func (s SelectionState) ToggleFood(item string) SelectionState {
	food := slices.Clone(s.Food)
	if i := slices.Index(food, item); i >= 0 {
		s.Food = slices.Delete(food, i, i+1)
		return s
	}
	s.Food = append(food, item)
	return s
}
