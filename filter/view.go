package filter

import "github.com/feriadolabs/feriado/dataset"

// View is the subset of holiday and passenger records matching one
// Selection. Views reference store records by index instead of copying them;
// a View is superseded, never mutated, when the selection changes.
type View struct {
	store        *dataset.Store
	holidayIdx   []int
	passengerIdx []int
}

// NewView builds a view over the given record indices. Used by the engine
// and by tests that need a hand-assembled view.
func NewView(store *dataset.Store, holidayIdx, passengerIdx []int) *View {
	return &View{store: store, holidayIdx: holidayIdx, passengerIdx: passengerIdx}
}

// FullView returns the identity view containing every record in the store.
func FullView(store *dataset.Store) *View {
	holidayIdx := make([]int, store.NumHolidays())
	for i := range holidayIdx {
		holidayIdx[i] = i
	}
	passengerIdx := make([]int, store.NumPassengers())
	for i := range passengerIdx {
		passengerIdx[i] = i
	}
	return NewView(store, holidayIdx, passengerIdx)
}

// Store returns the backing dataset store.
func (v *View) Store() *dataset.Store { return v.store }

// NumHolidays returns the number of holidays in the view.
func (v *View) NumHolidays() int { return len(v.holidayIdx) }

// NumPassengers returns the number of passenger records in the view.
func (v *View) NumPassengers() int { return len(v.passengerIdx) }

// Empty reports whether the view matched zero rows in both tables.
func (v *View) Empty() bool {
	return len(v.holidayIdx) == 0 && len(v.passengerIdx) == 0
}

// Holiday returns the i-th holiday in the view.
func (v *View) Holiday(i int) dataset.Holiday {
	return v.store.Holiday(v.holidayIdx[i])
}

// Passenger returns the i-th passenger record in the view.
func (v *View) Passenger(i int) dataset.PassengerMonth {
	return v.store.Passenger(v.passengerIdx[i])
}

// Holidays materializes the holiday subset. Intended for serialization;
// iteration should prefer the indexed accessors.
func (v *View) Holidays() []dataset.Holiday {
	out := make([]dataset.Holiday, len(v.holidayIdx))
	for i, idx := range v.holidayIdx {
		out[i] = v.store.Holiday(idx)
	}
	return out
}

// Passengers materializes the passenger subset.
func (v *View) Passengers() []dataset.PassengerMonth {
	out := make([]dataset.PassengerMonth, len(v.passengerIdx))
	for i, idx := range v.passengerIdx {
		out[i] = v.store.Passenger(idx)
	}
	return out
}

// HolidayIndices returns the view's holiday indices into the store.
func (v *View) HolidayIndices() []int {
	out := make([]int, len(v.holidayIdx))
	copy(out, v.holidayIdx)
	return out
}

// PassengerIndices returns the view's passenger indices into the store.
func (v *View) PassengerIndices() []int {
	out := make([]int, len(v.passengerIdx))
	copy(out, v.passengerIdx)
	return out
}
