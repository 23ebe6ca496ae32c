package form

import "errors"

// ErrLastSlot is returned when removing the only remaining slot.
var ErrLastSlot = errors.New("at least one slot is required")

// Slots counts the input slots shown for a repeatable group. The count never
// drops below one.
type Slots struct {
	count   int
	initial int
}

// NewSlots starts a slot counter at initial, raised to one if lower.
func NewSlots(initial int) *Slots {
	if initial < 1 {
		initial = 1
	}
	return &Slots{count: initial, initial: initial}
}

// Count returns the number of slots.
func (s *Slots) Count() int { return s.count }

// Increment adds a slot.
func (s *Slots) Increment() { s.count++ }

// Decrement removes a slot. It fails when only one slot is left.
func (s *Slots) Decrement() error {
	if s.count <= 1 {
		return ErrLastSlot
	}
	s.count--
	return nil
}

// Reset returns to the initial count.
func (s *Slots) Reset() { s.count = s.initial }
