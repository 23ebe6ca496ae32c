package form

import (
	"errors"
	"testing"
)

func TestSlots(t *testing.T) {
	s := NewSlots(2)
	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}

	s.Increment()
	s.Increment()
	if s.Count() != 4 {
		t.Errorf("Count() after two increments = %d, want 4", s.Count())
	}

	for i := 0; i < 3; i++ {
		if err := s.Decrement(); err != nil {
			t.Fatalf("Decrement() error = %v", err)
		}
	}
	if err := s.Decrement(); !errors.Is(err, ErrLastSlot) {
		t.Errorf("Decrement() at one slot error = %v, want ErrLastSlot", err)
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}

	s.Reset()
	if s.Count() != 2 {
		t.Errorf("Count() after Reset = %d, want 2", s.Count())
	}
}

func TestNewSlots_minimumOne(t *testing.T) {
	if got := NewSlots(0).Count(); got != 1 {
		t.Errorf("NewSlots(0).Count() = %d, want 1", got)
	}
	if got := NewSlots(-3).Count(); got != 1 {
		t.Errorf("NewSlots(-3).Count() = %d, want 1", got)
	}
}
