// Package form binds user input to the fields of a record type. A Form holds
// one value per field identifier of the selected type plus the slots of the
// repeatable group, and produces the field list handed to the store.
package form

import (
	"errors"
	"fmt"
	"strings"

	"cpindex/internal/catalog"
	"cpindex/internal/query"
	"cpindex/internal/record"
)

// Initial party slot count for a new note.
const defaultPartySlots = 2

var (
	// ErrUnknownType is returned when selecting a type missing from the catalog.
	ErrUnknownType = errors.New("unknown record type")
	// ErrUnknownField is returned when setting a field the type does not carry.
	ErrUnknownField = errors.New("unknown field")
	// ErrNoRepeatable is returned for party operations on types without a group.
	ErrNoRepeatable = errors.New("record type has no repeatable group")
	// ErrDelimiterInParty is returned when a party value contains the storage delimiter.
	ErrDelimiterInParty = errors.New("party value contains the delimiter \"; \"")
	// ErrNoType is returned when submitting before a type is selected.
	ErrNoType = errors.New("no record type selected")
)

// Presets are sticky defaults applied to every new record.
type Presets struct {
	Book     string
	Location string
}

// Form is the editable state of one record.
type Form struct {
	typ     catalog.RecordType
	values  map[string]string
	parties []string
	slots   *Slots
	presets Presets
}

// New returns an empty form with the given presets.
func New(presets Presets) *Form {
	return &Form{presets: presets}
}

// Type returns the selected record type name.
func (f *Form) Type() string { return f.typ.Name }

// SelectType switches the form to a record type. Values are cleared, the
// party slots are reset and presets are applied again.
func (f *Form) SelectType(name string) error {
	t, ok := catalog.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	f.typ = t
	f.values = make(map[string]string)
	for _, id := range catalog.IdentifiersFor(name) {
		f.values[id] = ""
	}
	f.parties = nil
	f.slots = nil
	if t.Repeatable != nil {
		f.slots = NewSlots(defaultPartySlots)
		f.parties = make([]string, f.slots.Count())
	}
	f.applyPresets()
	return nil
}

func (f *Form) applyPresets() {
	if f.presets.Book != "" {
		f.values[catalog.FieldBook] = f.presets.Book
	}
	if loc := catalog.LocationField(f.typ.Name); f.presets.Location != "" && loc != "" {
		f.values[loc] = f.presets.Location
	}
}

// Edit loads an existing record into the form. The party slots are rebuilt
// from the stored value with at least one slot.
func (f *Form) Edit(r *record.Record) error {
	t, ok := catalog.Lookup(r.Type)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, r.Type)
	}
	f.typ = t
	f.values = make(map[string]string)
	for _, id := range catalog.IdentifiersFor(t.Name) {
		f.values[id] = r.Get(id)
	}
	f.parties = nil
	f.slots = nil
	if t.Repeatable != nil {
		stored := record.SplitParties(r.Get(t.Repeatable.Identifier))
		f.slots = NewSlots(len(stored))
		f.parties = make([]string, f.slots.Count())
		copy(f.parties, stored)
	}
	return nil
}

// resolve maps a label or identifier to the identifier of a field of the
// selected type.
func (f *Form) resolve(key string) (string, error) {
	if f.values == nil {
		return "", ErrNoType
	}
	for _, k := range []string{key, catalog.Normalize(key)} {
		if _, ok := f.values[k]; ok {
			if f.typ.Repeatable != nil && k == f.typ.Repeatable.Identifier {
				break
			}
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q for %s", ErrUnknownField, key, f.typ.Name)
}

// Set assigns a field by label or identifier.
func (f *Form) Set(key, value string) error {
	id, err := f.resolve(key)
	if err != nil {
		return err
	}
	f.values[id] = value
	return nil
}

// Value returns the current value of a field by label or identifier.
func (f *Form) Value(key string) (string, error) {
	id, err := f.resolve(key)
	if err != nil {
		return "", err
	}
	return f.values[id], nil
}

// Parties returns the current party slots.
func (f *Form) Parties() []string {
	return append([]string(nil), f.parties...)
}

// PartySlots returns the number of party slots shown.
func (f *Form) PartySlots() int {
	if f.slots == nil {
		return 0
	}
	return f.slots.Count()
}

// AddParty appends an empty party slot.
func (f *Form) AddParty() error {
	if f.slots == nil {
		return ErrNoRepeatable
	}
	f.slots.Increment()
	f.parties = append(f.parties, "")
	return nil
}

// RemoveParty drops the last party slot.
func (f *Form) RemoveParty() error {
	if f.slots == nil {
		return ErrNoRepeatable
	}
	if err := f.slots.Decrement(); err != nil {
		return err
	}
	f.parties = f.parties[:len(f.parties)-1]
	return nil
}

// SetParty assigns slot i.
func (f *Form) SetParty(i int, value string) error {
	if f.slots == nil {
		return ErrNoRepeatable
	}
	if i < 0 || i >= len(f.parties) {
		return fmt.Errorf("party slot %d out of range [0,%d)", i, len(f.parties))
	}
	f.parties[i] = value
	return nil
}

// SetParties replaces every slot with the given values, keeping at least one.
func (f *Form) SetParties(values []string) error {
	if f.slots == nil {
		return ErrNoRepeatable
	}
	for f.slots.Count() < len(values) {
		f.slots.Increment()
	}
	for f.slots.Count() > len(values) {
		if err := f.slots.Decrement(); err != nil {
			break
		}
	}
	f.parties = make([]string, f.slots.Count())
	copy(f.parties, values)
	return nil
}

// Submit returns the field list for the store: one entry per field of the
// selected type in catalog order, the collapsed party list last.
func (f *Form) Submit() ([]query.Field, error) {
	if f.values == nil {
		return nil, ErrNoType
	}
	ids := catalog.IdentifiersFor(f.typ.Name)
	out := make([]query.Field, 0, len(ids))
	for _, id := range ids {
		if f.typ.Repeatable != nil && id == f.typ.Repeatable.Identifier {
			for _, p := range f.parties {
				if strings.Contains(p, record.PartyDelimiter) {
					return nil, fmt.Errorf("%w: %q", ErrDelimiterInParty, p)
				}
			}
			out = append(out, query.Field{Column: id, Value: record.JoinParties(f.parties)})
			continue
		}
		out = append(out, query.Field{Column: id, Value: f.values[id]})
	}
	return out, nil
}
