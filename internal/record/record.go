// Package record holds the stored record model and the values derived from it
// for display: primary name, primary date, actor and timestamp formatting.
package record

import (
	"strings"
	"time"

	"cpindex/internal/catalog"
)

// Placeholders used when a derived value is missing.
const (
	NotAvailable = "N/A"
	NoTimestamp  = "N/D"
)

// PartyDelimiter joins the entries of the involved parties group in storage.
const PartyDelimiter = "; "

// Record is one row of the records table.
type Record struct {
	ID   int64
	Type string
	// Fields maps business identifiers to values. Missing keys are null.
	Fields    map[string]string
	CreatedBy string
	UpdatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Get returns the value of a business field, or "" when it is null.
func (r *Record) Get(identifier string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[identifier]
}

// Book returns the source book of the record.
func (r *Record) Book() string { return r.Get(catalog.FieldBook) }

// Page returns the page/folio of the record.
func (r *Record) Page() string { return r.Get(catalog.FieldPage) }

// Parties returns the involved parties of a note for display and export.
func (r *Record) Parties() []string { return PartyEntries(r.Get(catalog.FieldParties)) }

// JoinParties trims every entry, drops empty ones and joins the rest with
// PartyDelimiter.
func JoinParties(parties []string) string {
	kept := make([]string, 0, len(parties))
	for _, p := range parties {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, PartyDelimiter)
}

// SplitParties reverses JoinParties exactly, for editing. An empty value has
// no parties.
func SplitParties(stored string) []string {
	if stored == "" {
		return nil
	}
	return strings.Split(stored, PartyDelimiter)
}

// PartyEntries splits a stored parties value on every ";", trimming entries
// and dropping empty ones. Imported spreadsheets often write "João;Ana".
func PartyEntries(stored string) []string {
	var out []string
	for _, p := range strings.Split(stored, ";") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PrimaryName returns the name that identifies the record in listings.
func (r *Record) PrimaryName() string {
	var name string
	d, err := r.Details()
	if err == nil {
		switch v := d.(type) {
		case *Baptism:
			name = v.Name
		case *Marriage:
			name = v.GroomName
		case *Death:
			name = v.DeceasedName
		case *Note:
			if len(v.Parties) > 0 {
				name = strings.TrimSpace(v.Parties[0])
			}
		}
	}
	if name == "" {
		return NotAvailable
	}
	return name
}

// PrimaryDate returns the date shown in listings. The event date wins, then
// the death date, then the registration date. Notes always show the
// registration date.
func (r *Record) PrimaryDate() string {
	var date string
	if r.Type == catalog.TypeNote {
		date = r.Get(catalog.FieldRegistrationDate)
	} else {
		for _, id := range []string{catalog.FieldEventDate, catalog.FieldDeathDate, catalog.FieldRegistrationDate} {
			if v := r.Get(id); v != "" {
				date = v
				break
			}
		}
	}
	if date == "" {
		return NotAvailable
	}
	return date
}

// DisplayActor strips the domain part of an email-like identity.
func DisplayActor(actor string) string {
	if i := strings.Index(actor, "@"); i >= 0 {
		return actor[:i]
	}
	return actor
}

// FormatTimestamp converts t to loc and formats it as DD/MM/YYYY HH:MM:SS.
// The zero time formats as NoTimestamp.
func FormatTimestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return NoTimestamp
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02/01/2006 15:04:05")
}

// Value returns the raw value of any column of the record, including id,
// discriminator and audit columns. Audit timestamps are RFC 3339 in UTC.
func (r *Record) Value(column string) string {
	switch column {
	case catalog.ColumnID:
		if r.ID == 0 {
			return ""
		}
		return formatID(r.ID)
	case catalog.ColumnType:
		return r.Type
	case catalog.ColumnCreatedBy:
		return r.CreatedBy
	case catalog.ColumnUpdatedBy:
		return r.UpdatedBy
	case catalog.ColumnCreatedAt:
		return FormatStorageTime(r.CreatedAt)
	case catalog.ColumnUpdatedAt:
		return FormatStorageTime(r.UpdatedAt)
	}
	return r.Get(column)
}

// FormatStorageTime renders a timestamp the way it is written to backups.
func FormatStorageTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ParseStorageTime parses the timestamp formats found in stored data and
// backup files. Unparseable values yield the zero time and false.
func ParseStorageTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
