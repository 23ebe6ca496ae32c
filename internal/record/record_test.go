package record

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cpindex/internal/catalog"
)

func TestPartiesRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		input  []string
		stored string
		back   []string
	}{
		{"trims and drops empty", []string{"João", "", " Ana "}, "João; Ana", []string{"João", "Ana"}},
		{"single", []string{"Pedro"}, "Pedro", []string{"Pedro"}},
		{"all empty", []string{" ", ""}, "", nil},
		{"nil", nil, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := JoinParties(tt.input)
			if stored != tt.stored {
				t.Errorf("JoinParties() = %q, want %q", stored, tt.stored)
			}
			if diff := cmp.Diff(tt.back, SplitParties(stored)); diff != "" {
				t.Errorf("SplitParties() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("delimiter inside an entry breaks the round trip", func(t *testing.T) {
		in := []string{"Ana; Pedro", "José"}
		got := SplitParties(JoinParties(in))
		if len(got) == len(in) {
			t.Errorf("SplitParties(JoinParties(%q)) = %q, expected the entry to split", in, got)
		}
	})
}

func TestPartyEntries(t *testing.T) {
	tests := map[string][]string{
		"João; Ana":       {"João", "Ana"},
		"João;Ana":        {"João", "Ana"},
		" João ;; Ana ; ": {"João", "Ana"},
		"Pedro":           {"Pedro"},
		"":                nil,
		" ; ":             nil,
	}
	for in, want := range tests {
		if diff := cmp.Diff(want, PartyEntries(in)); diff != "" {
			t.Errorf("PartyEntries(%q) mismatch (-want +got):\n%s", in, diff)
		}
	}
}

func TestPrimaryName(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{"baptism", Record{Type: catalog.TypeBaptism, Fields: map[string]string{"nome_do_registrado": "Antônio"}}, "Antônio"},
		{"marriage uses groom", Record{Type: catalog.TypeMarriage, Fields: map[string]string{"nome_do_noivo": "José", "nome_da_noiva": "Rita"}}, "José"},
		{"death", Record{Type: catalog.TypeDeath, Fields: map[string]string{"nome_do_falecido": "Maria Silva"}}, "Maria Silva"},
		{"note first party", Record{Type: catalog.TypeNote, Fields: map[string]string{"partes_envolvidas": "João; Ana"}}, "João"},
		{"note parties without spaces", Record{Type: catalog.TypeNote, Fields: map[string]string{"partes_envolvidas": "João;Ana"}}, "João"},
		{"note leading empty entry", Record{Type: catalog.TypeNote, Fields: map[string]string{"partes_envolvidas": " ;Ana"}}, "Ana"},
		{"note without parties", Record{Type: catalog.TypeNote}, NotAvailable},
		{"empty baptism", Record{Type: catalog.TypeBaptism}, NotAvailable},
		{"unknown type", Record{Type: "Crisma"}, NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.PrimaryName(); got != tt.want {
				t.Errorf("PrimaryName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrimaryDate(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		fields map[string]string
		want   string
	}{
		{"event wins", catalog.TypeBaptism, map[string]string{"data_do_evento": "1880-01-01", "data_do_registro": "1880-02-01"}, "1880-01-01"},
		{"death wins over registration", catalog.TypeDeath, map[string]string{"data_do_obito": "1890-04-02", "data_do_registro": "1890-04-05"}, "1890-04-02"},
		{"registration fallback", catalog.TypeMarriage, map[string]string{"data_do_registro": "1900-05-05"}, "1900-05-05"},
		{"note always registration", catalog.TypeNote, map[string]string{"data_do_registro": "1850-03-03", "data_do_evento": "1849-01-01"}, "1850-03-03"},
		{"missing", catalog.TypeDeath, nil, NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{Type: tt.typ, Fields: tt.fields}
			if got := r.PrimaryDate(); got != tt.want {
				t.Errorf("PrimaryDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayActor(t *testing.T) {
	tests := map[string]string{
		"ana@example.org": "ana",
		"ana":             "ana",
		"":                "",
		"a@b@c":           "a",
	}
	for in, want := range tests {
		if got := DisplayActor(in); got != want {
			t.Errorf("DisplayActor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

	if got := FormatTimestamp(ts, loc); got != "09/03/2024 11:05:07" {
		t.Errorf("FormatTimestamp() = %q, want %q", got, "09/03/2024 11:05:07")
	}
	if got := FormatTimestamp(time.Time{}, loc); got != NoTimestamp {
		t.Errorf("FormatTimestamp(zero) = %q, want %q", got, NoTimestamp)
	}
	if got := FormatTimestamp(ts, nil); got != "09/03/2024 14:05:07" {
		t.Errorf("FormatTimestamp(nil loc) = %q, want UTC rendering", got)
	}
}

func TestParseStorageTime(t *testing.T) {
	want := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	for _, in := range []string{
		"2024-03-09T14:05:07Z",
		"2024-03-09T11:05:07-03:00",
		"2024-03-09 14:05:07",
		"2024-03-09 14:05:07+00:00",
	} {
		got, ok := ParseStorageTime(in)
		if !ok {
			t.Errorf("ParseStorageTime(%q) failed", in)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseStorageTime(%q) = %v, want %v", in, got, want)
		}
	}
	if _, ok := ParseStorageTime("ontem"); ok {
		t.Error("ParseStorageTime(garbage) ok = true, want false")
	}
}

func TestValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Record{
		ID: 42, Type: catalog.TypeDeath,
		Fields:    map[string]string{"nome_do_falecido": "Maria"},
		CreatedBy: "a@x", UpdatedBy: "b@x", CreatedAt: ts, UpdatedAt: ts,
	}
	tests := map[string]string{
		"id":                   "42",
		"tipo_registro":        catalog.TypeDeath,
		"nome_do_falecido":     "Maria",
		"criado_por":           "a@x",
		"ultima_alteracao_por": "b@x",
		"criado_em":            "2024-01-02T03:04:05Z",
		"causa_mortis":         "",
	}
	for col, want := range tests {
		if got := r.Value(col); got != want {
			t.Errorf("Value(%q) = %q, want %q", col, got, want)
		}
	}
}
