package catalog

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"Nome do Registrado", "nome_do_registrado"},
		{"Nome da Mãe", "nome_da_mae"},
		{"Fonte (Livro)", "fonte_livro"},
		{"Fonte (Página/Folha)", "fonte_pagina_folha"},
		{"Deixou Filhos?", "deixou_filhos"},
		{"Cônjuge Sobrevivente", "conjuge_sobrevivente"},
		{"Filiação", "filiacao"},
		{"Avô paterno", "avo_paterno"},
		{"Avó paterna", "avo_paterna"},
		{"Data do Óbito", "data_do_obito"},
		{"Observações", "observacoes"},
		{"ÚLTIMA", "ultima"},
		{"", ""},
		{"já-está", "ja-esta"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := Normalize(tt.label); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.label, got, tt.want)
			}
		})
	}
}

func TestNormalize_accentTable(t *testing.T) {
	required := map[string]string{
		"ã": "a", "á": "a", "â": "a", "é": "e", "í": "i",
		"ó": "o", "ô": "o", "õ": "o", "ú": "u", "ç": "c",
	}
	for in, want := range required {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
		if got := Normalize(strings.ToUpper(in)); got != want {
			t.Errorf("Normalize(upper %q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_idempotent(t *testing.T) {
	for _, rt := range Types() {
		for _, label := range FieldsFor(rt.Name) {
			once := Normalize(label)
			if twice := Normalize(once); twice != once {
				t.Errorf("Normalize(Normalize(%q)) = %q, want %q", label, twice, once)
			}
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidate_rejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name    string
		defs    []RecordType
		wantErr error
	}{
		{
			name:    "colliding labels",
			defs:    []RecordType{{Name: "X", Fields: []string{"Nome do Pai", "nome do pai"}}},
			wantErr: ErrCollision,
		},
		{
			name:    "label colliding with audit column",
			defs:    []RecordType{{Name: "X", Fields: []string{"Criado Por"}}},
			wantErr: ErrCollision,
		},
		{
			name: "unsafe identifier",
			defs: []RecordType{{Name: "X", Fields: []string{"Nome; Pai"}}},
		},
		{
			name: "duplicate type",
			defs: []RecordType{{Name: "X"}, {Name: "X"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.defs)
			if err == nil {
				t.Fatal("validate() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNoCollisionsAcrossCatalog(t *testing.T) {
	for _, rt := range Types() {
		seen := make(map[string]string)
		for _, label := range FieldsFor(rt.Name) {
			id := Normalize(label)
			if prev, ok := seen[id]; ok {
				t.Errorf("%s: %q and %q both normalize to %q", rt.Name, prev, label, id)
			}
			seen[id] = label
		}
	}
}

func TestLabel(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"avo_paterno", "Avô Paterno"},
		{"fonte_pagina_folha", "Fonte (Página/Folha)"},
		{"criado_por", "Criado Por"},
		{"some_new_column", "Some New Column"},
		{"x", "X"},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := Label(tt.id); got != tt.want {
				t.Errorf("Label(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestEveryColumnHasLabel(t *testing.T) {
	for _, id := range AllColumns() {
		if _, ok := labels[id]; !ok {
			t.Errorf("no explicit label for %q", id)
		}
	}
}
