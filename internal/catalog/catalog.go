// Package catalog declares the record types indexed by cpindex, the fields
// each type carries, and the mapping between human-readable field labels and
// the storage identifiers used as column names.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
)

// Storage identifiers with a fixed meaning across every record type.
const (
	Table = "registros"

	ColumnID        = "id"
	ColumnType      = "tipo_registro"
	ColumnCreatedBy = "criado_por"
	ColumnUpdatedBy = "ultima_alteracao_por"
	ColumnCreatedAt = "criado_em"
	ColumnUpdatedAt = "atualizado_em"

	FieldBook             = "fonte_livro"
	FieldPage             = "fonte_pagina_folha"
	FieldParties          = "partes_envolvidas"
	FieldRegistrationDate = "data_do_registro"
	FieldEventDate        = "data_do_evento"
	FieldDeathDate        = "data_do_obito"
)

// Record type names. These are stored verbatim in the discriminator column.
const (
	TypeBaptism  = "Nascimento/Batismo"
	TypeMarriage = "Casamento"
	TypeDeath    = "Óbito"
	TypeNote     = "Notas"
)

// AuditColumns lists the audit identifiers in storage order.
var AuditColumns = []string{ColumnCreatedBy, ColumnUpdatedBy, ColumnCreatedAt, ColumnUpdatedAt}

// Group is a repeatable sub-field collapsed into a single stored value.
type Group struct {
	Label      string
	Identifier string
}

// RecordType describes one record category.
type RecordType struct {
	Name string
	// Fields are the type-specific labels in display order.
	Fields []string
	// Repeatable is set when the type carries a repeatable group.
	Repeatable *Group
	// TableColumns is the compact listing for this type.
	TableColumns []string
	// exportColumns overrides the derived export order when set.
	exportColumns []string
}

// CommonFields are appended to every record type.
var CommonFields = []string{
	"Fonte (Livro)",
	"Fonte (Página/Folha)",
	"Observações",
	"Caminho da Imagem",
}

var types = []RecordType{
	{
		Name: TypeBaptism,
		Fields: []string{
			"Data do Registro", "Data do Evento", "Local do Evento",
			"Nome do Registrado", "Nome do Pai", "Nome da Mãe", "Padrinhos",
			"Avô paterno", "Avó paterna", "Avô materno", "Avó materna",
		},
		TableColumns: []string{
			ColumnID, "nome_do_registrado", FieldRegistrationDate, FieldEventDate,
			"nome_do_pai", "nome_da_mae", FieldBook, FieldPage,
		},
	},
	{
		Name: TypeMarriage,
		Fields: []string{
			"Data do Registro", "Data do Evento", "Local do Evento",
			"Nome do Noivo", "Idade do Noivo", "Pai do Noivo", "Mãe do Noivo",
			"Nome da Noiva", "Idade da Noiva", "Pai da Noiva", "Mãe da Noiva",
			"Testemunhas",
		},
		TableColumns: []string{
			ColumnID, "nome_do_noivo", "nome_da_noiva", FieldRegistrationDate, FieldEventDate,
			"pai_do_noivo", "mae_do_noivo", FieldBook, FieldPage,
		},
	},
	{
		Name: TypeDeath,
		Fields: []string{
			"Data do Registro", "Data do Óbito", "Local do Óbito",
			"Nome do Falecido", "Idade no Óbito", "Filiação",
			"Cônjuge Sobrevivente", "Deixou Filhos?", "Causa Mortis",
			"Local do Sepultamento",
		},
		TableColumns: []string{
			ColumnID, "nome_do_falecido", FieldRegistrationDate, FieldDeathDate,
			"idade_no_obito", FieldBook, FieldPage,
		},
	},
	{
		Name: TypeNote,
		Fields: []string{
			"Tipo de Ato", "Data do Registro", "Local do Registro", "Resumo do Teor",
		},
		Repeatable: &Group{Label: "Partes Envolvidas", Identifier: FieldParties},
		TableColumns: []string{
			ColumnID, "tipo_de_ato", FieldRegistrationDate, FieldParties,
			"resumo_do_teor", FieldBook, FieldPage,
		},
		exportColumns: []string{
			ColumnID, ColumnType, "tipo_de_ato", FieldRegistrationDate, "local_do_registro",
			FieldParties, "resumo_do_teor", FieldBook, FieldPage, "observacoes",
			"caminho_da_imagem", ColumnCreatedBy, ColumnUpdatedBy, ColumnCreatedAt, ColumnUpdatedAt,
		},
	},
}

// Types returns the record types in catalog order.
func Types() []RecordType {
	out := make([]RecordType, len(types))
	copy(out, types)
	return out
}

// TypeNames returns the record type names in catalog order.
func TypeNames() []string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.Name
	}
	return names
}

// Lookup returns the record type with the given name.
func Lookup(name string) (RecordType, bool) {
	for _, t := range types {
		if t.Name == name {
			return t, true
		}
	}
	return RecordType{}, false
}

var identifierPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// ValidIdentifier reports whether s is safe to use as a column name.
func ValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// ErrCollision is returned by Validate when two labels normalize to the same identifier.
var ErrCollision = errors.New("identifier collision")

// Validate checks the catalog invariants: type names are unique, every label
// normalizes to a storage-safe identifier, and no two labels of the same type
// share an identifier with each other or with the reserved columns.
func Validate() error {
	return validate(types)
}

func validate(defs []RecordType) error {
	seenTypes := make(map[string]bool)
	for _, t := range defs {
		if seenTypes[t.Name] {
			return fmt.Errorf("duplicate record type %q", t.Name)
		}
		seenTypes[t.Name] = true

		reserved := map[string]string{ColumnID: ColumnID, ColumnType: ColumnType}
		for _, c := range AuditColumns {
			reserved[c] = c
		}

		seen := make(map[string]string)
		labels := append(append([]string{}, t.Fields...), CommonFields...)
		if t.Repeatable != nil {
			labels = append(labels, t.Repeatable.Label)
		}
		for _, label := range labels {
			id := Normalize(label)
			if !ValidIdentifier(id) {
				return fmt.Errorf("%s: label %q normalizes to unsafe identifier %q", t.Name, label, id)
			}
			if other, ok := reserved[id]; ok {
				return fmt.Errorf("%s: label %q collides with reserved column %q: %w", t.Name, label, other, ErrCollision)
			}
			if other, ok := seen[id]; ok {
				return fmt.Errorf("%s: labels %q and %q both normalize to %q: %w", t.Name, other, label, id, ErrCollision)
			}
			seen[id] = label
		}
		if t.Repeatable != nil && Normalize(t.Repeatable.Label) != t.Repeatable.Identifier {
			return fmt.Errorf("%s: repeatable group %q does not normalize to %q", t.Name, t.Repeatable.Label, t.Repeatable.Identifier)
		}
	}
	return nil
}
