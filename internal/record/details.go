package record

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"cpindex/internal/catalog"
)

// Details is the typed view of a record's business fields. Each record type
// has one implementation; fields are bound to storage identifiers through
// `field` struct tags.
type Details interface {
	RecordType() string
	Base() *Common
}

// Common holds the fields shared by every record type.
type Common struct {
	Book      string `field:"fonte_livro"`
	Page      string `field:"fonte_pagina_folha"`
	Remarks   string `field:"observacoes"`
	ImagePath string `field:"caminho_da_imagem"`
}

// Base returns the shared fields.
func (c *Common) Base() *Common { return c }

// Baptism is a birth or baptism record.
type Baptism struct {
	Common
	RegistrationDate    string `field:"data_do_registro"`
	EventDate           string `field:"data_do_evento"`
	EventPlace          string `field:"local_do_evento"`
	Name                string `field:"nome_do_registrado"`
	Father              string `field:"nome_do_pai"`
	Mother              string `field:"nome_da_mae"`
	Godparents          string `field:"padrinhos"`
	PaternalGrandfather string `field:"avo_paterno"`
	PaternalGrandmother string `field:"avo_paterna"`
	MaternalGrandfather string `field:"avo_materno"`
	MaternalGrandmother string `field:"avo_materna"`
}

func (*Baptism) RecordType() string { return catalog.TypeBaptism }

// Marriage is a marriage record.
type Marriage struct {
	Common
	RegistrationDate string `field:"data_do_registro"`
	EventDate        string `field:"data_do_evento"`
	EventPlace       string `field:"local_do_evento"`
	GroomName        string `field:"nome_do_noivo"`
	GroomAge         string `field:"idade_do_noivo"`
	GroomFather      string `field:"pai_do_noivo"`
	GroomMother      string `field:"mae_do_noivo"`
	BrideName        string `field:"nome_da_noiva"`
	BrideAge         string `field:"idade_da_noiva"`
	BrideFather      string `field:"pai_da_noiva"`
	BrideMother      string `field:"mae_da_noiva"`
	Witnesses        string `field:"testemunhas"`
}

func (*Marriage) RecordType() string { return catalog.TypeMarriage }

// Death is a death record.
type Death struct {
	Common
	RegistrationDate string `field:"data_do_registro"`
	DeathDate        string `field:"data_do_obito"`
	DeathPlace       string `field:"local_do_obito"`
	DeceasedName     string `field:"nome_do_falecido"`
	AgeAtDeath       string `field:"idade_no_obito"`
	Parentage        string `field:"filiacao"`
	SurvivingSpouse  string `field:"conjuge_sobrevivente"`
	LeftChildren     string `field:"deixou_filhos"`
	CauseOfDeath     string `field:"causa_mortis"`
	BurialPlace      string `field:"local_do_sepultamento"`
}

func (*Death) RecordType() string { return catalog.TypeDeath }

// Note is a notarial note. Parties is the repeatable group.
type Note struct {
	Common
	ActType          string   `field:"tipo_de_ato"`
	RegistrationDate string   `field:"data_do_registro"`
	Place            string   `field:"local_do_registro"`
	Summary          string   `field:"resumo_do_teor"`
	Parties          []string `field:"partes_envolvidas,list"`
}

func (*Note) RecordType() string { return catalog.TypeNote }

// NewDetails returns an empty typed value for the record type.
func NewDetails(typeName string) (Details, error) {
	switch typeName {
	case catalog.TypeBaptism:
		return &Baptism{}, nil
	case catalog.TypeMarriage:
		return &Marriage{}, nil
	case catalog.TypeDeath:
		return &Death{}, nil
	case catalog.TypeNote:
		return &Note{}, nil
	}
	return nil, fmt.Errorf("no typed view for record type %q", typeName)
}

// Details resolves the record's field map into its typed view.
func (r *Record) Details() (Details, error) {
	d, err := NewDetails(r.Type)
	if err != nil {
		return nil, err
	}
	walkFields(reflect.ValueOf(d).Elem(), func(tag fieldTag, v reflect.Value) {
		raw := r.Get(tag.id)
		if tag.list {
			v.Set(reflect.ValueOf(PartyEntries(raw)))
			return
		}
		v.SetString(raw)
	})
	return d, nil
}

// FieldMap flattens a typed value back into storage identifiers. Every
// identifier of the type is present, empty values included.
func FieldMap(d Details) map[string]string {
	out := make(map[string]string)
	walkFields(reflect.ValueOf(d).Elem(), func(tag fieldTag, v reflect.Value) {
		if tag.list {
			out[tag.id] = JoinParties(v.Interface().([]string))
			return
		}
		out[tag.id] = v.String()
	})
	return out
}

// FromDetails builds an unsaved record from a typed value.
func FromDetails(d Details) *Record {
	return &Record{Type: d.RecordType(), Fields: FieldMap(d)}
}

type fieldTag struct {
	id   string
	list bool
}

func parseTag(s string) fieldTag {
	id, opts, _ := strings.Cut(s, ",")
	return fieldTag{id: id, list: opts == "list"}
}

// walkFields visits every tagged field of v, descending into embedded structs.
func walkFields(v reflect.Value, fn func(fieldTag, reflect.Value)) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			walkFields(v.Field(i), fn)
			continue
		}
		tag, ok := sf.Tag.Lookup("field")
		if !ok {
			continue
		}
		fn(parseTag(tag), v.Field(i))
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
