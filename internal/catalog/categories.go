package catalog

import (
	"errors"
	"fmt"
)

// Category is a named group of identifiers used to scope searches.
type Category struct {
	Name   string
	Fields []string
}

// ErrUnknownCategory is returned when a search names a category that does not exist.
var ErrUnknownCategory = errors.New("unknown search category")

var categories = []Category{
	{Name: "Nomes", Fields: []string{
		"nome_do_registrado", "nome_do_pai", "nome_da_mae", "nome_do_noivo", "nome_da_noiva",
		"nome_do_falecido", "padrinhos", "testemunhas", "pai_do_noivo", "mae_do_noivo",
		"pai_da_noiva", "mae_da_noiva", "avo_paterno", "avo_paterna", "avo_materno",
		"avo_materna", "conjuge_sobrevivente", "filiacao", FieldParties,
	}},
	{Name: "Locais", Fields: []string{
		"local_do_evento", "local_do_obito", "local_do_registro", "local_do_sepultamento",
	}},
	{Name: "Datas", Fields: []string{
		FieldRegistrationDate, FieldEventDate, FieldDeathDate,
	}},
	{Name: "Idades", Fields: []string{
		"idade_do_noivo", "idade_da_noiva", "idade_no_obito",
	}},
	{Name: "Informações Gerais", Fields: []string{
		"observacoes", "resumo_do_teor", "tipo_de_ato", "causa_mortis", "deixou_filhos", ColumnType,
	}},
	{Name: "Fontes", Fields: []string{
		FieldBook, FieldPage, "caminho_da_imagem",
	}},
}

// Categories returns the search categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// SearchFields resolves the identifiers a search should match against.
// With no categories it returns every category's fields plus id and the
// actor columns. The result is deduplicated and keeps first-seen order.
func SearchFields(names []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(ids ...string) {
		for _, id := range ids {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}

	if len(names) == 0 {
		for _, c := range categories {
			add(c.Fields...)
		}
		add(ColumnID, ColumnCreatedBy, ColumnUpdatedBy)
		return out, nil
	}

	for _, name := range names {
		c, ok := findCategory(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		add(c.Fields...)
	}
	return out, nil
}

func findCategory(name string) (Category, bool) {
	for _, c := range categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}
