package catalog

import (
	"errors"
	"testing"
)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestSearchFields(t *testing.T) {
	t.Run("no categories searches everything plus identity columns", func(t *testing.T) {
		got, err := SearchFields(nil)
		if err != nil {
			t.Fatalf("SearchFields() error = %v", err)
		}
		for _, want := range []string{"nome_do_falecido", "local_do_obito", "idade_no_obito", ColumnID, ColumnCreatedBy, ColumnUpdatedBy, FieldPage} {
			if !contains(got, want) {
				t.Errorf("SearchFields(nil) missing %q", want)
			}
		}
	})

	t.Run("named categories are unioned", func(t *testing.T) {
		got, err := SearchFields([]string{"Locais", "Idades"})
		if err != nil {
			t.Fatalf("SearchFields() error = %v", err)
		}
		if len(got) != 7 {
			t.Errorf("len(SearchFields()) = %d, want 7: %v", len(got), got)
		}
		if contains(got, "nome_do_falecido") {
			t.Error("SearchFields(Locais, Idades) should not include names")
		}
		if contains(got, ColumnID) {
			t.Error("SearchFields(Locais, Idades) should not include id")
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		got, err := SearchFields([]string{"Datas", "Datas"})
		if err != nil {
			t.Fatalf("SearchFields() error = %v", err)
		}
		if len(got) != 3 {
			t.Errorf("len(SearchFields()) = %d, want 3", len(got))
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := SearchFields([]string{"Apelidos"})
		if !errors.Is(err, ErrUnknownCategory) {
			t.Errorf("SearchFields() error = %v, want ErrUnknownCategory", err)
		}
	})
}

func TestCategoriesReferenceKnownColumns(t *testing.T) {
	all := AllColumns()
	for _, c := range Categories() {
		for _, f := range c.Fields {
			if !contains(all, f) {
				t.Errorf("category %q references unknown column %q", c.Name, f)
			}
		}
	}
}
