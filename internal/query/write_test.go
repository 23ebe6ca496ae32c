package query

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"cpindex/internal/catalog"
)

var testNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func TestDedupe(t *testing.T) {
	tests := []struct {
		name        string
		in          []Field
		wantCols    []string
		wantValues  []any
		wantDropped []string
	}{
		{
			name:       "no duplicates",
			in:         []Field{{"a", 1}, {"b", 2}},
			wantCols:   []string{"a", "b"},
			wantValues: []any{1, 2},
		},
		{
			name:        "first occurrence wins",
			in:          []Field{{"a", 1}, {"b", 2}, {"a", 3}},
			wantCols:    []string{"a", "b"},
			wantValues:  []any{1, 2},
			wantDropped: []string{"a"},
		},
		{
			name:     "empty",
			in:       nil,
			wantCols: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, dropped := Dedupe(tt.in)
			if diff := cmp.Diff(tt.wantCols, Columns(kept)); diff != "" {
				t.Errorf("columns mismatch (-want +got):\n%s", diff)
			}
			for i, f := range kept {
				if f.Value != tt.wantValues[i] {
					t.Errorf("value[%d] = %v, want %v", i, f.Value, tt.wantValues[i])
				}
			}
			if diff := cmp.Diff(tt.wantDropped, dropped); diff != "" {
				t.Errorf("dropped mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildInsert(t *testing.T) {
	t.Run("columns and values", func(t *testing.T) {
		fields := []Field{{"nome_do_falecido", "Maria"}, {"fonte_livro", "Livro 3"}}
		stmt, dropped, err := BuildInsert(SQLite{}, catalog.TypeDeath, fields, "ana@x.org", testNow, false)
		if err != nil {
			t.Fatalf("BuildInsert() error = %v", err)
		}
		if len(dropped) != 0 {
			t.Errorf("dropped = %v, want none", dropped)
		}
		wantSQL := "INSERT INTO registros (tipo_registro, nome_do_falecido, fonte_livro, criado_por, ultima_alteracao_por, criado_em, atualizado_em) VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id"
		if stmt.SQL != wantSQL {
			t.Errorf("SQL =\n%s\nwant\n%s", stmt.SQL, wantSQL)
		}
		wantArgs := []any{catalog.TypeDeath, "Maria", "Livro 3", "ana@x.org", "ana@x.org", testNow, testNow}
		if diff := cmp.Diff(wantArgs, stmt.Args); diff != "" {
			t.Errorf("Args mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("audit collision keeps the first value", func(t *testing.T) {
		fields := []Field{{"nome_do_falecido", "Maria"}, {catalog.ColumnCreatedBy, "intruso"}}
		stmt, dropped, err := BuildInsert(SQLite{}, catalog.TypeDeath, fields, "ana", testNow, false)
		if err != nil {
			t.Fatalf("BuildInsert() error = %v", err)
		}
		if diff := cmp.Diff([]string{catalog.ColumnCreatedBy}, dropped); diff != "" {
			t.Errorf("dropped mismatch (-want +got):\n%s", diff)
		}
		wantArgs := []any{catalog.TypeDeath, "Maria", "intruso", "ana", testNow, testNow}
		if diff := cmp.Diff(wantArgs, stmt.Args); diff != "" {
			t.Errorf("Args mismatch (-want +got):\n%s", diff)
		}
		if len(stmt.Args) != 6 {
			t.Errorf("len(Args) = %d, want 6", len(stmt.Args))
		}
	})

	t.Run("strict mode rejects collisions", func(t *testing.T) {
		fields := []Field{{"fonte_livro", "A"}, {"fonte_livro", "B"}}
		_, _, err := BuildInsert(SQLite{}, catalog.TypeDeath, fields, "ana", testNow, true)
		if !errors.Is(err, ErrDuplicateColumn) {
			t.Errorf("BuildInsert() error = %v, want ErrDuplicateColumn", err)
		}
	})

	t.Run("postgres placeholders", func(t *testing.T) {
		stmt, _, err := BuildInsert(Postgres{}, catalog.TypeNote, nil, "ana", testNow, false)
		if err != nil {
			t.Fatalf("BuildInsert() error = %v", err)
		}
		want := "INSERT INTO registros (tipo_registro, criado_por, ultima_alteracao_por, criado_em, atualizado_em) VALUES ($1, $2, $3, $4, $5) RETURNING id"
		if stmt.SQL != want {
			t.Errorf("SQL = %s, want %s", stmt.SQL, want)
		}
	})

	t.Run("unsafe column", func(t *testing.T) {
		_, _, err := BuildInsert(SQLite{}, catalog.TypeNote, []Field{{"x; DROP TABLE registros", 1}}, "ana", testNow, false)
		if !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("BuildInsert() error = %v, want ErrInvalidIdentifier", err)
		}
	})

	t.Run("timestamps are stored in UTC", func(t *testing.T) {
		local := testNow.In(time.FixedZone("BRT", -3*3600))
		stmt, _, err := BuildInsert(SQLite{}, catalog.TypeNote, nil, "ana", local, false)
		if err != nil {
			t.Fatalf("BuildInsert() error = %v", err)
		}
		ts := stmt.Args[len(stmt.Args)-1].(time.Time)
		if ts.Location() != time.UTC {
			t.Errorf("timestamp location = %v, want UTC", ts.Location())
		}
	})
}

func TestBuildUpdate(t *testing.T) {
	t.Run("audit always appended", func(t *testing.T) {
		stmt, _, err := BuildUpdate(SQLite{}, 7, nil, "bia", testNow)
		if err != nil {
			t.Fatalf("BuildUpdate() error = %v", err)
		}
		want := "UPDATE registros SET ultima_alteracao_por = ?, atualizado_em = ? WHERE id = ?"
		if stmt.SQL != want {
			t.Errorf("SQL = %s, want %s", stmt.SQL, want)
		}
		if diff := cmp.Diff([]any{"bia", testNow, int64(7)}, stmt.Args); diff != "" {
			t.Errorf("Args mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("business fields then audit", func(t *testing.T) {
		fields := []Field{{"nome_do_pai", "José"}, {catalog.ColumnUpdatedBy, "x"}, {"nome_do_pai", "Outro"}}
		stmt, dropped, err := BuildUpdate(Postgres{}, 3, fields, "bia", testNow)
		if err != nil {
			t.Fatalf("BuildUpdate() error = %v", err)
		}
		want := "UPDATE registros SET nome_do_pai = $1, ultima_alteracao_por = $2, atualizado_em = $3 WHERE id = $4"
		if stmt.SQL != want {
			t.Errorf("SQL = %s, want %s", stmt.SQL, want)
		}
		if diff := cmp.Diff([]string{catalog.ColumnUpdatedBy, "nome_do_pai"}, dropped); diff != "" {
			t.Errorf("dropped mismatch (-want +got):\n%s", diff)
		}
		if stmt.Args[0] != "José" || stmt.Args[1] != "bia" {
			t.Errorf("Args = %v", stmt.Args)
		}
	})
}

func TestBuildDeletes(t *testing.T) {
	tests := []struct {
		name     string
		stmt     Statement
		wantSQL  string
		wantArgs []any
	}{
		{"single", BuildDelete(SQLite{}, 5), "DELETE FROM registros WHERE id = ?", []any{int64(5)}},
		{"many", BuildDeleteMany(Postgres{}, []int64{1, 2, 3}), "DELETE FROM registros WHERE id IN ($1, $2, $3)", []any{int64(1), int64(2), int64(3)}},
		{"by book", BuildDeleteByBook(SQLite{}, "Livro 1"), "DELETE FROM registros WHERE fonte_livro = ?", []any{"Livro 1"}},
		{"all", BuildDeleteAll(), "DELETE FROM registros", nil},
		{
			"rename book",
			BuildRenameBook(Postgres{}, "L1", "L2", "ana", testNow),
			"UPDATE registros SET fonte_livro = $1, ultima_alteracao_por = $2, atualizado_em = $3 WHERE fonte_livro = $4",
			[]any{"L2", "ana", testNow, "L1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.stmt.SQL != tt.wantSQL {
				t.Errorf("SQL = %s, want %s", tt.stmt.SQL, tt.wantSQL)
			}
			if diff := cmp.Diff(tt.wantArgs, tt.stmt.Args); diff != "" {
				t.Errorf("Args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
