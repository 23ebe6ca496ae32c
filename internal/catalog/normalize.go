package catalog

import (
	"strings"
	"unicode"
)

// accentFolds maps every accented letter the catalog may use to its base letter.
var accentFolds = map[rune]rune{
	'á': 'a', 'à': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a',
	'é': 'e', 'è': 'e', 'ê': 'e', 'ë': 'e',
	'í': 'i', 'ì': 'i', 'î': 'i', 'ï': 'i',
	'ó': 'o', 'ò': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ú': 'u', 'ù': 'u', 'û': 'u', 'ü': 'u',
	'ç': 'c',
	'ñ': 'n',
}

// Normalize maps a field label to its storage identifier.
//
// The label is lower-cased, accented letters are folded to their base letter,
// spaces and slashes become underscores, and parentheses and question marks
// are removed. Every other character is kept as is, so labels outside the
// folding table produce identifiers that Validate rejects.
func Normalize(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range strings.ToLower(label) {
		if base, ok := accentFolds[r]; ok {
			b.WriteRune(base)
			continue
		}
		switch r {
		case ' ', '/':
			b.WriteByte('_')
		case '(', ')', '?':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// labels holds the display label for every identifier shown to users.
var labels = map[string]string{
	ColumnID:                "ID",
	ColumnType:              "Tipo de Registro",
	FieldRegistrationDate:   "Data do Registro",
	FieldEventDate:          "Data do Evento",
	FieldDeathDate:          "Data do Óbito",
	"local_do_evento":       "Local do Evento",
	"local_do_obito":        "Local do Óbito",
	"nome_do_registrado":    "Nome do Registrado",
	"nome_do_pai":           "Nome do Pai",
	"nome_da_mae":           "Nome da Mãe",
	"padrinhos":             "Padrinhos",
	"avo_paterno":           "Avô Paterno",
	"avo_paterna":           "Avó Paterna",
	"avo_materno":           "Avô Materno",
	"avo_materna":           "Avó Materna",
	"nome_do_noivo":         "Nome do Noivo",
	"idade_do_noivo":        "Idade do Noivo",
	"pai_do_noivo":          "Pai do Noivo",
	"mae_do_noivo":          "Mãe do Noivo",
	"nome_da_noiva":         "Nome da Noiva",
	"idade_da_noiva":        "Idade da Noiva",
	"pai_da_noiva":          "Pai da Noiva",
	"mae_da_noiva":          "Mãe da Noiva",
	"testemunhas":           "Testemunhas",
	"nome_do_falecido":      "Nome do Falecido",
	"idade_no_obito":        "Idade no Óbito",
	"filiacao":              "Filiação",
	"conjuge_sobrevivente":  "Cônjuge Sobrevivente",
	"deixou_filhos":         "Deixou Filhos",
	"causa_mortis":          "Causa Mortis",
	"local_do_sepultamento": "Local do Sepultamento",
	FieldBook:               "Fonte (Livro)",
	FieldPage:               "Fonte (Página/Folha)",
	"observacoes":           "Observações",
	"caminho_da_imagem":     "Caminho da Imagem",
	ColumnCreatedBy:         "Criado Por",
	ColumnUpdatedBy:         "Última Alteração Por",
	"tipo_de_ato":           "Tipo de Ato",
	"local_do_registro":     "Local do Registro",
	FieldParties:            "Partes Envolvidas",
	"resumo_do_teor":        "Resumo do Teor",
	ColumnCreatedAt:         "Criado Em",
	ColumnUpdatedAt:         "Atualizado Em",
}

// Label returns the display label for an identifier. Identifiers without an
// explicit entry are title-cased with underscores turned into spaces.
func Label(identifier string) string {
	if l, ok := labels[identifier]; ok {
		return l
	}
	words := strings.Fields(strings.ReplaceAll(identifier, "_", " "))
	for i, w := range words {
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}

// Labels maps a list of identifiers to their display labels.
func Labels(identifiers []string) []string {
	out := make([]string, len(identifiers))
	for i, id := range identifiers {
		out[i] = Label(id)
	}
	return out
}
