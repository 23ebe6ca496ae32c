package catalog

// FieldsFor returns the labels of a record type: type-specific fields first,
// then the common fields. Unknown types yield nil.
func FieldsFor(typeName string) []string {
	t, ok := Lookup(typeName)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(t.Fields)+len(CommonFields))
	out = append(out, t.Fields...)
	return append(out, CommonFields...)
}

// IdentifiersFor returns the storage identifiers a record of the given type
// carries, in form order. The repeatable group identifier comes last.
func IdentifiersFor(typeName string) []string {
	t, ok := Lookup(typeName)
	if !ok {
		return nil
	}
	fields := FieldsFor(typeName)
	out := make([]string, 0, len(fields)+1)
	for _, f := range fields {
		out = append(out, Normalize(f))
	}
	if t.Repeatable != nil {
		out = append(out, t.Repeatable.Identifier)
	}
	return out
}

// Applies reports whether identifier is a business field of the given type.
func Applies(typeName, identifier string) bool {
	for _, id := range IdentifiersFor(typeName) {
		if id == identifier {
			return true
		}
	}
	return false
}

// ExportColumnsFor returns the export column order of a record type:
// id, discriminator, business fields, audit fields.
func ExportColumnsFor(typeName string) []string {
	t, ok := Lookup(typeName)
	if !ok {
		return nil
	}
	if t.exportColumns != nil {
		return append([]string(nil), t.exportColumns...)
	}
	fields := FieldsFor(typeName)
	out := make([]string, 0, len(fields)+2+len(AuditColumns))
	out = append(out, ColumnID, ColumnType)
	for _, f := range fields {
		out = append(out, Normalize(f))
	}
	return append(out, AuditColumns...)
}

// TableColumnsFor returns the compact listing columns of a record type.
func TableColumnsFor(typeName string) []string {
	t, ok := Lookup(typeName)
	if !ok {
		return nil
	}
	return append([]string(nil), t.TableColumns...)
}

// BusinessColumns returns every business identifier across all record types,
// deduplicated, in catalog order.
func BusinessColumns() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range types {
		for _, id := range IdentifiersFor(t.Name) {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	return out
}

// AllColumns returns the full column set of the records table: id,
// discriminator, every business identifier, and the audit columns.
func AllColumns() []string {
	business := BusinessColumns()
	out := make([]string, 0, len(business)+2+len(AuditColumns))
	out = append(out, ColumnID, ColumnType)
	out = append(out, business...)
	return append(out, AuditColumns...)
}

// LocationField returns the identifier of the main location field of a type.
func LocationField(typeName string) string {
	switch typeName {
	case TypeBaptism, TypeMarriage:
		return "local_do_evento"
	case TypeDeath:
		return "local_do_obito"
	case TypeNote:
		return "local_do_registro"
	}
	return ""
}
