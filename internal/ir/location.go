package ir

import "github.com/hanpama/graphgate/internal/diag"

// TypeLocation locates a diagnostic on a type declaration.
func TypeLocation(t *TypeDef) diag.Location {
	return diag.Location{
		Type:       t.Name,
		TypeIndex:  t.Index,
		FieldIndex: -1,
		ArgIndex:   -1,
		Line:       t.Pos.Line,
		Column:     t.Pos.Column,
	}
}

// FieldLocation locates a diagnostic on a field, enum value or input field.
func FieldLocation(t *TypeDef, f *FieldDef) diag.Location {
	loc := TypeLocation(t)
	loc.Field = f.Name
	loc.FieldIndex = f.Index
	loc.Line, loc.Column = f.Pos.Line, f.Pos.Column
	return loc
}

func ArgumentLocation(t *TypeDef, f *FieldDef, a *ArgumentDef) diag.Location {
	loc := FieldLocation(t, f)
	loc.Argument = a.Name
	loc.ArgIndex = a.Index
	loc.Line, loc.Column = a.Pos.Line, a.Pos.Column
	return loc
}

// DirectiveArgumentLocation locates a diagnostic on an argument of a
// directive applied to a field. Directive arguments sort after the field's
// own arguments.
func DirectiveArgumentLocation(t *TypeDef, f *FieldDef, d *DirectiveUse, arg string, ordinal int, at Pos) diag.Location {
	loc := FieldLocation(t, f)
	loc.Argument = "@" + d.Name + "." + arg
	loc.ArgIndex = len(f.Args) + ordinal
	if at.Line > 0 {
		loc.Line, loc.Column = at.Line, at.Column
	} else if d.Pos.Line > 0 {
		loc.Line, loc.Column = d.Pos.Line, d.Pos.Column
	}
	return loc
}

// TypeDirectiveArgumentLocation locates a diagnostic on an argument of a
// directive applied to a type definition.
func TypeDirectiveArgumentLocation(t *TypeDef, d *DirectiveUse, arg string, ordinal int, at Pos) diag.Location {
	loc := TypeLocation(t)
	loc.Argument = "@" + d.Name + "." + arg
	loc.ArgIndex = ordinal
	if at.Line > 0 {
		loc.Line, loc.Column = at.Line, at.Column
	} else if d.Pos.Line > 0 {
		loc.Line, loc.Column = d.Pos.Line, d.Pos.Column
	}
	return loc
}

// Location locates a diagnostic on the schema definition.
func (s *SchemaDef) Location() diag.Location {
	loc := diag.SchemaLocation()
	loc.Line, loc.Column = s.Pos.Line, s.Pos.Column
	return loc
}
