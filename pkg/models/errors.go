package models

import "fmt"

// UnsupportedTypeError is returned when a column's type, or a type nested
// inside it, has no defined checksum strategy. It signals the engine needs
// extension, not a data problem, and is never retried.
type UnsupportedTypeError struct {
	Column string
	Type   string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("no checksum strategy for type %s of column %s", e.Type, e.Column)
}

// ReservedNameError is returned when a caller-supplied column name contains
// the reserved sub-column separator.
type ReservedNameError struct {
	Name string
}

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("column name %q contains the reserved separator %q", e.Name, FieldSeparator)
}

// FieldTypeError is returned when a checksum result carries a value of the
// wrong kind for a generated field, e.g. a digest where an integer count was
// expected. Missing fields are nulls, not errors; a wrong kind means the
// result does not belong to the generated query.
type FieldTypeError struct {
	Field    string
	Expected ValueKind
	Actual   ValueKind
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %s holds a %s value, expected %s", e.Field, e.Actual, e.Expected)
}
