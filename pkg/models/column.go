package models

import (
	"strings"

	"go.verisql.io/verifier/pkg/query"
	"go.verisql.io/verifier/pkg/types"
)

// FieldSeparator joins a row column's name with a named member field;
// PositionalSeparator prefixes the 1-based index of an anonymous member.
// Both are reserved: caller-supplied column names must not contain them,
// otherwise generated field names could collide.
const (
	FieldSeparator      = "$"
	PositionalSeparator = "$$"
)

// Column is one verified column: its name, the expression that references it
// in the generated query, and its declared type. Top-level columns reference
// a plain identifier; synthesized row sub-columns carry a dereference chain.
type Column struct {
	Name       string
	Expression query.Expression
	Type       *types.T
}

// NewColumn builds a caller-supplied column, rejecting names that contain the
// reserved field separators.
func NewColumn(name string, expr query.Expression, t *types.T) (*Column, error) {
	if strings.Contains(name, FieldSeparator) {
		return nil, &ReservedNameError{Name: name}
	}
	return &Column{Name: name, Expression: expr, Type: t}, nil
}

// NewIdentifierColumn builds a column referenced by its own name.
func NewIdentifierColumn(name string, t *types.T) (*Column, error) {
	return NewColumn(name, &query.Identifier{Name: name}, t)
}
