// Package query holds the abstract representation of the generated checksum
// query and renders it to SQL text. The engine builds expressions against this
// package instead of concatenating SQL strings directly.
package query

import (
	"fmt"
	"strings"
)

// Expression is a node of the generated aggregation query. SQL returns the
// textual rendering with all identifiers double-quoted.
type Expression interface {
	SQL() string
}

// Identifier references a column of the source relation.
type Identifier struct {
	Name string
}

func (e *Identifier) SQL() string {
	return quote(e.Name)
}

// Dereference accesses a named field of a row-typed expression, e.g. "row"."i".
type Dereference struct {
	Base  Expression
	Field string
}

func (e *Dereference) SQL() string {
	return e.Base.SQL() + "." + quote(e.Field)
}

// Subscript accesses a positional field of a row-typed expression by its
// 1-based index, e.g. "row"[2].
type Subscript struct {
	Base  Expression
	Index int
}

func (e *Subscript) SQL() string {
	return fmt.Sprintf("%s[%d]", e.Base.SQL(), e.Index)
}

// Call is a function or aggregate invocation. Star renders count(*); Filter,
// when set, renders an aggregate FILTER (WHERE ...) clause.
type Call struct {
	Name   string
	Star   bool
	Args   []Expression
	Filter Expression
}

func (e *Call) SQL() string {
	var sb strings.Builder
	sb.WriteString(e.Name)
	if e.Star {
		sb.WriteString("(*)")
	} else {
		sb.WriteString("(")
		for i, arg := range e.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(arg.SQL())
		}
		sb.WriteString(")")
	}
	if e.Filter != nil {
		sb.WriteString(" FILTER (WHERE ")
		sb.WriteString(e.Filter.SQL())
		sb.WriteString(")")
	}
	return sb.String()
}

// Cast renders CAST(expr AS type).
type Cast struct {
	Expr Expression
	Type string
}

func (e *Cast) SQL() string {
	return fmt.Sprintf("CAST(%s AS %s)", e.Expr.SQL(), e.Type)
}

// Compare is a parenthesized binary comparison.
type Compare struct {
	Left  Expression
	Op    string
	Right Expression
}

func (e *Compare) SQL() string {
	return fmt.Sprintf("(%s %s %s)", e.Left.SQL(), e.Op, e.Right.SQL())
}

// Negative renders an arithmetic negation, e.g. -infinity().
type Negative struct {
	Expr Expression
}

func (e *Negative) SQL() string {
	return "-" + e.Expr.SQL()
}

// IntLiteral is an integer constant.
type IntLiteral struct {
	Value int64
}

func (e *IntLiteral) SQL() string {
	return fmt.Sprintf("%d", e.Value)
}

// SelectItem is one projection of the checksum query. The alias carries the
// field name the detector later looks up in the checksum result.
type SelectItem struct {
	Expr  Expression
	Alias string
}

func (s *SelectItem) SQL() string {
	if s.Alias == "" {
		return s.Expr.SQL()
	}
	return s.Expr.SQL() + " AS " + quote(s.Alias)
}

// Query is a single aggregation query over one source relation.
type Query struct {
	Items []SelectItem
	From  string
}

func (q *Query) SQL() string {
	parts := make([]string, len(q.Items))
	for i := range q.Items {
		parts[i] = q.Items[i].SQL()
	}
	return "SELECT " + strings.Join(parts, ", ") + " FROM " + q.From
}

func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
