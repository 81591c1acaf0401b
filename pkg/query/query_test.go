package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpressionSQL(t *testing.T) {
	row := &Identifier{Name: "row"}
	for _, tt := range []struct {
		name string
		expr Expression
		sql  string
	}{
		{"identifier", &Identifier{Name: "col"}, `"col"`},
		{"identifier quoting", &Identifier{Name: `we"ird`}, `"we""ird"`},
		{"dereference", &Dereference{Base: row, Field: "i"}, `"row"."i"`},
		{"subscript", &Subscript{Base: row, Index: 2}, `"row"[2]`},
		{"nested chain", &Dereference{Base: &Dereference{Base: row, Field: "r"}, Field: "b"}, `"row"."r"."b"`},
		{"count star", &Call{Name: "count", Star: true}, `count(*)`},
		{"call", &Call{Name: "checksum", Args: []Expression{row}}, `checksum("row")`},
		{
			"call with filter",
			&Call{
				Name:   "sum",
				Args:   []Expression{row},
				Filter: &Call{Name: "is_finite", Args: []Expression{row}},
			},
			`sum("row") FILTER (WHERE is_finite("row"))`,
		},
		{"cast", &Cast{Expr: row, Type: "double"}, `CAST("row" AS double)`},
		{
			"comparison with negation",
			&Compare{Left: row, Op: "=", Right: &Negative{Expr: &Call{Name: "infinity"}}},
			`("row" = -infinity())`,
		},
		{"int literal", &IntLiteral{Value: 0}, `0`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.sql, tt.expr.SQL())
		})
	}
}

func TestQuerySQL(t *testing.T) {
	q := &Query{
		Items: []SelectItem{
			{Expr: &Call{Name: "count", Star: true}, Alias: "row_count"},
			{Expr: &Call{Name: "checksum", Args: []Expression{&Identifier{Name: "c"}}}, Alias: "c_checksum"},
		},
		From: "tpch.sf1.orders",
	}
	assert.Equal(t,
		`SELECT count(*) AS "row_count", checksum("c") AS "c_checksum" FROM tpch.sf1.orders`,
		q.SQL())
}
