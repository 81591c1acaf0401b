package checksum

import (
	"go.verisql.io/verifier/pkg/models"
	"go.verisql.io/verifier/pkg/query"
)

// GenerateChecksumQuery builds the single aggregation query that summarizes
// every column of the source relation: a leading row count followed by the
// recursively expanded aggregate set of each column. Field aliases are
// deterministic so the detector can locate every expected field by name.
func (v *Validator) GenerateChecksumQuery(table string, columns []*models.Column) (*query.Query, error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	items := []query.SelectItem{
		{Expr: &query.Call{Name: "count", Star: true}, Alias: rowCountAlias},
	}
	for _, col := range columns {
		colItems, err := v.columnAggregates(col)
		if err != nil {
			return nil, err
		}
		items = append(items, colItems...)
	}
	return &query.Query{Items: items, From: table}, nil
}

// columnAggregates emits the aggregate projections for one column, recursing
// into row types until only leaf columns remain.
func (v *Validator) columnAggregates(col *models.Column) ([]query.SelectItem, error) {
	strategy, err := Classify(col)
	if err != nil {
		return nil, err
	}
	switch strategy {
	case StrategyRow:
		var items []query.SelectItem
		for _, sub := range expandRowColumn(col) {
			subItems, err := v.columnAggregates(sub)
			if err != nil {
				return nil, err
			}
			items = append(items, subItems...)
		}
		return items, nil
	case StrategyScalar:
		return []query.SelectItem{
			{Expr: checksumOf(col.Expression), Alias: col.Name + suffixChecksum},
		}, nil
	case StrategyFloatingPoint:
		return v.floatingPointAggregates(col), nil
	case StrategyOrderableArray:
		return []query.SelectItem{
			{Expr: checksumOf(arraySort(col.Expression)), Alias: col.Name + suffixChecksum},
			{Expr: cardinalitySum(col.Expression), Alias: col.Name + suffixCardinalitySum},
		}, nil
	case StrategyRowArray:
		// The sorted digest is attempted inside the query itself: TRY yields
		// null when the row elements are not totally orderable at runtime,
		// and COALESCE falls back to the unsorted digest.
		sorted := checksumOf(try(arraySort(col.Expression)))
		unsorted := checksumOf(col.Expression)
		return []query.SelectItem{
			{Expr: coalesce(sorted, unsorted), Alias: col.Name + suffixChecksum},
			{Expr: cardinalitySum(col.Expression), Alias: col.Name + suffixCardinalitySum},
		}, nil
	case StrategyNonOrderableArray:
		return []query.SelectItem{
			{Expr: checksumOf(col.Expression), Alias: col.Name + suffixChecksum},
			{Expr: cardinalitySum(col.Expression), Alias: col.Name + suffixCardinalitySum},
		}, nil
	case StrategyOrderableMap:
		return []query.SelectItem{
			{Expr: checksumOf(col.Expression), Alias: col.Name + suffixChecksum},
			{Expr: checksumOf(arraySort(mapKeys(col.Expression))), Alias: col.Name + suffixKeysChecksum},
			{Expr: checksumOf(arraySort(mapValues(col.Expression))), Alias: col.Name + suffixValuesChecksum},
			{Expr: cardinalitySum(col.Expression), Alias: col.Name + suffixCardinalitySum},
		}, nil
	case StrategyNonOrderableMap:
		return []query.SelectItem{
			{Expr: checksumOf(col.Expression), Alias: col.Name + suffixChecksum},
			{Expr: checksumOf(mapKeys(col.Expression)), Alias: col.Name + suffixKeysChecksum},
			{Expr: checksumOf(mapValues(col.Expression)), Alias: col.Name + suffixValuesChecksum},
			{Expr: cardinalitySum(col.Expression), Alias: col.Name + suffixCardinalitySum},
		}, nil
	default:
		return nil, unsupported(col)
	}
}

// floatingPointAggregates sums the finite values and counts NaN and the two
// infinities. Non-double types are cast to double before summation; the
// predicates run on the native type.
func (v *Validator) floatingPointAggregates(col *models.Column) []query.SelectItem {
	sumArg := col.Expression
	if !col.Type.IsDouble() {
		sumArg = &query.Cast{Expr: col.Expression, Type: "double"}
	}
	infinity := &query.Call{Name: "infinity"}
	return []query.SelectItem{
		{
			Expr: &query.Call{
				Name:   "sum",
				Args:   []query.Expression{sumArg},
				Filter: &query.Call{Name: "is_finite", Args: []query.Expression{col.Expression}},
			},
			Alias: col.Name + suffixSum,
		},
		{
			Expr: &query.Call{
				Name:   "count",
				Args:   []query.Expression{col.Expression},
				Filter: &query.Call{Name: "is_nan", Args: []query.Expression{col.Expression}},
			},
			Alias: col.Name + suffixNaNCount,
		},
		{
			Expr: &query.Call{
				Name:   "count",
				Args:   []query.Expression{col.Expression},
				Filter: &query.Compare{Left: col.Expression, Op: "=", Right: infinity},
			},
			Alias: col.Name + suffixPosInfCount,
		},
		{
			Expr: &query.Call{
				Name:   "count",
				Args:   []query.Expression{col.Expression},
				Filter: &query.Compare{Left: col.Expression, Op: "=", Right: &query.Negative{Expr: infinity}},
			},
			Alias: col.Name + suffixNegInfCount,
		},
	}
}

func checksumOf(arg query.Expression) query.Expression {
	return &query.Call{Name: "checksum", Args: []query.Expression{arg}}
}

func arraySort(arg query.Expression) query.Expression {
	return &query.Call{Name: "array_sort", Args: []query.Expression{arg}}
}

func mapKeys(arg query.Expression) query.Expression {
	return &query.Call{Name: "map_keys", Args: []query.Expression{arg}}
}

func mapValues(arg query.Expression) query.Expression {
	return &query.Call{Name: "map_values", Args: []query.Expression{arg}}
}

func try(arg query.Expression) query.Expression {
	return &query.Call{Name: "TRY", Args: []query.Expression{arg}}
}

func coalesce(args ...query.Expression) query.Expression {
	return &query.Call{Name: "COALESCE", Args: args}
}

// cardinalitySum sums per-row cardinalities, treating null collections as
// empty and defaulting to 0 when every row is null.
func cardinalitySum(arg query.Expression) query.Expression {
	sum := &query.Call{
		Name: "sum",
		Args: []query.Expression{
			&query.Call{Name: "cardinality", Args: []query.Expression{arg}},
		},
	}
	return coalesce(sum, &query.IntLiteral{Value: 0})
}
