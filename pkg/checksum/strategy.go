// Package checksum implements the checksum-query generation and mismatch
// detection engine. One aggregation query per side reduces every column to a
// handful of order-independent summary values; comparing the two summaries
// with type-aware tolerance decides equivalence without moving result sets.
package checksum

import (
	"go.verisql.io/verifier/pkg/models"
)

// Strategy selects how a column type is summarized and compared. The builder
// and the detector both dispatch on it, so the generated field set and the
// expected field set cannot drift apart.
type Strategy int

const (
	// StrategyScalar digests all values of the column.
	StrategyScalar Strategy = iota
	// StrategyFloatingPoint sums finite values and counts NaN and the two
	// infinities, compared with configured tolerance.
	StrategyFloatingPoint
	// StrategyOrderableArray digests the sorted array plus a cardinality sum.
	StrategyOrderableArray
	// StrategyRowArray attempts the sorted digest inside the query and falls
	// back to the unsorted digest when the rows are not totally orderable.
	StrategyRowArray
	// StrategyNonOrderableArray digests the array as stored; no order exists
	// to normalize, so the digest alone compares the multiset.
	StrategyNonOrderableArray
	// StrategyOrderableMap digests the map plus its sorted keys and values.
	StrategyOrderableMap
	// StrategyNonOrderableMap digests the map plus its unsorted keys and
	// values.
	StrategyNonOrderableMap
	// StrategyRow contributes no field itself; the row decomposes into one
	// sub-column per member field, recursively.
	StrategyRow
)

func (s Strategy) String() string {
	switch s {
	case StrategyScalar:
		return "scalar"
	case StrategyFloatingPoint:
		return "floating-point"
	case StrategyOrderableArray:
		return "orderable-array"
	case StrategyRowArray:
		return "row-array"
	case StrategyNonOrderableArray:
		return "non-orderable-array"
	case StrategyOrderableMap:
		return "orderable-map"
	case StrategyNonOrderableMap:
		return "non-orderable-map"
	case StrategyRow:
		return "row"
	default:
		return "unknown"
	}
}

// Classify maps a column's type to its checksum strategy. Orderability is a
// property reported by the type system, never derived structurally here.
func Classify(col *models.Column) (Strategy, error) {
	t := col.Type
	if t == nil || !t.Supported() {
		return 0, unsupported(col)
	}
	switch {
	case t.IsRow():
		return StrategyRow, nil
	case t.IsArray():
		element := t.Element()
		switch {
		case element.IsRow():
			return StrategyRowArray, nil
		case element.Orderable():
			return StrategyOrderableArray, nil
		default:
			return StrategyNonOrderableArray, nil
		}
	case t.IsMap():
		if t.Key().Orderable() && t.Value().Orderable() {
			return StrategyOrderableMap, nil
		}
		return StrategyNonOrderableMap, nil
	case t.IsFloatingPoint():
		return StrategyFloatingPoint, nil
	default:
		return StrategyScalar, nil
	}
}

func unsupported(col *models.Column) error {
	name := "?"
	if col.Type != nil {
		name = col.Type.String()
	}
	return &models.UnsupportedTypeError{Column: col.Name, Type: name}
}

// Field-name suffixes shared by the builder and the detector.
const (
	suffixChecksum       = "_checksum"
	suffixSum            = "_sum"
	suffixNaNCount       = "_nan_count"
	suffixPosInfCount    = "_pos_inf_count"
	suffixNegInfCount    = "_neg_inf_count"
	suffixCardinalitySum = "_cardinality_sum"
	suffixKeysChecksum   = "_keys_checksum"
	suffixValuesChecksum = "_values_checksum"
)

// rowCountAlias names the leading count(*) projection.
const rowCountAlias = "row_count"

// Validator generates checksum queries and detects mismatches between the
// control and test summaries they produce. Stateless apart from the
// configured tolerance margins, so safe for concurrent use.
type Validator struct {
	relativeErrorMargin float64
	absoluteErrorMargin float64
}

// New returns a Validator with the given floating-point tolerance margins.
func New(relativeErrorMargin, absoluteErrorMargin float64) *Validator {
	return &Validator{
		relativeErrorMargin: relativeErrorMargin,
		absoluteErrorMargin: absoluteErrorMargin,
	}
}

// RelativeErrorMargin returns the configured relative tolerance.
func (v *Validator) RelativeErrorMargin() float64 { return v.relativeErrorMargin }

// AbsoluteErrorMargin returns the configured absolute tolerance.
func (v *Validator) AbsoluteErrorMargin() float64 { return v.absoluteErrorMargin }
