package checksum

import (
	"fmt"
	"math"
	"strconv"

	"go.verisql.io/verifier/pkg/models"
)

// GetMismatchedColumns walks the same type-driven recursion as the query
// builder and compares the control and test summaries per leaf column. The
// returned map holds only mismatched (sub-)columns, keyed by the generated
// column name; matched columns are omitted. A mismatch is a normal return
// value, never an error.
func (v *Validator) GetMismatchedColumns(
	columns []*models.Column,
	control *models.ChecksumResult,
	test *models.ChecksumResult,
) (map[string]*models.ColumnMatchResult, error) {
	if err := validateColumns(columns); err != nil {
		return nil, err
	}
	mismatched := make(map[string]*models.ColumnMatchResult)
	for _, col := range columns {
		if err := v.compareColumn(mismatched, col, control, test); err != nil {
			return nil, err
		}
	}
	return mismatched, nil
}

func (v *Validator) compareColumn(
	out map[string]*models.ColumnMatchResult,
	col *models.Column,
	control *models.ChecksumResult,
	test *models.ChecksumResult,
) error {
	strategy, err := Classify(col)
	if err != nil {
		return err
	}
	switch strategy {
	case StrategyRow:
		// Rows never match or mismatch directly; every member field is
		// reported on its own leaf sub-column.
		for _, sub := range expandRowColumn(col) {
			if err := v.compareColumn(out, sub, control, test); err != nil {
				return err
			}
		}
		return nil
	case StrategyScalar:
		return compareScalar(out, col, control, test)
	case StrategyFloatingPoint:
		return v.compareFloatingPoint(out, col, control, test)
	case StrategyOrderableArray, StrategyRowArray, StrategyNonOrderableArray:
		return compareArray(out, col, control, test)
	case StrategyOrderableMap, StrategyNonOrderableMap:
		return compareMap(out, col, control, test)
	default:
		return unsupported(col)
	}
}

func compareScalar(
	out map[string]*models.ColumnMatchResult,
	col *models.Column,
	control, test *models.ChecksumResult,
) error {
	field := col.Name + suffixChecksum
	controlSum, err := digestField(control, field)
	if err != nil {
		return err
	}
	testSum, err := digestField(test, field)
	if err != nil {
		return err
	}
	if valueEqual(controlSum, testSum) {
		return nil
	}
	out[col.Name] = &models.ColumnMatchResult{
		Column: col,
		Message: fmt.Sprintf("control(checksum: %s) test(checksum: %s)",
			controlSum, testSum),
	}
	return nil
}

func (v *Validator) compareFloatingPoint(
	out map[string]*models.ColumnMatchResult,
	col *models.Column,
	control, test *models.ChecksumResult,
) error {
	countSuffixes := []string{suffixNaNCount, suffixPosInfCount, suffixNegInfCount}
	controlCounts := make([]models.Value, len(countSuffixes))
	testCounts := make([]models.Value, len(countSuffixes))
	countsMatch := true
	for i, suffix := range countSuffixes {
		var err error
		if controlCounts[i], err = intField(control, col.Name+suffix); err != nil {
			return err
		}
		if testCounts[i], err = intField(test, col.Name+suffix); err != nil {
			return err
		}
		if !valueEqual(controlCounts[i], testCounts[i]) {
			countsMatch = false
		}
	}
	if !countsMatch {
		out[col.Name] = &models.ColumnMatchResult{
			Column: col,
			Message: fmt.Sprintf(
				"control(NaN: %s, +infinity: %s, -infinity: %s) test(NaN: %s, +infinity: %s, -infinity: %s)",
				controlCounts[0], controlCounts[1], controlCounts[2],
				testCounts[0], testCounts[1], testCounts[2]),
		}
		return nil
	}

	field := col.Name + suffixSum
	controlSum, err := floatField(control, field)
	if err != nil {
		return err
	}
	testSum, err := floatField(test, field)
	if err != nil {
		return err
	}
	if controlSum.IsNull() && testSum.IsNull() {
		return nil
	}
	if controlSum.IsNull() || testSum.IsNull() {
		out[col.Name] = &models.ColumnMatchResult{
			Column:  col,
			Message: fmt.Sprintf("control(sum: %s) test(sum: %s)", controlSum, testSum),
		}
		return nil
	}

	cs, _ := controlSum.Float64()
	ts, _ := testSum.Float64()
	controlMean := cs / float64(control.RowCount())
	testMean := ts / float64(test.RowCount())

	// Two-tier policy: when either mean sits at or near zero the relative
	// error blows up, so the absolute margin is checked on the means first.
	if math.Min(math.Abs(controlMean), math.Abs(testMean)) < v.absoluteErrorMargin {
		difference := math.Abs(controlMean - testMean)
		if difference > v.absoluteErrorMargin {
			out[col.Name] = &models.ColumnMatchResult{
				Column: col,
				Message: fmt.Sprintf("control(mean: %s) test(mean: %s) difference: %s",
					formatFloat(controlMean), formatFloat(testMean), formatFloat(difference)),
			}
		}
		return nil
	}

	relativeError := math.Abs(cs-ts) / ((math.Abs(cs) + math.Abs(ts)) / 2)
	if relativeError > v.relativeErrorMargin {
		out[col.Name] = &models.ColumnMatchResult{
			Column: col,
			Message: fmt.Sprintf("control(sum: %s) test(sum: %s) relative error: %s",
				formatFloat(cs), formatFloat(ts), formatFloat(relativeError)),
		}
	}
	return nil
}

func compareArray(
	out map[string]*models.ColumnMatchResult,
	col *models.Column,
	control, test *models.ChecksumResult,
) error {
	checksumField := col.Name + suffixChecksum
	cardinalityField := col.Name + suffixCardinalitySum
	controlChecksum, err := digestField(control, checksumField)
	if err != nil {
		return err
	}
	testChecksum, err := digestField(test, checksumField)
	if err != nil {
		return err
	}
	controlCardinality, err := intField(control, cardinalityField)
	if err != nil {
		return err
	}
	testCardinality, err := intField(test, cardinalityField)
	if err != nil {
		return err
	}
	if valueEqual(controlChecksum, testChecksum) && valueEqual(controlCardinality, testCardinality) {
		return nil
	}
	out[col.Name] = &models.ColumnMatchResult{
		Column: col,
		Message: fmt.Sprintf(
			"control(checksum: %s, cardinality_sum: %s) test(checksum: %s, cardinality_sum: %s)",
			controlChecksum, controlCardinality, testChecksum, testCardinality),
	}
	return nil
}

func compareMap(
	out map[string]*models.ColumnMatchResult,
	col *models.Column,
	control, test *models.ChecksumResult,
) error {
	controlValues := make([]models.Value, 4)
	testValues := make([]models.Value, 4)
	var err error
	for i, suffix := range []string{suffixChecksum, suffixKeysChecksum, suffixValuesChecksum} {
		if controlValues[i], err = digestField(control, col.Name+suffix); err != nil {
			return err
		}
		if testValues[i], err = digestField(test, col.Name+suffix); err != nil {
			return err
		}
	}
	if controlValues[3], err = intField(control, col.Name+suffixCardinalitySum); err != nil {
		return err
	}
	if testValues[3], err = intField(test, col.Name+suffixCardinalitySum); err != nil {
		return err
	}
	for i := range controlValues {
		if !valueEqual(controlValues[i], testValues[i]) {
			// One differing field reports all four together.
			out[col.Name] = &models.ColumnMatchResult{
				Column: col,
				Message: fmt.Sprintf(
					"control(checksum: %s, keys_checksum: %s, values_checksum: %s, cardinality_sum: %s) "+
						"test(checksum: %s, keys_checksum: %s, values_checksum: %s, cardinality_sum: %s)",
					controlValues[0], controlValues[1], controlValues[2], controlValues[3],
					testValues[0], testValues[1], testValues[2], testValues[3]),
			}
			return nil
		}
	}
	return nil
}

// digestField reads a field expected to hold a digest; absence is null,
// any other kind is a FieldTypeError.
func digestField(r *models.ChecksumResult, name string) (models.Value, error) {
	return typedField(r, name, models.KindDigest)
}

func intField(r *models.ChecksumResult, name string) (models.Value, error) {
	return typedField(r, name, models.KindInt64)
}

func floatField(r *models.ChecksumResult, name string) (models.Value, error) {
	return typedField(r, name, models.KindFloat64)
}

func typedField(r *models.ChecksumResult, name string, kind models.ValueKind) (models.Value, error) {
	value := r.Field(name)
	if value.IsNull() || value.Kind() == kind {
		return value, nil
	}
	return value, &models.FieldTypeError{Field: name, Expected: kind, Actual: value.Kind()}
}

// valueEqual compares two same-kind values: nulls equal each other and
// nothing else.
func valueEqual(a, b models.Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case models.KindInt64:
		av, _ := a.Int64()
		bv, _ := b.Int64()
		return av == bv
	case models.KindFloat64:
		av, _ := a.Float64()
		bv, _ := b.Float64()
		return av == bv
	case models.KindDigest:
		av, _ := a.Digest()
		bv, _ := b.Digest()
		return av.Equal(bv)
	default:
		return false
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
