package checksum

import (
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.verisql.io/verifier/pkg/models"
)

const (
	relativeErrorMargin = 1e-4
	absoluteErrorMargin = 1e-12
)

func digest(bytes ...byte) models.Value {
	return models.DigestValue(models.Digest(bytes))
}

func floatingPointCounts(prefix string) map[string]models.Value {
	return map[string]models.Value{
		prefix + "_nan_count":     models.Int64Value(2),
		prefix + "_pos_inf_count": models.Int64Value(3),
		prefix + "_neg_inf_count": models.Int64Value(4),
	}
}

func merge(maps ...map[string]models.Value) map[string]models.Value {
	out := make(map[string]models.Value)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func messages(results map[string]*models.ColumnMatchResult) map[string]string {
	out := make(map[string]string, len(results))
	for name, result := range results {
		out[name] = result.Message
	}
	return out
}

func TestDetectSimple(t *testing.T) {
	validator := New(relativeErrorMargin, absoluteErrorMargin)
	columns := []*models.Column{
		column(t, "bigint", "bigint"),
		column(t, "varchar", "varchar"),
	}
	control := models.NewChecksumResult(5, map[string]models.Value{
		"bigint_checksum":  digest(0x0a),
		"varchar_checksum": digest(0x0b),
	})

	matched, err := validator.GetMismatchedColumns(columns, control, control)
	require.NoError(t, err)
	assert.Empty(t, matched)

	test := models.NewChecksumResult(5, map[string]models.Value{
		"bigint_checksum":  digest(0x1a),
		"varchar_checksum": digest(0x1b),
	})
	mismatched, err := validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)
	expected := map[string]string{
		"bigint":  "control(checksum: 0a) test(checksum: 1a)",
		"varchar": "control(checksum: 0b) test(checksum: 1b)",
	}
	if diff := deep.Equal(expected, messages(mismatched)); diff != nil {
		t.Error(diff)
	}
	for name, result := range mismatched {
		assert.False(t, result.Matched)
		assert.Equal(t, name, result.Column.Name)
	}
}

func TestDetectFloatingPointCounts(t *testing.T) {
	validator := New(relativeErrorMargin, absoluteErrorMargin)
	columns := []*models.Column{
		column(t, "double", "double"),
		column(t, "real", "real"),
	}
	control := models.NewChecksumResult(5, merge(
		floatingPointCounts("double"), floatingPointCounts("real"),
		map[string]models.Value{
			"double_sum": models.Float64Value(1.0),
			"real_sum":   models.Float64Value(1.0),
		}))

	// Sums inside the relative margin match.
	test := models.NewChecksumResult(5, merge(
		floatingPointCounts("double"), floatingPointCounts("real"),
		map[string]models.Value{
			"double_sum": models.Float64Value(1 + relativeErrorMargin),
			"real_sum":   models.Float64Value(1 - relativeErrorMargin + relativeErrorMargin*relativeErrorMargin),
		}))
	matched, err := validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)
	assert.Empty(t, matched)

	// Differing NaN / infinity counts mismatch regardless of the sums.
	test = models.NewChecksumResult(5, map[string]models.Value{
		"double_sum":           models.Float64Value(1.0),
		"double_nan_count":     models.Int64Value(0),
		"double_pos_inf_count": models.Int64Value(3),
		"double_neg_inf_count": models.Int64Value(4),
		"real_sum":             models.Float64Value(1.0),
		"real_nan_count":       models.Int64Value(2),
		"real_pos_inf_count":   models.Int64Value(0),
		"real_neg_inf_count":   models.Int64Value(4),
	})
	mismatched, err := validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)
	expected := map[string]string{
		"double": "control(NaN: 2, +infinity: 3, -infinity: 4) test(NaN: 0, +infinity: 3, -infinity: 4)",
		"real":   "control(NaN: 2, +infinity: 3, -infinity: 4) test(NaN: 2, +infinity: 0, -infinity: 4)",
	}
	if diff := deep.Equal(expected, messages(mismatched)); diff != nil {
		t.Error(diff)
	}
}

func TestDetectFloatingPointRelativeError(t *testing.T) {
	validator := New(relativeErrorMargin, absoluteErrorMargin)
	columns := []*models.Column{column(t, "real", "real")}
	controlSum, testSum := 1.0, 1-relativeErrorMargin

	control := models.NewChecksumResult(5, merge(floatingPointCounts("real"),
		map[string]models.Value{"real_sum": models.Float64Value(controlSum)}))
	test := models.NewChecksumResult(5, merge(floatingPointCounts("real"),
		map[string]models.Value{"real_sum": models.Float64Value(testSum)}))

	mismatched, err := validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)
	require.Contains(t, mismatched, "real")

	relativeError := math.Abs(controlSum-testSum) / ((math.Abs(controlSum) + math.Abs(testSum)) / 2)
	assert.Greater(t, relativeError, relativeErrorMargin)
	expected := fmt.Sprintf("control(sum: 1) test(sum: 0.9999) relative error: %s",
		strconv.FormatFloat(relativeError, 'g', -1, 64))
	assert.Equal(t, expected, mismatched["real"].Message)
}

func TestDetectFloatingPointWithNull(t *testing.T) {
	validator := New(relativeErrorMargin, absoluteErrorMargin)
	columns := []*models.Column{
		column(t, "double", "double"),
		column(t, "real", "real"),
	}
	control := models.NewChecksumResult(5, merge(
		floatingPointCounts("double"), floatingPointCounts("real"),
		map[string]models.Value{
			"double_sum": models.Float64Value(1.0),
			"real_sum":   models.NullValue,
		}))
	test := models.NewChecksumResult(5, merge(
		floatingPointCounts("double"), floatingPointCounts("real"),
		map[string]models.Value{
			"double_sum": models.NullValue,
			"real_sum":   models.Float64Value(1.0),
		}))

	mismatched, err := validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)
	expected := map[string]string{
		"double": "control(sum: 1) test(sum: null)",
		"real":   "control(sum: null) test(sum: 1)",
	}
	if diff := deep.Equal(expected, messages(mismatched)); diff != nil {
		t.Error(diff)
	}
}

func TestDetectFloatingPointCloseToZero(t *testing.T) {
	validator := New(relativeErrorMargin, absoluteErrorMargin)
	columns := []*models.Column{
		column(t, "double", "double"),
		column(t, "real", "real"),
	}

	// Mean difference 9.8e-13 sits inside the absolute margin.
	control := models.NewChecksumResult(5, merge(
		floatingPointCounts("double"), floatingPointCounts("real"),
		map[string]models.Value{
			"double_sum": models.Float64Value(0.0),
			"real_sum":   models.Float64Value(4.9e-12),
		}))
	test := models.NewChecksumResult(5, merge(
		floatingPointCounts("double"), floatingPointCounts("real"),
		map[string]models.Value{
			"double_sum": models.Float64Value(4.9e-12),
			"real_sum":   models.Float64Value(0.0),
		}))
	matched, err := validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)
	assert.Empty(t, matched)

	// Mean difference 1.02e-12 exceeds it.
	control = models.NewChecksumResult(5, merge(
		floatingPointCounts("double"), floatingPointCounts("real"),
		map[string]models.Value{
			"double_sum": models.Float64Value(0.0),
			"real_sum":   models.Float64Value(5.1e-12),
		}))
	test = models.NewChecksumResult(5, merge(
		floatingPointCounts("double"), floatingPointCounts("real"),
		map[string]models.Value{
			"double_sum": models.Float64Value(5.1e-12),
			"real_sum":   models.Float64Value(0.0),
		}))
	mismatched, err := validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)

	sum, rows := 5.1e-12, 5.0
	mean := strconv.FormatFloat(sum/rows, 'g', -1, 64)
	expected := map[string]string{
		"double": fmt.Sprintf("control(mean: 0) test(mean: %s) difference: %s", mean, mean),
		"real":   fmt.Sprintf("control(mean: %s) test(mean: 0) difference: %s", mean, mean),
	}
	if diff := deep.Equal(expected, messages(mismatched)); diff != nil {
		t.Error(diff)
	}
}

func TestDetectArray(t *testing.T) {
	validator := New(relativeErrorMargin, absoluteErrorMargin)
	columns := []*models.Column{
		column(t, "int_array", "array(int)"),
		column(t, "map_array", "array(map(int, varchar))"),
	}
	control := models.NewChecksumResult(5, map[string]models.Value{
		"int_array_checksum":        digest(0x0a),
		"int_array_cardinality_sum": models.Int64Value(3),
		"map_array_checksum":        digest(0x0b),
		"map_array_cardinality_sum": models.Int64Value(7),
	})

	matched, err := validator.GetMismatchedColumns(columns, control, control)
	require.NoError(t, err)
	assert.Empty(t, matched)

	// Different elements, same cardinalities.
	test := models.NewChecksumResult(5, map[string]models.Value{
		"int_array_checksum":        digest(0x1a),
		"int_array_cardinality_sum": models.Int64Value(3),
		"map_array_checksum":        digest(0x1b),
		"map_array_cardinality_sum": models.Int64Value(7),
	})
	mismatched, err := validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)
	expected := map[string]string{
		"int_array": "control(checksum: 0a, cardinality_sum: 3) test(checksum: 1a, cardinality_sum: 3)",
		"map_array": "control(checksum: 0b, cardinality_sum: 7) test(checksum: 1b, cardinality_sum: 7)",
	}
	if diff := deep.Equal(expected, messages(mismatched)); diff != nil {
		t.Error(diff)
	}

	// Different cardinality sums as well; both differences are reported.
	test = models.NewChecksumResult(5, map[string]models.Value{
		"int_array_checksum":        digest(0x1a),
		"int_array_cardinality_sum": models.Int64Value(2),
		"map_array_checksum":        digest(0x1b),
		"map_array_cardinality_sum": models.Int64Value(5),
	})
	mismatched, err = validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)
	expected = map[string]string{
		"int_array": "control(checksum: 0a, cardinality_sum: 3) test(checksum: 1a, cardinality_sum: 2)",
		"map_array": "control(checksum: 0b, cardinality_sum: 7) test(checksum: 1b, cardinality_sum: 5)",
	}
	if diff := deep.Equal(expected, messages(mismatched)); diff != nil {
		t.Error(diff)
	}
}

func TestDetectMap(t *testing.T) {
	validator := New(relativeErrorMargin, absoluteErrorMargin)
	columns := []*models.Column{column(t, "map", "map(int, varchar)")}
	control := models.NewChecksumResult(5, map[string]models.Value{
		"map_checksum":        digest(0x0a),
		"map_keys_checksum":   digest(0x0b),
		"map_values_checksum": digest(0x0c),
		"map_cardinality_sum": models.Int64Value(3),
	})

	matched, err := validator.GetMismatchedColumns(columns, control, control)
	require.NoError(t, err)
	assert.Empty(t, matched)

	test := models.NewChecksumResult(5, map[string]models.Value{
		"map_checksum":        digest(0x1a),
		"map_keys_checksum":   digest(0x1b),
		"map_values_checksum": digest(0x1c),
		"map_cardinality_sum": models.Int64Value(4),
	})
	mismatched, err := validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)
	expected := "control(checksum: 0a, keys_checksum: 0b, values_checksum: 0c, cardinality_sum: 3) " +
		"test(checksum: 1a, keys_checksum: 1b, values_checksum: 1c, cardinality_sum: 4)"
	require.Contains(t, mismatched, "map")
	assert.Equal(t, expected, mismatched["map"].Message)
	assert.Len(t, mismatched, 1)
}

func TestDetectNonOrderableMap(t *testing.T) {
	validator := New(relativeErrorMargin, absoluteErrorMargin)
	columns := []*models.Column{
		column(t, "m", "map(map(int, varchar), map(int, varchar))"),
	}
	// Same elements in a different stored order digest identically; the
	// unsorted digests are the only ones compared.
	result := models.NewChecksumResult(5, map[string]models.Value{
		"m_checksum":        digest(0x0a),
		"m_keys_checksum":   digest(0x0b),
		"m_values_checksum": digest(0x0c),
		"m_cardinality_sum": models.Int64Value(9),
	})
	matched, err := validator.GetMismatchedColumns(columns, result, result)
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestDetectRow(t *testing.T) {
	validator := New(relativeErrorMargin, absoluteErrorMargin)
	columns := []*models.Column{
		column(t, "row", "row(i int, varchar, d double, a array(int), r row(double, b bigint))"),
	}
	controlFields := map[string]models.Value{
		"row$i_checksum":            digest(0x0a),
		"row$$col2_checksum":        digest(0x0b),
		"row$d_nan_count":           models.Int64Value(2),
		"row$d_pos_inf_count":       models.Int64Value(3),
		"row$d_neg_inf_count":       models.Int64Value(4),
		"row$d_sum":                 models.Float64Value(0.0),
		"row$a_checksum":            digest(0x0c),
		"row$a_cardinality_sum":     models.Int64Value(2),
		"row$r$$col1_nan_count":     models.Int64Value(2),
		"row$r$$col1_pos_inf_count": models.Int64Value(3),
		"row$r$$col1_neg_inf_count": models.Int64Value(4),
		"row$r$$col1_sum":           models.Float64Value(0.0),
		"row$r$b_checksum":          digest(0x0d),
	}
	control := models.NewChecksumResult(5, controlFields)

	matched, err := validator.GetMismatchedColumns(columns, control, control)
	require.NoError(t, err)
	assert.Empty(t, matched)

	// A mismatch confined to row.i and row.r.b reports exactly those two
	// leaves, keyed by the synthesized sub-column names.
	test := models.NewChecksumResult(5, merge(controlFields, map[string]models.Value{
		"row$i_checksum":   digest(0x1a),
		"row$r$b_checksum": digest(0x1d),
	}))
	mismatched, err := validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)
	expected := map[string]string{
		"row$i":   "control(checksum: 0a) test(checksum: 1a)",
		"row$r$b": "control(checksum: 0d) test(checksum: 1d)",
	}
	if diff := deep.Equal(expected, messages(mismatched)); diff != nil {
		t.Error(diff)
	}
	// The leaf sub-columns carry dereference-chain expressions.
	assert.Equal(t, `"row"."i"`, mismatched["row$i"].Column.Expression.SQL())
	assert.Equal(t, `"row"."r"."b"`, mismatched["row$r$b"].Column.Expression.SQL())
}

func TestDetectMissingFieldIsNull(t *testing.T) {
	validator := New(relativeErrorMargin, absoluteErrorMargin)
	columns := []*models.Column{column(t, "bigint", "bigint")}
	control := models.NewChecksumResult(5, map[string]models.Value{
		"bigint_checksum": digest(0x0a),
	})
	test := models.NewChecksumResult(5, map[string]models.Value{})

	mismatched, err := validator.GetMismatchedColumns(columns, control, test)
	require.NoError(t, err)
	require.Contains(t, mismatched, "bigint")
	assert.Equal(t, "control(checksum: 0a) test(checksum: null)", mismatched["bigint"].Message)

	// Null on both sides is equal, not an error.
	matched, err := validator.GetMismatchedColumns(columns, test, test)
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestDetectWrongKindField(t *testing.T) {
	validator := New(relativeErrorMargin, absoluteErrorMargin)
	columns := []*models.Column{column(t, "bigint", "bigint")}
	control := models.NewChecksumResult(5, map[string]models.Value{
		"bigint_checksum": models.Int64Value(7),
	})

	_, err := validator.GetMismatchedColumns(columns, control, control)
	var fieldErr *models.FieldTypeError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "bigint_checksum", fieldErr.Field)
}
