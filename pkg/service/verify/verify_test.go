package verify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go.verisql.io/verifier/config"
	"go.verisql.io/verifier/pkg/models"
	"go.verisql.io/verifier/pkg/types"
)

type fakeRunner struct {
	result *models.ChecksumResult
	err    error
	sql    string
}

func (f *fakeRunner) RunChecksumQuery(_ context.Context, sql string) (*models.ChecksumResult, error) {
	f.sql = sql
	return f.result, f.err
}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.Table = "tpch.sf1.orders"
	return cfg
}

func testColumns(t *testing.T) []*models.Column {
	t.Helper()
	typ, err := types.Parse("bigint")
	require.NoError(t, err)
	col, err := models.NewIdentifierColumn("orderkey", typ)
	require.NoError(t, err)
	return []*models.Column{col}
}

func TestVerifyMatched(t *testing.T) {
	result := models.NewChecksumResult(100, map[string]models.Value{
		"orderkey_checksum": models.DigestValue(models.Digest{0x0a}),
	})
	control := &fakeRunner{result: result}
	test := &fakeRunner{result: result}
	verifier := New(zap.NewNop(), testConfig(), control, test)

	report, err := verifier.Verify(context.Background(), "tpch.sf1.orders", testColumns(t))
	require.NoError(t, err)
	assert.True(t, report.Matched())
	assert.Empty(t, report.Mismatches)
	assert.Equal(t, int64(100), report.ControlRowCount)
	assert.NotEmpty(t, report.RunID)

	// Both sides received the same rendered checksum query.
	assert.Equal(t, control.sql, test.sql)
	assert.True(t, strings.HasPrefix(control.sql, `SELECT count(*) AS "row_count"`), control.sql)
	assert.Contains(t, control.sql, `checksum("orderkey") AS "orderkey_checksum"`)
	assert.True(t, strings.HasSuffix(control.sql, "FROM tpch.sf1.orders"), control.sql)
}

func TestVerifyMismatched(t *testing.T) {
	control := &fakeRunner{result: models.NewChecksumResult(100, map[string]models.Value{
		"orderkey_checksum": models.DigestValue(models.Digest{0x0a}),
	})}
	test := &fakeRunner{result: models.NewChecksumResult(100, map[string]models.Value{
		"orderkey_checksum": models.DigestValue(models.Digest{0x1a}),
	})}
	verifier := New(zap.NewNop(), testConfig(), control, test)

	report, err := verifier.Verify(context.Background(), "tpch.sf1.orders", testColumns(t))
	require.NoError(t, err)
	assert.False(t, report.Matched())
	require.Contains(t, report.Mismatches, "orderkey")
	assert.Equal(t, "control(checksum: 0a) test(checksum: 1a)",
		report.Mismatches["orderkey"].Message)
}

func TestVerifyRowCountMismatch(t *testing.T) {
	result := map[string]models.Value{
		"orderkey_checksum": models.DigestValue(models.Digest{0x0a}),
	}
	control := &fakeRunner{result: models.NewChecksumResult(100, result)}
	test := &fakeRunner{result: models.NewChecksumResult(99, result)}
	verifier := New(zap.NewNop(), testConfig(), control, test)

	report, err := verifier.Verify(context.Background(), "tpch.sf1.orders", testColumns(t))
	require.NoError(t, err)
	assert.False(t, report.Matched())
	assert.Equal(t, int64(100), report.ControlRowCount)
	assert.Equal(t, int64(99), report.TestRowCount)
}

func TestVerifyPropagatesRunnerError(t *testing.T) {
	boom := errors.New("cluster unreachable")
	control := &fakeRunner{err: boom}
	test := &fakeRunner{result: models.NewChecksumResult(1, nil)}
	verifier := New(zap.NewNop(), testConfig(), control, test)

	_, err := verifier.Verify(context.Background(), "tpch.sf1.orders", testColumns(t))
	require.ErrorIs(t, err, boom)
}

func TestVerifyRejectsUnsupportedColumn(t *testing.T) {
	typ, err := types.Parse("hyperloglog")
	require.NoError(t, err)
	col, err := models.NewIdentifierColumn("hll", typ)
	require.NoError(t, err)

	verifier := New(zap.NewNop(), testConfig(), &fakeRunner{}, &fakeRunner{})
	_, err = verifier.Verify(context.Background(), "t", []*models.Column{col})
	var unsupportedErr *models.UnsupportedTypeError
	require.ErrorAs(t, err, &unsupportedErr)
}
