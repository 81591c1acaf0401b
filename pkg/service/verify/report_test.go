package verify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"go.verisql.io/verifier/pkg/models"
)

func TestRenderReportMatched(t *testing.T) {
	var buf bytes.Buffer
	RenderReport(&buf, &models.VerificationReport{
		Table:           "tpch.sf1.orders",
		ControlRowCount: 100,
		TestRowCount:    100,
	})
	assert.Contains(t, buf.String(), "verified")
	assert.Contains(t, buf.String(), "100 rows")
}

func TestRenderReportMismatched(t *testing.T) {
	var buf bytes.Buffer
	RenderReport(&buf, &models.VerificationReport{
		Table:           "tpch.sf1.orders",
		ControlRowCount: 100,
		TestRowCount:    99,
		Mismatches: map[string]*models.ColumnMatchResult{
			"orderkey": {Message: "control(checksum: 0a) test(checksum: 1a)"},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "failed verification")
	assert.Contains(t, out, "control 100, test 99")
	assert.Contains(t, out, "orderkey")
	assert.Contains(t, out, "control(checksum: 0a) test(checksum: 1a)")
}
