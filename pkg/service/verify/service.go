package verify

import (
	"context"

	"go.verisql.io/verifier/pkg/models"
)

type Service interface {
	Verify(ctx context.Context, table string, columns []*models.Column) (*models.VerificationReport, error)
}

// QueryRunner executes a rendered checksum query against one side. The two
// runners may hit the same cluster (before/after a change) or two different
// ones (migration).
type QueryRunner interface {
	RunChecksumQuery(ctx context.Context, sql string) (*models.ChecksumResult, error)
}
