// Package verify orchestrates one verification run: generate the checksum
// query, execute it against the control and test sides, and compare the two
// summaries.
package verify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go.verisql.io/verifier/config"
	"go.verisql.io/verifier/pkg/checksum"
	"go.verisql.io/verifier/pkg/models"
	"go.verisql.io/verifier/utils"
)

type Verifier struct {
	logger    *zap.Logger
	config    *config.Config
	control   QueryRunner
	test      QueryRunner
	validator *checksum.Validator
}

func New(logger *zap.Logger, cfg *config.Config, control, test QueryRunner) *Verifier {
	return &Verifier{
		logger:    logger,
		config:    cfg,
		control:   control,
		test:      test,
		validator: checksum.New(cfg.RelativeErrorMargin, cfg.AbsoluteErrorMargin),
	}
}

// Verify runs the full flow for one table. The two executions run
// concurrently; the engine itself imposes no ordering beyond both completing
// before comparison.
func (v *Verifier) Verify(ctx context.Context, table string, columns []*models.Column) (*models.VerificationReport, error) {
	q, err := v.validator.GenerateChecksumQuery(table, columns)
	if err != nil {
		utils.LogError(v.logger, err, "failed to generate checksum query", zap.String("table", table))
		return nil, err
	}
	sql := q.SQL()
	v.logger.Debug("generated checksum query", zap.String("table", table), zap.String("sql", sql))

	var controlResult, testResult *models.ChecksumResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		controlResult, err = v.control.RunChecksumQuery(gctx, sql)
		return err
	})
	g.Go(func() error {
		var err error
		testResult, err = v.test.RunChecksumQuery(gctx, sql)
		return err
	})
	if err := g.Wait(); err != nil {
		utils.LogError(v.logger, err, "checksum query execution failed", zap.String("table", table))
		return nil, err
	}

	mismatches, err := v.validator.GetMismatchedColumns(columns, controlResult, testResult)
	if err != nil {
		utils.LogError(v.logger, err, "failed to compare checksum results", zap.String("table", table))
		return nil, err
	}

	report := &models.VerificationReport{
		RunID:           uuid.New().String(),
		Table:           table,
		ControlRowCount: controlResult.RowCount(),
		TestRowCount:    testResult.RowCount(),
		Mismatches:      mismatches,
	}
	if report.Matched() {
		v.logger.Info("verification passed",
			zap.String("table", table),
			zap.Int64("rows", report.ControlRowCount))
	} else {
		v.logger.Warn("verification failed",
			zap.String("table", table),
			zap.Int64("controlRows", report.ControlRowCount),
			zap.Int64("testRows", report.TestRowCount),
			zap.Int("mismatchedColumns", len(mismatches)))
	}
	return report, nil
}
