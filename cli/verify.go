package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	yamlLib "gopkg.in/yaml.v3"

	"go.verisql.io/verifier/config"
	"go.verisql.io/verifier/pkg/client"
	"go.verisql.io/verifier/pkg/service/verify"
	"go.verisql.io/verifier/utils"
	"go.verisql.io/verifier/utils/log"
)

// Verify builds the verify subcommand: one run over one table.
func Verify(ctx context.Context, logger *zap.Logger, cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "verify",
		Short:   "run one checksum verification against the control and test clusters",
		Example: `verisql verify --table "tpch.sf1.orders" --columns ./columns.yml`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(logger, cfg, cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd.Context(), logger, cfg)
		},
	}

	cmd.Flags().String("table", cfg.Table, "Qualified name of the source relation to verify")
	cmd.Flags().String("columns", cfg.ColumnsPath, "Path to the YAML file listing the columns to verify")
	cmd.Flags().String("reportPath", cfg.ReportPath, "Path to write the verification report YAML (optional)")
	cmd.Flags().Float64("relativeErrorMargin", cfg.RelativeErrorMargin, "Relative tolerance for floating-point sums")
	cmd.Flags().Float64("absoluteErrorMargin", cfg.AbsoluteErrorMargin, "Absolute tolerance for near-zero floating-point means")
	return cmd
}

// loadConfig merges the verisql.yml file and the bound flags into cfg. The
// engine never reads configuration itself; the margins reach it through the
// validator's constructor.
func loadConfig(logger *zap.Logger, cfg *config.Config, cmd *cobra.Command) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		utils.LogError(logger, err, "failed to bind flags to config")
		return errors.New("failed to bind flags to config")
	}
	if err := viper.BindPFlag("columnsPath", cmd.Flags().Lookup("columns")); err != nil {
		utils.LogError(logger, err, "failed to bind flags to config")
		return errors.New("failed to bind flags to config")
	}
	viper.SetConfigName("verisql")
	viper.SetConfigType("yml")
	viper.AddConfigPath(viper.GetString("configPath"))
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			utils.LogError(logger, err, "failed to read config file")
			return errors.New("failed to read config file")
		}
		logger.Info("config file not found; proceeding with flags only")
	}
	if err := viper.Unmarshal(cfg); err != nil {
		utils.LogError(logger, err, "failed to unmarshal the config")
		return errors.New("failed to unmarshal the config")
	}
	if cfg.Debug {
		debugLogger, err := log.ChangeLogLevel(zap.DebugLevel)
		if err != nil {
			utils.LogError(logger, err, "failed to change log level")
			return errors.New("failed to change log level")
		}
		*logger = *debugLogger
	}
	if cfg.Table == "" {
		return errors.New("missing required --table flag or table in config file")
	}
	if cfg.ColumnsPath == "" {
		return errors.New("missing required --columns flag or columnsPath in config file")
	}
	return nil
}

func runVerify(ctx context.Context, logger *zap.Logger, cfg *config.Config) error {
	columns, err := LoadColumns(cfg.ColumnsPath)
	if err != nil {
		utils.LogError(logger, err, "failed to load column specs", zap.String("path", cfg.ColumnsPath))
		return err
	}

	var token string
	if cfg.Auth.Enabled {
		tokenClient, err := client.NewTokenClient(cfg.Auth.ClientCert, cfg.Auth.ClientKey)
		if err != nil {
			utils.LogError(logger, err, "failed to set up the token client")
			return err
		}
		token, err = tokenClient.GetToken(ctx, cfg.Auth.LoginURL, cfg.Auth.User, cfg.Auth.Group)
		if err != nil {
			utils.LogError(logger, err, "failed to acquire a gateway token")
			return err
		}
	}

	control := client.New(logger, cfg.Control, token)
	test := client.New(logger, cfg.Test, token)
	verifier := verify.New(logger, cfg, control, test)

	report, err := verifier.Verify(ctx, cfg.Table, columns)
	if err != nil {
		return err
	}
	verify.RenderReport(os.Stdout, report)

	if cfg.ReportPath != "" {
		out, err := yamlLib.Marshal(report)
		if err != nil {
			utils.LogError(logger, err, "failed to marshal the verification report")
			return err
		}
		if err := os.WriteFile(cfg.ReportPath, out, 0644); err != nil {
			utils.LogError(logger, err, "failed to write the verification report",
				zap.String("path", cfg.ReportPath))
			return err
		}
	}

	if !report.Matched() {
		return errors.New("verification failed")
	}
	return nil
}
