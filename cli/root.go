package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"go.verisql.io/verifier/config"
	"go.verisql.io/verifier/utils"
)

var rootExamples = `
  Verify:
	verisql verify --table "tpch.sf1.orders" --columns ./columns.yml

  Verify with explicit margins:
	verisql verify --table "tpch.sf1.orders" --columns ./columns.yml --relativeErrorMargin 1e-4 --absoluteErrorMargin 1e-12
`

// Root builds the root command and registers the subcommands.
func Root(ctx context.Context, logger *zap.Logger, cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "verisql",
		Short:         "verisql verifies that control and test query runs produce equivalent results",
		Example:       rootExamples,
		Version:       utils.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(`{{with .Version}}{{printf "verisql %s" .}}{{end}}{{"\n"}}`)

	rootCmd.PersistentFlags().Bool("debug", cfg.Debug, "Run in debug mode")
	rootCmd.PersistentFlags().String("configPath", cfg.ConfigPath, "Path to the directory holding the verisql config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		utils.LogError(logger, err, "failed to bind flags to config")
		return nil
	}

	rootCmd.AddCommand(Verify(ctx, logger, cfg))
	return rootCmd
}
