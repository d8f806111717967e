package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/groundhog"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
	"github.com/xkilldash9x/webpilot-cli/internal/prompt"
)

func newGroundhogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "groundhog",
		Short: "Look up a groundhog's prediction for a given year",
		Long: `Opens groundhog-day.com, narrows the groundhog list down to the one you
name, then reports its prediction for the year you pick.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			conv := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Prompt, logger)

			return runWithBrowser(ctx, cfg, logger, func(ctx context.Context, page schemas.Page) (bool, error) {
				res, err := groundhog.NewFlow(page, conv, cfg.Groundhog, cfg.Prompt.MaxAttempts, logger).Run(ctx)
				if err != nil {
					return false, err
				}
				logger.Info("Prediction found",
					zap.String("groundhog", res.Groundhog),
					zap.String("year", res.Year),
				)
				return false, nil
			})
		},
	}
}
