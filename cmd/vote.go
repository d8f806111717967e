package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/collector"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
	"github.com/xkilldash9x/webpilot-cli/internal/extraction"
	"github.com/xkilldash9x/webpilot-cli/internal/llmclient"
	"github.com/xkilldash9x/webpilot-cli/internal/observability"
	"github.com/xkilldash9x/webpilot-cli/internal/prompt"
	"github.com/xkilldash9x/webpilot-cli/internal/voter"
)

// newLLMClient is swapped in tests.
var newLLMClient = llmclient.NewClient

func newVoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote",
		Short: "Check whether you are registered to vote in Ontario",
		Long: `Walks the Ontario voter registration check with you. Your name, birth date
and address are asked in plain words and filled into the form for you.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			return runVote(ctx, cmd, cfg, logger)
		},
	}
}

func runVote(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) error {
	answers, err := config.LoadAnswers(cfg.Vote.DefaultsFile)
	if err != nil {
		return err
	}

	client, err := newLLMClient(ctx, cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to create extraction client: %w", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close extraction client", zap.Error(err))
		}
	}()

	conv := prompt.New(cmd.InOrStdin(), cmd.OutOrStdout(), cfg.Prompt, logger)
	coll := collector.New(conv, extraction.NewLLMExtractor(client, logger), answers, logger,
		collector.Options{MaxRounds: cfg.Prompt.MaxAttempts})

	return runWithBrowser(ctx, cfg, logger, func(ctx context.Context, page schemas.Page) (bool, error) {
		outcome, err := voter.New(page, conv, coll, cfg.Vote, logger,
			voter.WithClosePrompt(!cfg.Browser.Headless)).Run(ctx)
		logger.Info("Registration check finished",
			zap.Stringer("final", outcome.Final),
			zap.Int("states", len(outcome.Path)),
			zap.Bool("registered", outcome.Registration != nil),
		)
		return outcome.KeepOpen, err
	})
}
