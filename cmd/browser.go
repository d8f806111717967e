package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/api/schemas"
	"github.com/xkilldash9x/webpilot-cli/internal/browser"
	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

const releaseTimeout = 20 * time.Second

// pageOpener starts a browser tab and returns it with a func that tears the browser down.
type pageOpener func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (schemas.Page, func(context.Context) error, error)

// openPage is swapped in tests.
var openPage pageOpener = openBrowserPage

func openBrowserPage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (schemas.Page, func(context.Context) error, error) {
	mgr := browser.NewManager(ctx, cfg, logger)
	session, err := mgr.NewSession(ctx)
	if err != nil {
		_ = mgr.Shutdown(ctx)
		return nil, nil, fmt.Errorf("failed to start browser: %w", err)
	}
	return session, mgr.Shutdown, nil
}

// pageFlow drives one conversation over an open page. keepOpen asks for the
// browser to stay up after the flow returns.
type pageFlow func(ctx context.Context, page schemas.Page) (keepOpen bool, err error)

// runWithBrowser opens a page, runs flow on it and always releases the browser.
// A headed browser the human chose to keep stays open until ctx is cancelled.
func runWithBrowser(ctx context.Context, cfg *config.Config, logger *zap.Logger, flow pageFlow) error {
	logger = logger.With(zap.String("run_id", uuid.NewString()))

	page, release, err := openPage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			logger.Warn("Failed to shut the browser down cleanly", zap.Error(err))
		}
	}()

	keepOpen, err := flow(ctx, page)
	if err != nil {
		return err
	}
	if keepOpen && !cfg.Browser.Headless {
		logger.Info("Browser left open until interrupted")
		<-ctx.Done()
	}
	return nil
}
