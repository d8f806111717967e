// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/webpilot-cli/internal/config"
)

const shutdownGracePeriod = 15 * time.Second

// Manager owns the browser process and hands out tabs.
type Manager struct {
	logger *zap.Logger
	cfg    *config.Config

	allocCtx    context.Context
	allocCancel context.CancelFunc

	mu            sync.Mutex
	browserCtx    context.Context
	browserCancel context.CancelFunc
	sessions      map[string]*Session
}

// NewManager creates the exec allocator. The browser process starts with the first session.
func NewManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) *Manager {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, ExecAllocatorOptions(cfg.Browser)...)
	m := &Manager{
		logger:      logger.Named("browser_manager"),
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		sessions:    make(map[string]*Session),
	}
	m.logger.Debug("Browser manager created (browser start deferred).",
		zap.Bool("headless", cfg.Browser.Headless))
	return m
}

// ExecAllocatorOptions translates the browser config into chromedp allocator options.
func ExecAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := make([]chromedp.ExecAllocatorOption, 0, len(chromedp.DefaultExecAllocatorOptions)+len(cfg.Args)+4)
	opts = append(opts, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		// Required on hardened systems and in containers.
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		// The defaults start headless; this makes the setting explicit either way.
		chromedp.Flag("headless", cfg.Headless),
	)
	if cfg.DisableGPU {
		opts = append(opts, chromedp.DisableGPU)
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	for _, arg := range cfg.Args {
		arg = strings.TrimPrefix(arg, "--")
		if key, value, found := strings.Cut(arg, "="); found {
			opts = append(opts, chromedp.Flag(key, value))
			continue
		}
		opts = append(opts, chromedp.Flag(arg, true))
	}
	return opts
}

// NewSession opens a new tab and waits until it is attached.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ctxOpts []chromedp.ContextOption
	if m.cfg.Browser.Debug {
		ctxOpts = append(ctxOpts, chromedp.WithDebugf(m.logger.Sugar().Debugf))
	}
	ctxOpts = append(ctxOpts, chromedp.WithErrorf(m.logger.Sugar().Errorf))

	parent := m.allocCtx
	if m.browserCtx != nil {
		parent = m.browserCtx
	}
	tabCtx, tabCancel := chromedp.NewContext(parent, ctxOpts...)

	// Run with no actions starts the browser (first tab) or attaches the target.
	startCtx, startCancel := withStepTimeout(tabCtx, ctx, m.cfg.Network.NavigationTimeout)
	defer startCancel()
	if err := chromedp.Run(startCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to start browser tab: %w", err)
	}
	if m.browserCtx == nil {
		m.browserCtx, m.browserCancel = tabCtx, tabCancel
	}

	s := newSession(tabCtx, tabCancel, m.cfg.Network.StepTimeout, m.cfg.Network.NavigationTimeout, m.logger)
	s.listen()
	s.onClose = func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.sessions, s.ID())
		// Closing the first tab stops the browser; the next session starts a new one.
		if m.browserCtx == tabCtx {
			m.browserCtx, m.browserCancel = nil, nil
		}
	}
	m.sessions[s.ID()] = s
	m.logger.Info("New session created.", zap.String("session_id", s.ID()))
	return s, nil
}

// Shutdown closes every open tab and stops the browser process.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	open := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		open = append(open, s)
	}
	browserCtx, browserCancel := m.browserCtx, m.browserCancel
	m.mu.Unlock()

	for _, s := range open {
		if err := s.Close(ctx); err != nil {
			m.logger.Warn("Failed to close session during shutdown.", zap.String("session_id", s.ID()), zap.Error(err))
		}
	}

	if browserCtx != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGracePeriod)
		defer cancel()
		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(browserCtx) }()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			m.logger.Warn("Browser shutdown timed out, proceeding forcefully.")
		}
		browserCancel()
	}

	m.allocCancel()
	m.logger.Debug("Browser manager shut down.")
	return nil
}
