// internal/browser/session.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/wayfind-agent/wayfind/api/schemas"
	"github.com/wayfind-agent/wayfind/internal/config"
)

const shutdownTimeout = 15 * time.Second

// Session is the single shared browser the search drives. All tree states
// replay through this one stateful instance, so every public operation takes
// an internal semaphore; callers never see a half-executed task.
type Session struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	sem *semaphore.Weighted
}

// NewSession launches the browser process and opens the working tab.
func NewSession(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	allocOpts := execAllocatorOptions(cfg)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)

	tabOpts := []chromedp.ContextOption{}
	if cfg.Debug {
		tabOpts = append(tabOpts, chromedp.WithDebugf(func(format string, args ...interface{}) {
			logger.Sugar().Debugf(format, args...)
		}))
	}
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, tabOpts...)

	s := &Session{
		cfg:         cfg,
		logger:      logger.Named("browser"),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		sem:         semaphore.NewWeighted(1),
	}

	// Starting the browser eagerly surfaces launch failures at construction
	// time instead of on the first navigation.
	startCtx, cancel := context.WithTimeout(tabCtx, cfg.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(startCtx, emulation.SetDeviceMetricsOverride(
		int64(cfg.ViewportWidth), int64(cfg.ViewportHeight), 1, false,
	)); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	s.logger.Info("Browser session started.",
		zap.Bool("headless", cfg.Headless),
		zap.Int("viewport_width", cfg.ViewportWidth),
		zap.Int("viewport_height", cfg.ViewportHeight),
	)
	return s, nil
}

// execAllocatorOptions translates the browser configuration into chromedp
// allocator options. key=value args become flags, bare args boolean flags.
func execAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-dev-shm-usage", true),
	}
	if cfg.Headless {
		opts = append(opts, chromedp.Headless)
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	for _, arg := range cfg.Args {
		key, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}
	return opts
}

// Close shuts the browser down, waiting up to shutdownTimeout for the
// process to exit before cancelling the contexts outright.
func (s *Session) Close() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Cancel(s.tabCtx)
	}()

	var err error
	select {
	case err = <-done:
		if err == context.Canceled && s.tabCtx.Err() != nil {
			err = nil
		}
	case <-shutdownCtx.Done():
		s.logger.Warn("Browser shutdown timed out; cancelling contexts forcefully.")
	}

	s.tabCancel()
	s.allocCancel()
	s.logger.Info("Browser session closed.")
	return err
}

// GotoHomepage navigates back to the configured homepage and reports the
// settled observation. The search calls this before every iteration so each
// replayed trajectory starts from the same page.
func (s *Session) GotoHomepage(ctx context.Context) (schemas.PageObservation, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return schemas.PageObservation{}, err
	}
	defer s.sem.Release(1)

	if err := s.navigate(ctx, s.cfg.Homepage, s.cfg.NavigationTimeout); err != nil {
		return schemas.PageObservation{}, fmt.Errorf("navigating to homepage: %w", err)
	}
	return s.harvestObservation(ctx)
}

// ExecuteTask runs each elementary action of the task in order and then
// harvests the resulting observation. A failing action is retried per the
// configuration; exhausted retries fail the whole task.
func (s *Session) ExecuteTask(ctx context.Context, task schemas.TaskWithActions) (schemas.PageObservation, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return schemas.PageObservation{}, err
	}
	defer s.sem.Release(1)

	s.logger.Debug("Executing task.",
		zap.Int("task_id", task.ID),
		zap.String("description", task.Description),
		zap.Int("actions", len(task.Actions)),
	)

	for i, action := range task.Actions {
		if err := s.executeWithRetry(ctx, action); err != nil {
			return schemas.PageObservation{}, fmt.Errorf("action %d/%d (%s) failed: %w",
				i+1, len(task.Actions), action.Kind(), err)
		}
	}

	if err := s.settle(ctx, time.Second); err != nil {
		return schemas.PageObservation{}, err
	}
	return s.harvestObservation(ctx)
}

// Observe harvests the current page without executing anything.
func (s *Session) Observe(ctx context.Context) (schemas.PageObservation, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return schemas.PageObservation{}, err
	}
	defer s.sem.Release(1)

	return s.harvestObservation(ctx)
}

// Screenshot captures a fresh screenshot of the current page, base64 encoded.
func (s *Session) Screenshot(ctx context.Context) (string, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer s.sem.Release(1)

	return s.captureScreenshot(ctx)
}

func (s *Session) navigate(ctx context.Context, target string, timeout time.Duration) error {
	navCtx, cancel := s.opContext(ctx, timeout)
	defer cancel()
	return chromedp.Run(navCtx, chromedp.Navigate(target))
}

// opContext derives a chromedp-compatible context that also honors the
// caller's deadline and cancellation.
func (s *Session) opContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}
