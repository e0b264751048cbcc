// File: internal/browser/session.go
//
// Package browser drives a Chrome instance over the DevTools protocol. The
// Session is the single shared page resource: one capture run owns one
// session, and all per-step reads and actions are issued sequentially
// against it.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mzahir/trailcap/internal/config"
)

// Session represents a single live page driven via chromedp.
type Session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	logger *zap.Logger
	cfg    config.BrowserConfig
}

// NewSession launches a browser and attaches a fresh tab context. The
// session lives until Close or until parentCtx is cancelled.
func NewSession(parentCtx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (*Session, error) {
	sessionID := uuid.New().String()
	log := logger.Named("browser").With(zap.String("session_id", sessionID))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
	)
	if cfg.IgnoreTLSErrors {
		opts = append(opts, chromedp.Flag("ignore-certificate-errors", true))
	}
	for _, arg := range cfg.Args {
		opts = append(opts, chromedp.Flag(arg, true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	// Force browser startup now so failures surface at construction.
	if err := chromedp.Run(taskCtx); err != nil {
		taskCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	log.Info("Browser started",
		zap.Bool("headless", cfg.Headless),
		zap.Int("viewport_width", cfg.ViewportWidth),
		zap.Int("viewport_height", cfg.ViewportHeight),
	)

	cancel := func() {
		taskCancel()
		allocCancel()
	}

	return &Session{
		id:     sessionID,
		ctx:    taskCtx,
		cancel: cancel,
		logger: log,
		cfg:    cfg,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// run executes chromedp actions against the session's page, bounded by the
// given timeout and by the caller's context.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// Evaluate runs a JavaScript expression on the page and unmarshals the
// result into out. Pass nil to discard the result.
func (s *Session) Evaluate(ctx context.Context, expression string, out any) error {
	if out == nil {
		var discard any
		out = &discard
	}
	return s.run(ctx, s.cfg.StabilityTimeout, chromedp.Evaluate(expression, out))
}

// Close shuts down the tab and the browser process.
func (s *Session) Close() {
	s.logger.Info("Closing browser session")
	s.cancel()
}
