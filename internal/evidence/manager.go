// File: internal/evidence/manager.go
//
// Package evidence captures and files screenshots for each workflow step.
// Captures are best-effort: a failed capture is logged and omitted from the
// result map, never propagated as a step failure.
package evidence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Page is the capture surface the manager needs from the browser session.
type Page interface {
	Screenshot(ctx context.Context) ([]byte, error)
	FullScreenshot(ctx context.Context) ([]byte, error)
	Evaluate(ctx context.Context, expression string, out any) error
}

// Manager files screenshots under <outputDir>/<taskID>/.
type Manager struct {
	outputDir string
	logger    *zap.Logger
}

// NewManager creates a manager rooted at outputDir. The directory is created
// on first capture, not here.
func NewManager(outputDir string, logger *zap.Logger) *Manager {
	return &Manager{
		outputDir: outputDir,
		logger:    logger.Named("evidence"),
	}
}

// CaptureState records the current UI state for a step. When highlightJSPath
// is non-empty the addressed element gets a temporary outline and label
// before an extra capture, restored afterwards. The returned map keys are
// capture labels (highlighted, viewport, full_page) and values are file
// paths; an empty map means every capture failed.
func (m *Manager) CaptureState(ctx context.Context, page Page, stepName, taskID, annotation, highlightJSPath string) map[string]string {
	taskDir := filepath.Join(m.outputDir, taskID)
	if err := os.MkdirAll(taskDir, 0o755); err != nil {
		m.logger.Error("Failed to create evidence directory", zap.String("dir", taskDir), zap.Error(err))
		return map[string]string{}
	}

	now := time.Now()
	stamp := fmt.Sprintf("%s_%03d", now.Format("20060102_150405"), now.Nanosecond()/1e6)
	result := map[string]string{}

	if highlightJSPath != "" {
		path, err := m.captureWithHighlight(ctx, page, taskDir, stepName, stamp, annotation, highlightJSPath)
		if err != nil {
			m.logger.Debug("Highlight capture failed", zap.Error(err))
		} else {
			result["highlighted"] = path
			m.logger.Info("Captured highlighted", zap.String("file", filepath.Base(path)))
		}
	}

	viewportPath := filepath.Join(taskDir, fmt.Sprintf("%s_%s_viewport.png", stepName, stamp))
	if err := m.capturePNG(ctx, page.Screenshot, viewportPath); err != nil {
		m.logger.Error("Viewport capture failed", zap.Error(err))
	} else {
		result["viewport"] = viewportPath
		m.logger.Info("Captured viewport", zap.String("file", filepath.Base(viewportPath)))
	}

	// Fall back to a full-page capture when the viewport shot is the only
	// evidence collected.
	if len(result) == 1 {
		fullPath := filepath.Join(taskDir, fmt.Sprintf("%s_%s_full.png", stepName, stamp))
		if err := m.capturePNG(ctx, page.FullScreenshot, fullPath); err != nil {
			m.logger.Debug("Full page capture failed", zap.Error(err))
		} else {
			result["full_page"] = fullPath
			m.logger.Info("Captured full page", zap.String("file", filepath.Base(fullPath)))
		}
	}

	return result
}

// CaptureErrorState records the UI at the moment a step failed.
func (m *Manager) CaptureErrorState(ctx context.Context, page Page, stepName, taskID, errMsg string) map[string]string {
	m.logger.Info("Capturing error state", zap.String("error", truncate(errMsg, 100)))
	return m.CaptureState(ctx, page, stepName+"_error", taskID, "error: "+truncate(errMsg, 50), "")
}

func (m *Manager) capturePNG(ctx context.Context, shoot func(context.Context) ([]byte, error), path string) error {
	buf, err := shoot(ctx)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

func (m *Manager) captureWithHighlight(ctx context.Context, page Page, taskDir, stepName, stamp, annotation, jsPath string) (string, error) {
	err := page.Evaluate(ctx, fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el._origOutline = {
			outline: el.style.outline,
			outlineOffset: el.style.outlineOffset,
			boxShadow: el.style.boxShadow,
		};
		el.style.outline = '3px solid #FF6B6B';
		el.style.outlineOffset = '2px';
		el.style.boxShadow = '0 0 10px rgba(255, 107, 107, 0.5)';
		el.scrollIntoView({block: 'center'});
		const desc = %q;
		if (desc) {
			const label = document.createElement('div');
			label.id = '_trailcap_highlight_label';
			label.textContent = desc;
			label.style.cssText = 'position: absolute; background: #FF6B6B; color: white; padding: 4px 8px; border-radius: 4px; font-size: 12px; font-weight: bold; z-index: 10000; pointer-events: none;';
			const rect = el.getBoundingClientRect();
			label.style.left = rect.left + 'px';
			label.style.top = (rect.top - 30) + 'px';
			document.body.appendChild(label);
		}
		return true;
	})()`, jsPath, annotation), nil)
	if err != nil {
		return "", fmt.Errorf("highlight injection failed: %w", err)
	}

	// Let the outline paint before the shot.
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(300 * time.Millisecond):
	}

	path := filepath.Join(taskDir, fmt.Sprintf("%s_%s_highlighted.png", stepName, stamp))
	captureErr := m.capturePNG(ctx, page.Screenshot, path)

	restoreErr := page.Evaluate(ctx, fmt.Sprintf(`(() => {
		const el = %s;
		if (el && el._origOutline) {
			el.style.outline = el._origOutline.outline;
			el.style.outlineOffset = el._origOutline.outlineOffset;
			el.style.boxShadow = el._origOutline.boxShadow;
			delete el._origOutline;
		}
		const label = document.getElementById('_trailcap_highlight_label');
		if (label) label.remove();
		return true;
	})()`, jsPath), nil)
	if restoreErr != nil {
		m.logger.Debug("Highlight restore failed", zap.Error(restoreErr))
	}

	if captureErr != nil {
		return "", captureErr
	}
	return path, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
