// File: internal/browser/actions.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"
)

// Navigate loads a URL and waits for the document body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Info("Navigating", zap.String("url", url))
	err := s.run(ctx, s.cfg.NavigationTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Click clicks the element addressed by a JSPath expression. If the normal
// click path fails (overlays, zero-size targets), it falls back to a direct
// DOM click on the same element.
func (s *Session) Click(ctx context.Context, jsPath string) error {
	err := s.run(ctx, s.cfg.StabilityTimeout,
		chromedp.ScrollIntoView(jsPath, chromedp.ByJSPath),
		chromedp.WaitVisible(jsPath, chromedp.ByJSPath),
		chromedp.Click(jsPath, chromedp.ByJSPath),
	)
	if err == nil {
		return nil
	}

	s.logger.Debug("Standard click failed, forcing DOM click", zap.Error(err))
	forceErr := s.Evaluate(ctx, fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return false;
		el.scrollIntoView({block: 'center'});
		el.click();
		return true;
	})()`, jsPath), nil)
	if forceErr != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

// Fill types text into the element addressed by jsPath. Plain inputs and
// textareas are cleared and retyped. Contenteditable surfaces get a
// select-all plus delete before typing, since value assignment does not
// work on them.
func (s *Session) Fill(ctx context.Context, jsPath string, text string) error {
	var editable bool
	err := s.Evaluate(ctx, fmt.Sprintf(`(() => {
		const el = %s;
		return !!el && (el.isContentEditable || el.getAttribute('contenteditable') === 'true');
	})()`, jsPath), &editable)
	if err != nil {
		return fmt.Errorf("fill target probe failed: %w", err)
	}

	if editable {
		err = s.Evaluate(ctx, fmt.Sprintf(`(() => {
			const el = %s;
			el.focus();
			document.execCommand('selectAll', false, null);
			document.execCommand('delete', false, null);
			return true;
		})()`, jsPath), nil)
		if err != nil {
			return fmt.Errorf("fill clear failed: %w", err)
		}
		if err := s.TypeSequence(ctx, text); err != nil {
			return fmt.Errorf("fill type failed: %w", err)
		}
		return nil
	}

	err = s.run(ctx, s.cfg.StabilityTimeout,
		chromedp.WaitVisible(jsPath, chromedp.ByJSPath),
		chromedp.Clear(jsPath, chromedp.ByJSPath),
		chromedp.SendKeys(jsPath, text, chromedp.ByJSPath),
	)
	if err != nil {
		return fmt.Errorf("fill failed: %w", err)
	}
	return nil
}

// Hover moves the mouse to the center of the element addressed by jsPath
// and dispatches a real mouse-moved event so hover-triggered UI opens.
func (s *Session) Hover(ctx context.Context, jsPath string) error {
	var rect struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		W float64 `json:"w"`
		H float64 `json:"h"`
	}
	err := s.Evaluate(ctx, fmt.Sprintf(`(() => {
		const el = %s;
		if (!el) return {x: 0, y: 0, w: 0, h: 0};
		el.scrollIntoView({block: 'center'});
		const r = el.getBoundingClientRect();
		return {x: r.x, y: r.y, w: r.width, h: r.height};
	})()`, jsPath), &rect)
	if err != nil {
		return fmt.Errorf("hover target probe failed: %w", err)
	}
	if rect.W == 0 && rect.H == 0 {
		return fmt.Errorf("hover target has no box")
	}

	cx := rect.X + rect.W/2
	cy := rect.Y + rect.H/2
	err = s.run(ctx, s.cfg.StabilityTimeout,
		input.DispatchMouseEvent(input.MouseMoved, cx, cy),
	)
	if err != nil {
		return fmt.Errorf("hover failed: %w", err)
	}
	return nil
}

// PressKey dispatches a single named key to the page. Names follow Chrome
// DevTools conventions (Enter, Escape, ArrowDown, Tab).
func (s *Session) PressKey(ctx context.Context, key string) error {
	code, ok := keyCodes[key]
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	return s.run(ctx, s.cfg.StabilityTimeout, chromedp.KeyEvent(code))
}

var keyCodes = map[string]string{
	"Enter":      kb.Enter,
	"Escape":     kb.Escape,
	"Tab":        kb.Tab,
	"ArrowDown":  kb.ArrowDown,
	"ArrowUp":    kb.ArrowUp,
	"ArrowLeft":  kb.ArrowLeft,
	"ArrowRight": kb.ArrowRight,
	"Backspace":  kb.Backspace,
}

// TypeSequence sends a string of characters to whatever element currently
// holds focus.
func (s *Session) TypeSequence(ctx context.Context, text string) error {
	return s.run(ctx, s.cfg.StabilityTimeout,
		chromedp.SendKeys("document.activeElement", text, chromedp.ByJSPath),
	)
}

// keyDriver is the key-press and page-read surface the menu walk needs,
// split out from Session so the walk logic is testable without a live page.
type keyDriver interface {
	PressKey(ctx context.Context, key string) error
	Evaluate(ctx context.Context, expression string, out any) error
}

// KeyboardNavigateMenu walks an open menu with arrow keys and confirms the
// entry whose visible text contains target. It is the fallback path when a
// menu item cannot be addressed directly.
func (s *Session) KeyboardNavigateMenu(ctx context.Context, target string, maxSteps int) error {
	return keyboardNavigateMenu(ctx, s, target, maxSteps)
}

func keyboardNavigateMenu(ctx context.Context, d keyDriver, target string, maxSteps int) error {
	want := strings.ToLower(strings.TrimSpace(target))
	for i := 0; i < maxSteps; i++ {
		if err := d.PressKey(ctx, "ArrowDown"); err != nil {
			return err
		}
		var focused string
		err := d.Evaluate(ctx, `(() => {
			const el = document.activeElement;
			return el ? (el.textContent || '').trim().toLowerCase() : '';
		})()`, &focused)
		if err != nil {
			return err
		}
		if focused != "" && strings.Contains(focused, want) {
			return d.PressKey(ctx, "Enter")
		}
	}
	return fmt.Errorf("menu item %q not reached after %d steps", target, maxSteps)
}

// WaitForStability blocks until the document reports a complete ready state,
// then pauses briefly to let late renders settle.
func (s *Session) WaitForStability(ctx context.Context) error {
	deadline := time.Now().Add(s.cfg.StabilityTimeout)
	for {
		var state string
		if err := s.Evaluate(ctx, `document.readyState`, &state); err != nil {
			return err
		}
		if state == "complete" {
			break
		}
		if time.Now().After(deadline) {
			s.logger.Debug("Page never reached complete ready state", zap.String("state", state))
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}
	return nil
}

// CurrentURL returns the page's current location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, s.cfg.StabilityTimeout, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Screenshot captures the visible viewport as PNG bytes.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, s.cfg.StabilityTimeout, chromedp.CaptureScreenshot(&buf))
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// FullScreenshot captures the entire page height as PNG bytes.
func (s *Session) FullScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, s.cfg.NavigationTimeout, chromedp.FullScreenshot(&buf, 90))
	if err != nil {
		return nil, fmt.Errorf("full page screenshot failed: %w", err)
	}
	return buf, nil
}
