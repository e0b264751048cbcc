// File: internal/capture/interfaces.go
package capture

import (
	"context"
	"time"

	"github.com/mzahir/trailcap/api/schemas"
	"github.com/mzahir/trailcap/internal/evidence"
	"github.com/mzahir/trailcap/internal/locator"
)

// Browser is the page-driving capability the capturer needs. Implemented by
// the browser session; faked in tests. It embeds the evidence capture
// surface so the same object can be handed to the evidence manager.
type Browser interface {
	evidence.Page

	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, jsPath string) error
	Fill(ctx context.Context, jsPath string, text string) error
	Hover(ctx context.Context, jsPath string) error
	WaitForStability(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
}

// Resolver turns step targets into element handles and exposes the page
// context snapshot the menu decision and planner need.
type Resolver interface {
	Resolve(ctx context.Context, description string, opts locator.Options) (*locator.Handle, error)
	PageContext(ctx context.Context) (*schemas.PageContext, error)
}

// StateService detects UI state transitions between actions.
type StateService interface {
	WaitForChange(ctx context.Context, timeout, pollInterval time.Duration) (bool, error)
}

// Evidence files screenshots for steps. Captures are best-effort and never
// fail a step.
type Evidence interface {
	CaptureState(ctx context.Context, page evidence.Page, stepName, taskID, annotation, highlightJSPath string) map[string]string
	CaptureErrorState(ctx context.Context, page evidence.Page, stepName, taskID, errMsg string) map[string]string
}

// Planner produces the task plan a capture run executes.
type Planner interface {
	ParseQuery(ctx context.Context, query, appName, currentURL string, pageCtx *schemas.PageContext) *schemas.TaskPlan
}
