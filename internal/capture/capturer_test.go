// File: internal/capture/capturer_test.go
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mzahir/trailcap/api/schemas"
	"github.com/mzahir/trailcap/internal/config"
	"github.com/mzahir/trailcap/internal/evidence"
	"github.com/mzahir/trailcap/internal/locator"
)

// -- fakes --

type fakeBrowser struct {
	url       string
	clickErr  error
	fillErr   error
	hoverErr  error
	clicked   []string
	filled    map[string]string
	navigated []string
}

func (b *fakeBrowser) Navigate(ctx context.Context, url string) error {
	b.navigated = append(b.navigated, url)
	b.url = url
	return nil
}
func (b *fakeBrowser) Click(ctx context.Context, jsPath string) error {
	b.clicked = append(b.clicked, jsPath)
	return b.clickErr
}
func (b *fakeBrowser) Fill(ctx context.Context, jsPath, text string) error {
	if b.fillErr != nil {
		return b.fillErr
	}
	if b.filled == nil {
		b.filled = map[string]string{}
	}
	b.filled[jsPath] = text
	return nil
}
func (b *fakeBrowser) Hover(ctx context.Context, jsPath string) error     { return b.hoverErr }
func (b *fakeBrowser) WaitForStability(ctx context.Context) error         { return nil }
func (b *fakeBrowser) CurrentURL(ctx context.Context) (string, error)     { return b.url, nil }
func (b *fakeBrowser) Screenshot(ctx context.Context) ([]byte, error)     { return []byte("png"), nil }
func (b *fakeBrowser) FullScreenshot(ctx context.Context) ([]byte, error) { return []byte("png"), nil }
func (b *fakeBrowser) Evaluate(ctx context.Context, expr string, out any) error {
	return nil
}

type resolveCall struct {
	target string
	inMenu bool
}

type fakeResolver struct {
	// handles maps target -> handle; missing targets are unresolvable.
	handles map[string]*locator.Handle
	// resolveAfter makes a target resolvable only from the Nth call for it.
	resolveAfter map[string]int
	calls        []resolveCall
	perTarget    map[string]int
	pageCtx      *schemas.PageContext
	// pageCtxSeq serves page contexts in call order, repeating the last one
	// when exhausted. Takes precedence over pageCtx.
	pageCtxSeq   []*schemas.PageContext
	pageCtxCalls int
}

func (r *fakeResolver) Resolve(ctx context.Context, description string, opts locator.Options) (*locator.Handle, error) {
	r.calls = append(r.calls, resolveCall{description, opts.InMenu})
	if r.perTarget == nil {
		r.perTarget = map[string]int{}
	}
	r.perTarget[description]++
	if after, ok := r.resolveAfter[description]; ok && r.perTarget[description] < after {
		return nil, locator.ErrNotFound
	}
	if h, ok := r.handles[description]; ok {
		return h, nil
	}
	return nil, locator.ErrNotFound
}

func (r *fakeResolver) PageContext(ctx context.Context) (*schemas.PageContext, error) {
	if len(r.pageCtxSeq) > 0 {
		idx := r.pageCtxCalls
		if idx >= len(r.pageCtxSeq) {
			idx = len(r.pageCtxSeq) - 1
		}
		r.pageCtxCalls++
		return r.pageCtxSeq[idx], nil
	}
	if r.pageCtx == nil {
		return &schemas.PageContext{}, nil
	}
	return r.pageCtx, nil
}

type fakeState struct {
	changed bool
}

func (s *fakeState) WaitForChange(ctx context.Context, timeout, pollInterval time.Duration) (bool, error) {
	return s.changed, nil
}

type fakeEvidence struct {
	captures []string
}

func (e *fakeEvidence) CaptureState(ctx context.Context, page evidence.Page, stepName, taskID, annotation, highlightJSPath string) map[string]string {
	e.captures = append(e.captures, stepName)
	return map[string]string{"viewport": stepName + ".png"}
}

func (e *fakeEvidence) CaptureErrorState(ctx context.Context, page evidence.Page, stepName, taskID, errMsg string) map[string]string {
	e.captures = append(e.captures, stepName+"_error")
	return map[string]string{"viewport": stepName + "_error.png"}
}

type fakePlanner struct {
	plan *schemas.TaskPlan
}

func (p *fakePlanner) ParseQuery(ctx context.Context, query, appName, currentURL string, pageCtx *schemas.PageContext) *schemas.TaskPlan {
	return p.plan
}

func handleFor(target string) *locator.Handle {
	return &locator.Handle{
		JSPath:   fmt.Sprintf("document.getElementById(%q)", target),
		Strategy: "exact_match",
	}
}

func testCaptureConfig(t *testing.T) config.CaptureConfig {
	t.Helper()
	return config.CaptureConfig{
		OutputDir:            t.TempDir(),
		MaxConsecutiveErrors: 2,
		StateChangeTimeout:   10 * time.Millisecond,
		StatePollInterval:    time.Millisecond,
		MenuRetryDelay:       time.Millisecond,
		PostClickWait:        time.Millisecond,
		InitialSettleWait:    0,
	}
}

func newTestCapturer(t *testing.T, browser *fakeBrowser, resolver *fakeResolver, state *fakeState, planner *fakePlanner) (*Capturer, *Store, *fakeEvidence) {
	t.Helper()
	cfg := testCaptureConfig(t)
	store := NewStore(cfg.OutputDir)
	ev := &fakeEvidence{}
	c := NewCapturer(browser, resolver, state, ev, planner, store, cfg, zap.NewNop())
	return c, store, ev
}

// -- tests --

func TestCaptureWorkflowHappyPath(t *testing.T) {
	browser := &fakeBrowser{}
	resolver := &fakeResolver{handles: map[string]*locator.Handle{
		"Create":          handleFor("create"),
		"Task":            handleFor("task"),
		"contenteditable": handleFor("editor"),
	}}
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		App: "asana", Action: "create", Entity: "task",
		Steps: []schemas.StepPlan{
			{ActionType: schemas.ActionClick, Target: "Create", Description: "open create menu"},
			{ActionType: schemas.ActionWait, Value: "0.01", Description: "wait for menu"},
			{ActionType: schemas.ActionSelectMenu, Target: "Task", Description: "select Task from menu"},
			{ActionType: schemas.ActionFill, Target: "contenteditable", Value: "Ship it", Description: "name the task"},
		},
	}}
	c, store, _ := newTestCapturer(t, browser, resolver, &fakeState{changed: true}, planner)

	record, err := c.CaptureWorkflow(context.Background(), "create a task", "https://app.asana.com", "t1")
	require.NoError(t, err)

	assert.Equal(t, schemas.WorkflowCompleted, record.Status)
	assert.Equal(t, "asana", record.App)
	// Step 0 plus the four planned steps.
	require.Len(t, record.Steps, 5)
	assert.Equal(t, 0, record.Steps[0].StepNumber)
	assert.Equal(t, "initial_state", record.Steps[0].Name)

	click := record.Steps[1]
	assert.Equal(t, schemas.StepSuccess, click.Status)
	assert.True(t, click.StateChanged)
	assert.NotEmpty(t, click.ScreenshotsBefore)
	assert.NotEmpty(t, click.ScreenshotsAfter)

	wait := record.Steps[2]
	assert.Equal(t, schemas.ActionWait, wait.ActionType)
	assert.InDelta(t, 0.01, wait.DurationSeconds, 1e-9)

	fill := record.Steps[4]
	assert.Equal(t, "Ship it", fill.Value)
	assert.Equal(t, "Ship it", browser.filled[handleFor("editor").JSPath])

	// The record landed on disk, including evidence references.
	loaded, err := store.LoadRecord("t1")
	require.NoError(t, err)
	assert.Equal(t, record.TaskID, loaded.TaskID)
	assert.Len(t, loaded.Steps, 5)
}

func TestCircuitBreakerHaltsAfterConsecutiveErrors(t *testing.T) {
	browser := &fakeBrowser{}
	resolver := &fakeResolver{} // nothing resolves
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		Steps: []schemas.StepPlan{
			{ActionType: schemas.ActionClick, Target: "Ghost one", Description: "click a"},
			{ActionType: schemas.ActionClick, Target: "Ghost two", Description: "click b"},
			{ActionType: schemas.ActionClick, Target: "Ghost three", Description: "click c"},
		},
	}}
	c, store, _ := newTestCapturer(t, browser, resolver, &fakeState{}, planner)

	record, err := c.CaptureWorkflow(context.Background(), "do things", "https://app.test", "t2")
	require.NoError(t, err)

	assert.Equal(t, schemas.WorkflowHalted, record.Status)
	// Step 0 plus exactly two error entries; the third planned step never ran.
	require.Len(t, record.Steps, 3)
	assert.Equal(t, schemas.StepError, record.Steps[1].Status)
	assert.Equal(t, schemas.StepError, record.Steps[2].Status)
	assert.Contains(t, record.Steps[1].Error, "element not found")

	// Halted runs still persist their record.
	loaded, err := store.LoadRecord("t2")
	require.NoError(t, err)
	assert.Equal(t, schemas.WorkflowHalted, loaded.Status)
}

func TestBreakerResetsOnSuccess(t *testing.T) {
	browser := &fakeBrowser{}
	resolver := &fakeResolver{handles: map[string]*locator.Handle{
		"Save": handleFor("save"),
	}}
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		Steps: []schemas.StepPlan{
			{ActionType: schemas.ActionClick, Target: "Ghost", Description: "click a"},
			{ActionType: schemas.ActionClick, Target: "Save", Description: "click save"},
			{ActionType: schemas.ActionClick, Target: "Ghost", Description: "click b"},
			{ActionType: schemas.ActionClick, Target: "Save", Description: "click save again"},
		},
	}}
	c, _, _ := newTestCapturer(t, browser, resolver, &fakeState{}, planner)

	record, err := c.CaptureWorkflow(context.Background(), "do things", "https://app.test", "t3")
	require.NoError(t, err)

	// Errors never accumulate to the threshold because successes intervene.
	assert.Equal(t, schemas.WorkflowCompleted, record.Status)
	require.Len(t, record.Steps, 5)
}

func TestUnresolvedFillSkipsInsteadOferroring(t *testing.T) {
	browser := &fakeBrowser{}
	resolver := &fakeResolver{}
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		Steps: []schemas.StepPlan{
			{ActionType: schemas.ActionFill, Target: "Ghost field", Value: "x", Description: "fill a"},
			{ActionType: schemas.ActionFill, Target: "Ghost field", Value: "x", Description: "fill b"},
			{ActionType: schemas.ActionFill, Target: "Ghost field", Value: "x", Description: "fill c"},
		},
	}}
	c, _, _ := newTestCapturer(t, browser, resolver, &fakeState{}, planner)

	record, err := c.CaptureWorkflow(context.Background(), "fill things", "https://app.test", "t4")
	require.NoError(t, err)

	// Skips never trip the breaker: all three planned steps ran.
	assert.Equal(t, schemas.WorkflowCompleted, record.Status)
	require.Len(t, record.Steps, 4)
	for _, step := range record.Steps[1:] {
		assert.Equal(t, schemas.StepSkipped, step.Status)
		assert.Equal(t, schemas.SkipReasonNotFillable, step.SkipReason)
	}
}

func TestCustomElementFillFailureSkips(t *testing.T) {
	browser := &fakeBrowser{fillErr: errors.New("element is not an input")}
	resolver := &fakeResolver{handles: map[string]*locator.Handle{
		"editor": handleFor("editor"),
	}}
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		Steps: []schemas.StepPlan{
			{ActionType: schemas.ActionFill, Target: "editor", Value: "/database", Description: "type slash command"},
		},
	}}
	c, _, _ := newTestCapturer(t, browser, resolver, &fakeState{}, planner)

	record, err := c.CaptureWorkflow(context.Background(), "add database", "https://notion.so", "t5")
	require.NoError(t, err)

	require.Len(t, record.Steps, 2)
	step := record.Steps[1]
	assert.Equal(t, schemas.StepSkipped, step.Status)
	assert.Equal(t, schemas.SkipReasonCustomElement, step.SkipReason)
	assert.NotEmpty(t, step.ScreenshotsBefore)
}

func TestMenuRetryAfterSettleDelay(t *testing.T) {
	browser := &fakeBrowser{}
	resolver := &fakeResolver{
		handles:      map[string]*locator.Handle{"Database": handleFor("db")},
		resolveAfter: map[string]int{"Database": 2},
	}
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		Steps: []schemas.StepPlan{
			{ActionType: schemas.ActionSelectMenu, Target: "Database", Description: "select Database from menu"},
		},
	}}
	c, _, _ := newTestCapturer(t, browser, resolver, &fakeState{changed: true}, planner)

	record, err := c.CaptureWorkflow(context.Background(), "add database", "https://notion.so", "t6")
	require.NoError(t, err)

	require.Len(t, record.Steps, 2)
	assert.Equal(t, schemas.StepSuccess, record.Steps[1].Status)

	// Exactly two resolution attempts, the forced retry in menu context.
	require.Len(t, resolver.calls, 2)
	assert.True(t, resolver.calls[0].inMenu)
	assert.True(t, resolver.calls[1].inMenu)
}

func TestMenuContextFromDescription(t *testing.T) {
	browser := &fakeBrowser{}
	resolver := &fakeResolver{handles: map[string]*locator.Handle{
		"Task": handleFor("task"),
	}}
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		Steps: []schemas.StepPlan{
			{ActionType: schemas.ActionClick, Target: "Task", Description: "pick Task from the create menu"},
		},
	}}
	c, _, _ := newTestCapturer(t, browser, resolver, &fakeState{}, planner)

	_, err := c.CaptureWorkflow(context.Background(), "create task", "https://app.test", "t7")
	require.NoError(t, err)

	require.NotEmpty(t, resolver.calls)
	assert.True(t, resolver.calls[0].inMenu)
}

func TestMenuOpenedAfterClickMergesEvidence(t *testing.T) {
	browser := &fakeBrowser{}
	resolver := &fakeResolver{
		handles: map[string]*locator.Handle{"Add": handleFor("add")},
		// No menu before the click, one appears right after it.
		pageCtxSeq: []*schemas.PageContext{
			{},
			{},
			{UIState: schemas.UIState{HasMenu: true, MenuCount: 1}},
		},
	}
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		Steps: []schemas.StepPlan{
			{ActionType: schemas.ActionClick, Target: "Add", Description: "press the add button"},
		},
	}}
	c, _, ev := newTestCapturer(t, browser, resolver, &fakeState{changed: true}, planner)

	record, err := c.CaptureWorkflow(context.Background(), "add something", "https://app.test", "t11")
	require.NoError(t, err)

	require.Len(t, record.Steps, 2)
	step := record.Steps[1]
	assert.Equal(t, schemas.StepSuccess, step.Status)

	// The menu capture was folded into the before-evidence of the click that
	// opened it.
	assert.Contains(t, ev.captures, "step_1_menu")
	assert.Equal(t, "step_1_menu.png", step.ScreenshotsBefore["viewport"])
	assert.Equal(t, "step_1_Bafter.png", step.ScreenshotsAfter["viewport"])
}

func TestNoMenuEvidenceMergeInMenuContext(t *testing.T) {
	browser := &fakeBrowser{}
	resolver := &fakeResolver{
		handles: map[string]*locator.Handle{"Task": handleFor("task")},
		pageCtx: &schemas.PageContext{UIState: schemas.UIState{HasMenu: true, MenuCount: 1}},
	}
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		Steps: []schemas.StepPlan{
			{ActionType: schemas.ActionSelectMenu, Target: "Task", Description: "select Task from menu"},
		},
	}}
	c, _, ev := newTestCapturer(t, browser, resolver, &fakeState{changed: true}, planner)

	record, err := c.CaptureWorkflow(context.Background(), "create task", "https://app.test", "t12")
	require.NoError(t, err)

	require.Len(t, record.Steps, 2)
	// A click inside an already open menu never re-captures it.
	assert.NotContains(t, ev.captures, "step_1_menu")
	assert.Equal(t, "step_1_Abefore.png", record.Steps[1].ScreenshotsBefore["viewport"])
}

func TestUnknownActionTypeIsDropped(t *testing.T) {
	browser := &fakeBrowser{}
	resolver := &fakeResolver{}
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		Steps: []schemas.StepPlan{
			{ActionType: "teleport", Target: "elsewhere", Description: "unsupported"},
		},
	}}
	c, _, _ := newTestCapturer(t, browser, resolver, &fakeState{}, planner)

	record, err := c.CaptureWorkflow(context.Background(), "q", "https://app.test", "t8")
	require.NoError(t, err)

	// Only the initial-state entry; the unknown step produced nothing and
	// did not count as an error.
	assert.Equal(t, schemas.WorkflowCompleted, record.Status)
	assert.Len(t, record.Steps, 1)
}

func TestNavigateStep(t *testing.T) {
	browser := &fakeBrowser{}
	resolver := &fakeResolver{}
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		Steps: []schemas.StepPlan{
			{ActionType: schemas.ActionNavigate, Value: "https://app.test/issues", Description: "go to issues"},
		},
	}}
	c, _, _ := newTestCapturer(t, browser, resolver, &fakeState{}, planner)

	record, err := c.CaptureWorkflow(context.Background(), "q", "https://app.test", "t9")
	require.NoError(t, err)

	require.Len(t, record.Steps, 2)
	assert.Equal(t, "https://app.test/issues", record.Steps[1].URL)
	assert.Equal(t, []string{"https://app.test", "https://app.test/issues"}, browser.navigated)
}

func TestClickActionFailureIsRecordedWithEvidence(t *testing.T) {
	browser := &fakeBrowser{clickErr: errors.New("node detached")}
	resolver := &fakeResolver{handles: map[string]*locator.Handle{
		"Save": handleFor("save"),
	}}
	planner := &fakePlanner{plan: &schemas.TaskPlan{
		Steps: []schemas.StepPlan{
			{ActionType: schemas.ActionClick, Target: "Save", Description: "click save"},
		},
	}}
	c, _, ev := newTestCapturer(t, browser, resolver, &fakeState{}, planner)

	record, err := c.CaptureWorkflow(context.Background(), "q", "https://app.test", "t10")
	require.NoError(t, err)

	require.Len(t, record.Steps, 2)
	step := record.Steps[1]
	assert.Equal(t, schemas.StepError, step.Status)
	assert.Contains(t, step.Error, "action failed")
	assert.NotEmpty(t, step.ScreenshotsBefore)

	var sawBefore bool
	for _, name := range ev.captures {
		if strings.Contains(name, "Abefore") {
			sawBefore = true
		}
	}
	assert.True(t, sawBefore)
}
