// File: internal/capture/capturer.go
//
// Package capture runs a planned workflow against a live page and records
// what happened. Steps adapt to the page (menu-context resolution retries,
// skip-instead-of-fail for unfillable targets), individual step failures are
// recorded rather than propagated, and a consecutive-error circuit breaker
// halts runs that stopped making progress. The record is persisted whatever
// the outcome.
package capture

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mzahir/trailcap/api/schemas"
	"github.com/mzahir/trailcap/internal/config"
	"github.com/mzahir/trailcap/internal/locator"
)

// Capturer executes task plans step by step and assembles the workflow
// record.
type Capturer struct {
	browser  Browser
	resolver Resolver
	state    StateService
	evidence Evidence
	planner  Planner
	store    *Store
	cfg      config.CaptureConfig
	logger   *zap.Logger
}

// NewCapturer wires the capturer's collaborators together.
func NewCapturer(browser Browser, resolver Resolver, state StateService, ev Evidence, planner Planner, store *Store, cfg config.CaptureConfig, logger *zap.Logger) *Capturer {
	return &Capturer{
		browser:  browser,
		resolver: resolver,
		state:    state,
		evidence: ev,
		planner:  planner,
		store:    store,
		cfg:      cfg,
		logger:   logger.Named("capture"),
	}
}

// CaptureWorkflow plans and executes the query against appURL. The returned
// record is always persisted first, including when the circuit breaker
// halts the run; the error covers persistence failures and context
// cancellation, never individual step failures.
func (c *Capturer) CaptureWorkflow(ctx context.Context, query, appURL, taskID string) (*schemas.WorkflowRecord, error) {
	if taskID == "" {
		taskID = "task_" + time.Now().Format("20060102_150405")
	}
	c.logger.Info("Starting workflow capture",
		zap.String("task_id", taskID),
		zap.String("query", query),
	)

	if err := c.browser.Navigate(ctx, appURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigationFailed, err)
	}
	if err := sleep(ctx, c.cfg.InitialSettleWait); err != nil {
		return nil, err
	}

	pageCtx, err := c.resolver.PageContext(ctx)
	if err != nil {
		c.logger.Warn("Initial page context unavailable", zap.Error(err))
	}
	plan := c.planner.ParseQuery(ctx, query, "any", appURL, pageCtx)

	c.logger.Info("Plan ready",
		zap.String("action", plan.Action),
		zap.String("entity", plan.Entity),
		zap.Int("planned_steps", len(plan.Steps)),
	)

	record := &schemas.WorkflowRecord{
		TaskID:     taskID,
		Query:      query,
		App:        plan.App,
		Action:     plan.Action,
		Entity:     plan.Entity,
		CapturedAt: time.Now(),
		StartURL:   appURL,
		Status:     schemas.WorkflowCompleted,
	}

	c.logger.Info("Capturing initial state")
	initialShots := c.evidence.CaptureState(ctx, c.browser, "initial_state", taskID, "starting state", "")
	initialURL, _ := c.browser.CurrentURL(ctx)
	record.Steps = append(record.Steps, schemas.StepResult{
		StepNumber:  0,
		Name:        "initial_state",
		Description: "initial page view",
		Status:      schemas.StepSuccess,
		Screenshots: initialShots,
		URL:         initialURL,
		Timestamp:   time.Now(),
	})

	stepNumber := 1
	consecutiveErrors := 0

	for _, planned := range plan.Steps {
		if ctx.Err() != nil {
			break
		}
		c.logger.Info("Executing step",
			zap.Int("step", stepNumber),
			zap.String("description", planned.Description),
		)

		result, err := c.executeStep(ctx, planned, stepNumber, taskID)
		if err != nil {
			c.logger.Error("Step failed", zap.Int("step", stepNumber), zap.Error(err))
			errorShots := c.evidence.CaptureErrorState(ctx, c.browser, fmt.Sprintf("step_%d", stepNumber), taskID, err.Error())
			record.Steps = append(record.Steps, schemas.StepResult{
				StepNumber:  stepNumber,
				ActionType:  planned.ActionType,
				Target:      planned.Target,
				Description: "error: " + err.Error(),
				Status:      schemas.StepError,
				Error:       err.Error(),
				Screenshots: errorShots,
				Timestamp:   time.Now(),
			})
			consecutiveErrors++
			stepNumber++
			if consecutiveErrors >= c.cfg.MaxConsecutiveErrors {
				c.logger.Warn("Too many consecutive errors, stopping")
				record.Status = schemas.WorkflowHalted
				break
			}
			c.logger.Info("Attempting to continue after error")
			if sleepErr := sleep(ctx, time.Second); sleepErr != nil {
				break
			}
			continue
		}
		if result == nil {
			continue
		}

		record.Steps = append(record.Steps, *result)
		if result.Status == schemas.StepError {
			consecutiveErrors++
			c.logger.Warn("Consecutive errors",
				zap.Int("count", consecutiveErrors),
				zap.Int("max", c.cfg.MaxConsecutiveErrors),
			)
			if consecutiveErrors >= c.cfg.MaxConsecutiveErrors {
				c.logger.Warn("Too many consecutive errors, stopping")
				record.Status = schemas.WorkflowHalted
				break
			}
		} else {
			consecutiveErrors = 0
		}
		stepNumber++
	}

	c.logger.Info("Saving workflow record",
		zap.String("status", string(record.Status)),
		zap.Int("total_steps", len(record.Steps)),
	)
	if err := c.store.SaveRecord(record); err != nil {
		return record, err
	}
	return record, ctx.Err()
}

// executeStep runs one planned step. A nil result with nil error means the
// action type is unknown and the step was dropped. A returned error means
// the step could not even produce its own result entry; the caller records
// it and counts it toward the breaker.
func (c *Capturer) executeStep(ctx context.Context, planned schemas.StepPlan, stepNumber int, taskID string) (*schemas.StepResult, error) {
	actionType := schemas.ActionType(strings.ToLower(string(planned.ActionType)))

	switch actionType {
	case schemas.ActionWait:
		return c.executeWait(ctx, planned, stepNumber)
	case schemas.ActionNavigate:
		return c.executeNavigate(ctx, planned, stepNumber, taskID)
	case schemas.ActionClick, schemas.ActionFill, schemas.ActionHover, schemas.ActionSelectMenu:
		return c.executeElementAction(ctx, actionType, planned, stepNumber, taskID)
	default:
		c.logger.Warn("Unknown action type", zap.String("action_type", string(planned.ActionType)))
		return nil, nil
	}
}

func (c *Capturer) executeWait(ctx context.Context, planned schemas.StepPlan, stepNumber int) (*schemas.StepResult, error) {
	seconds := 1.0
	if planned.Value != "" {
		if parsed, err := strconv.ParseFloat(planned.Value, 64); err == nil {
			seconds = parsed
		}
	}
	if err := sleep(ctx, time.Duration(seconds*float64(time.Second))); err != nil {
		return nil, err
	}
	return &schemas.StepResult{
		StepNumber:      stepNumber,
		ActionType:      schemas.ActionWait,
		Description:     planned.Description,
		Status:          schemas.StepSuccess,
		DurationSeconds: seconds,
		Timestamp:       time.Now(),
	}, nil
}

func (c *Capturer) executeNavigate(ctx context.Context, planned schemas.StepPlan, stepNumber int, taskID string) (*schemas.StepResult, error) {
	url := planned.Value
	if url == "" {
		url = planned.Target
	}
	if err := c.browser.Navigate(ctx, url); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNavigationFailed, err)
	}

	shots := c.evidence.CaptureState(ctx, c.browser, fmt.Sprintf("step_%d", stepNumber), taskID, planned.Description, "")
	return &schemas.StepResult{
		StepNumber:  stepNumber,
		ActionType:  schemas.ActionNavigate,
		Description: planned.Description,
		Status:      schemas.StepSuccess,
		Screenshots: shots,
		URL:         url,
		Timestamp:   time.Now(),
	}, nil
}

func (c *Capturer) executeElementAction(ctx context.Context, actionType schemas.ActionType, planned schemas.StepPlan, stepNumber int, taskID string) (*schemas.StepResult, error) {
	pageState, err := c.resolver.PageContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("page state read failed: %w", err)
	}

	menuContext := c.isMenuContext(actionType, planned.Description, pageState)

	c.logger.Info("Locating element",
		zap.String("target", planned.Target),
		zap.Bool("menu_context", menuContext),
	)

	handle := c.resolve(ctx, planned.Target, menuContext)
	if handle == nil && menuContext {
		// Transient menus render in stages; give them one settle pass.
		c.logger.Info("Waiting for menu to fully render")
		if err := sleep(ctx, c.cfg.MenuRetryDelay); err != nil {
			return nil, err
		}
		handle = c.resolve(ctx, planned.Target, true)
	}
	if handle == nil {
		if actionType == schemas.ActionFill {
			c.logger.Warn("Skipping fill, element not fillable", zap.String("target", planned.Target))
			return &schemas.StepResult{
				StepNumber:  stepNumber,
				ActionType:  schemas.ActionFill,
				Target:      planned.Target,
				Description: planned.Description,
				Status:      schemas.StepSkipped,
				SkipReason:  schemas.SkipReasonNotFillable,
				Timestamp:   time.Now(),
			}, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, planned.Target)
	}

	c.logger.Info("Capturing before state")
	beforeShots := c.evidence.CaptureState(ctx, c.browser,
		fmt.Sprintf("step_%d_Abefore", stepNumber), taskID,
		"before: "+planned.Description, handle.JSPath)

	value := planned.Value
	var actionErr error

	switch actionType {
	case schemas.ActionClick, schemas.ActionSelectMenu:
		actionErr = c.browser.Click(ctx, handle.JSPath)
		if actionErr == nil && !menuContext {
			c.mergeMenuEvidence(ctx, stepNumber, taskID, beforeShots)
		}
	case schemas.ActionFill:
		if value == "" {
			value = "sample text"
		}
		if fillErr := c.browser.Fill(ctx, handle.JSPath, value); fillErr != nil {
			c.logger.Warn("Fill failed on custom element", zap.Error(fillErr))
			return &schemas.StepResult{
				StepNumber:        stepNumber,
				ActionType:        schemas.ActionFill,
				Target:            planned.Target,
				Description:       planned.Description,
				Status:            schemas.StepSkipped,
				SkipReason:        schemas.SkipReasonCustomElement,
				ScreenshotsBefore: beforeShots,
				Timestamp:         time.Now(),
			}, nil
		}
	case schemas.ActionHover:
		actionErr = c.browser.Hover(ctx, handle.JSPath)
	}

	if actionErr != nil {
		wrapped := fmt.Errorf("%w: %s on %s: %v", ErrActionFailed, actionType, planned.Target, actionErr)
		c.logger.Error("Action execution failed", zap.Error(wrapped))
		return &schemas.StepResult{
			StepNumber:        stepNumber,
			ActionType:        actionType,
			Target:            planned.Target,
			Description:       planned.Description,
			Status:            schemas.StepError,
			Error:             wrapped.Error(),
			ScreenshotsBefore: beforeShots,
			Timestamp:         time.Now(),
		}, nil
	}

	c.logger.Info("Waiting for UI response")
	stateChanged, changeErr := c.state.WaitForChange(ctx, c.cfg.StateChangeTimeout, c.cfg.StatePollInterval)
	if changeErr != nil {
		if errors.Is(changeErr, context.Canceled) || errors.Is(changeErr, context.DeadlineExceeded) {
			return nil, changeErr
		}
		c.logger.Debug("State change poll failed", zap.Error(changeErr))
	}
	if !stateChanged {
		c.logger.Debug("No state change detected")
	}
	if err := c.browser.WaitForStability(ctx); err != nil {
		c.logger.Debug("Stability wait failed", zap.Error(err))
	}

	c.logger.Info("Capturing after state")
	afterShots := c.evidence.CaptureState(ctx, c.browser,
		fmt.Sprintf("step_%d_Bafter", stepNumber), taskID,
		"after: "+planned.Description, "")

	url, _ := c.browser.CurrentURL(ctx)
	return &schemas.StepResult{
		StepNumber:        stepNumber,
		ActionType:        actionType,
		Target:            planned.Target,
		Value:             value,
		Description:       planned.Description,
		Status:            schemas.StepSuccess,
		ScreenshotsBefore: beforeShots,
		ScreenshotsAfter:  afterShots,
		StateChanged:      stateChanged,
		URL:               url,
		Timestamp:         time.Now(),
	}, nil
}

// isMenuContext decides whether resolution should scope to a visible menu:
// explicit select_menu steps, descriptions that talk about menus or options,
// or a menu already visible on the page.
func (c *Capturer) isMenuContext(actionType schemas.ActionType, description string, pageState *schemas.PageContext) bool {
	if actionType == schemas.ActionSelectMenu {
		return true
	}
	desc := strings.ToLower(description)
	if strings.Contains(desc, "menu") || strings.Contains(desc, "option") || strings.Contains(desc, "from") {
		return true
	}
	return pageState != nil && pageState.UIState.HasMenu
}

// resolve wraps the resolver and swallows not-found, which the caller
// handles by retry or skip.
func (c *Capturer) resolve(ctx context.Context, target string, inMenu bool) *locator.Handle {
	handle, err := c.resolver.Resolve(ctx, target, locator.Options{InMenu: inMenu})
	if err != nil {
		if !errors.Is(err, locator.ErrNotFound) {
			c.logger.Debug("Resolution error", zap.Error(err))
		}
		c.logger.Warn("Element not found", zap.String("target", target))
		return nil
	}
	return handle
}

// mergeMenuEvidence re-reads the page shortly after a click and, when a menu
// appeared, folds a menu capture into the step's before-evidence.
func (c *Capturer) mergeMenuEvidence(ctx context.Context, stepNumber int, taskID string, beforeShots map[string]string) {
	if err := sleep(ctx, c.cfg.PostClickWait); err != nil {
		return
	}
	newState, err := c.resolver.PageContext(ctx)
	if err != nil || newState == nil || !newState.UIState.HasMenu {
		return
	}
	c.logger.Info("Menu appeared after click")
	menuShots := c.evidence.CaptureState(ctx, c.browser,
		fmt.Sprintf("step_%d_menu", stepNumber), taskID, "menu opened", "")
	for k, v := range menuShots {
		beforeShots[k] = v
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
