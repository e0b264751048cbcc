// File: api/schemas/workflow.go
package schemas

import (
	"time"
)

// ActionType enumerates the step actions a planner may emit.
type ActionType string

const (
	ActionClick      ActionType = "click"
	ActionFill       ActionType = "fill"
	ActionHover      ActionType = "hover"
	ActionSelectMenu ActionType = "select_menu"
	ActionWait       ActionType = "wait"
	ActionNavigate   ActionType = "navigate"
)

// StepPlan is one planned action produced by the planner. It is immutable
// once handed to the capturer.
type StepPlan struct {
	ActionType  ActionType `json:"action_type"`
	Target      string     `json:"target"`
	Value       string     `json:"value"`
	Description string     `json:"description"`
}

// TaskPlan is the fixed output shape of the planner collaborator.
type TaskPlan struct {
	App    string     `json:"app"`
	Action string     `json:"action"`
	Entity string     `json:"entity"`
	Steps  []StepPlan `json:"steps"`
}

// StepStatus is the outcome variant of a single executed step.
type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepSkipped StepStatus = "skipped"
	StepError   StepStatus = "error"
)

// Skip reasons recorded on StepResult when Status == StepSkipped.
const (
	SkipReasonNotFillable   = "element not fillable"
	SkipReasonCustomElement = "custom ui element"
)

// StepResult captures the outcome of executing one StepPlan. Results are
// appended to a WorkflowRecord and never mutated afterwards.
type StepResult struct {
	StepNumber  int        `json:"step_number"`
	Name        string     `json:"name,omitempty"`
	ActionType  ActionType `json:"action_type,omitempty"`
	Target      string     `json:"target,omitempty"`
	Value       string     `json:"value,omitempty"`
	Description string     `json:"description,omitempty"`

	Status     StepStatus `json:"status"`
	SkipReason string     `json:"skip_reason,omitempty"`
	Error      string     `json:"error,omitempty"`

	// DurationSeconds is recorded for wait steps only.
	DurationSeconds float64 `json:"duration,omitempty"`

	// Evidence references. Keys are artifact names ("viewport", "highlighted",
	// "full_page", "menu"), values are file paths relative to the task dir.
	Screenshots       map[string]string `json:"screenshots,omitempty"`
	ScreenshotsBefore map[string]string `json:"screenshots_before,omitempty"`
	ScreenshotsAfter  map[string]string `json:"screenshots_after,omitempty"`

	StateChanged bool      `json:"state_changed,omitempty"`
	URL          string    `json:"url,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// WorkflowStatus describes the terminal state of a capture run.
type WorkflowStatus string

const (
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowHalted    WorkflowStatus = "halted_by_circuit_breaker"
)

// WorkflowRecord is the ordered capture of one task. It is created at capture
// start, appended to step by step and serialized to durable storage at the
// end, including on early termination. Last write wins; there is no stronger
// persistence guarantee.
type WorkflowRecord struct {
	TaskID     string         `json:"task_id"`
	Query      string         `json:"query"`
	App        string         `json:"app"`
	Action     string         `json:"action"`
	Entity     string         `json:"entity"`
	CapturedAt time.Time      `json:"captured_at"`
	StartURL   string         `json:"start_url"`
	Status     WorkflowStatus `json:"status"`
	Steps      []StepResult   `json:"steps"`
}
