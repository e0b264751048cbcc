// File: api/schemas/elements.go
package schemas

// Rect is an element bounding box in CSS pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ElementDescriptor is a DOM-queryable candidate produced by enumerating the
// interactive elements on the live page. Descriptors are produced fresh for
// each resolution call and discarded after use.
type ElementDescriptor struct {
	Tag         string `json:"tag"`
	Type        string `json:"type,omitempty"`
	Role        string `json:"role,omitempty"`
	Text        string `json:"text"`
	AriaLabel   string `json:"ariaLabel,omitempty"`
	ID          string `json:"id,omitempty"`
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Classes     string `json:"classes,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	TestID      string `json:"testid,omitempty"`
	Visible     bool   `json:"visible"`
	Position    Rect   `json:"position"`
}

// MenuItemDescriptor is a candidate item inside a currently visible transient
// menu, listbox or dropdown. Ephemeral; only produced while a menu container
// is detected visible.
type MenuItemDescriptor struct {
	Text      string `json:"text"`
	AriaLabel string `json:"ariaLabel,omitempty"`
	Classes   string `json:"classes,omitempty"`
	ID        string `json:"id,omitempty"`
	Index     int    `json:"index"`
}

// PageSnapshot bundles the interactive-element enumeration with the viewport
// dimensions the positional strategy needs.
type PageSnapshot struct {
	ViewportWidth  float64             `json:"viewportWidth"`
	ViewportHeight float64             `json:"viewportHeight"`
	Elements       []ElementDescriptor `json:"elements"`
}

// MenuSnapshot is the menu resolver's view of the page: how many transient
// menu containers are currently visible and the items enumerated from them.
type MenuSnapshot struct {
	ContainerCount int                  `json:"containerCount"`
	Items          []MenuItemDescriptor `json:"items"`
}

// ContextElement is a trimmed element summary embedded in a PageContext.
type ContextElement struct {
	Type        string `json:"type"`
	Text        string `json:"text,omitempty"`
	AriaLabel   string `json:"ariaLabel,omitempty"`
	Classes     string `json:"classes,omitempty"`
	ID          string `json:"id,omitempty"`
	Href        string `json:"href,omitempty"`
	InputType   string `json:"inputType,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Name        string `json:"name,omitempty"`
	Role        string `json:"role,omitempty"`
}

// UIState flags the transient overlay patterns currently visible on the page.
type UIState struct {
	HasModal   bool `json:"has_modal"`
	HasMenu    bool `json:"has_menu"`
	ModalCount int  `json:"modal_count"`
	MenuCount  int  `json:"menu_count"`
}

// PageContext is a structured, read-only snapshot of the current page state.
// It feeds both the planner prompt and the capturer's menu-context decision.
type PageContext struct {
	URL       string           `json:"url"`
	Title     string           `json:"title"`
	Buttons   []ContextElement `json:"buttons"`
	Links     []ContextElement `json:"links"`
	Inputs    []ContextElement `json:"inputs"`
	Selects   []ContextElement `json:"selects"`
	MenuItems []ContextElement `json:"menuItems"`
	Headings  []string         `json:"headings"`
	UIState   UIState          `json:"ui_state"`
}
