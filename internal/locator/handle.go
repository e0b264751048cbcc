// File: internal/locator/handle.go
package locator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mzahir/trailcap/api/schemas"
)

// InteractiveSelector matches everything the enumerator considers
// interactive. Shared with the browser layer so that enumeration and
// re-location agree on the candidate set.
const InteractiveSelector = `button, a, input, textarea, select, [role="button"], [role="link"], [role="menuitem"], [role="option"], [contenteditable="true"], [onclick]`

// menuItemSelectors is the fixed selector set for items inside transient
// menus, dropdowns and listboxes.
var menuItemSelectors = []string{
	`[role="menuitem"]`,
	`[role="option"]`,
	`[class*="MenuItem"]`,
	`[class*="menu-item"]`,
	`[class*="DropdownItem"]`,
	`[class*="dropdown-item"]`,
	`li[role="presentation"] a`,
	`li[role="presentation"] button`,
	`li[role="presentation"] div`,
}

// menuContainerSelectors is the fixed selector set for visible transient menu
// containers.
var menuContainerSelectors = []string{
	`[role="menu"]`,
	`[role="listbox"]`,
	`[class*="menu"]`,
	`[class*="Menu"]`,
	`[class*="dropdown"]`,
	`[class*="Dropdown"]`,
	`[class*="popover"]`,
	`[class*="Popover"]`,
	`[data-testid*="menu"]`,
	`[data-testid*="dropdown"]`,
}

// MenuItemSelector returns the combined CSS selector for transient menu
// items. Shared with the browser layer's menu enumeration.
func MenuItemSelector() string {
	return strings.Join(menuItemSelectors, ", ")
}

// MenuContainerSelector returns the combined CSS selector for transient menu
// containers.
func MenuContainerSelector() string {
	return strings.Join(menuContainerSelectors, ", ")
}

// Handle is a locatable reference to a resolved element. JSPath is a
// JavaScript expression evaluating to the element (or null), suitable for
// chromedp's ByJSPath queries and for re-validation.
type Handle struct {
	JSPath     string
	Strategy   string
	Descriptor *schemas.ElementDescriptor
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	return strconv.Quote(s)
}

// cssAttr escapes s for embedding inside a double-quoted CSS attribute value.
func cssAttr(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// querySelectorPath wraps a CSS selector into a JSPath expression.
func querySelectorPath(selector string) string {
	return fmt.Sprintf(`document.querySelector(%s)`, jsString(selector))
}

// buildJSPath constructs the most specific locatable expression for an
// enumerated element: id, then accessible name, then test id, then tag with
// leading class, then an exact-text scan over the interactive candidate set.
func buildJSPath(el *schemas.ElementDescriptor) string {
	if el.ID != "" {
		return fmt.Sprintf(`document.getElementById(%s)`, jsString(el.ID))
	}
	if el.AriaLabel != "" {
		return querySelectorPath(fmt.Sprintf(`[aria-label="%s"]`, cssAttr(el.AriaLabel)))
	}
	if el.TestID != "" {
		return querySelectorPath(fmt.Sprintf(`[data-testid="%s"]`, cssAttr(el.TestID)))
	}

	tag := strings.ToLower(el.Tag)
	if tag == "" {
		tag = "div"
	}

	if el.Classes != "" {
		if classes := strings.Fields(el.Classes); len(classes) > 0 {
			return querySelectorPath(fmt.Sprintf(`%s.%s`, tag, classes[0]))
		}
	}

	if el.Text != "" {
		return textScanPath(tag, el.Text)
	}
	return querySelectorPath(tag)
}

// textScanPath returns an expression that re-finds an element of the given
// tag by its (truncated) visible text among the interactive candidates.
func textScanPath(tag, text string) string {
	if runes := []rune(text); len(runes) > 30 {
		text = string(runes[:30])
	}
	return fmt.Sprintf(
		`(() => {
	const els = Array.from(document.querySelectorAll(%s));
	return els.find(el => el.tagName.toLowerCase() === %s && el.textContent.trim().includes(%s)) || null;
})()`,
		jsString(InteractiveSelector), jsString(tag), jsString(text))
}

// menuItemByIDPath locates a menu item through its element id.
func menuItemByIDPath(id string) string {
	return fmt.Sprintf(`document.getElementById(%s)`, jsString(id))
}

// menuItemByTextPath returns an expression that scans the menu-item selector
// set for an item whose trimmed text equals the given text.
func menuItemByTextPath(text string) string {
	return fmt.Sprintf(
		`(() => {
	const selectors = %s;
	for (const sel of selectors) {
		const hit = Array.from(document.querySelectorAll(sel)).find(
			el => el.textContent.trim() === %s
		);
		if (hit) return hit;
	}
	return null;
})()`,
		jsStringArray(menuItemSelectors), jsString(text))
}

// jsStringArray renders a Go string slice as a JavaScript array literal.
func jsStringArray(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = jsString(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
