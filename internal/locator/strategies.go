// File: internal/locator/strategies.go
package locator

import (
	"strings"

	"github.com/mzahir/trailcap/api/schemas"
)

// strategyFunc selects the best candidate from the enumerated snapshot, or
// nil when the strategy has nothing to offer. Strategies are pure functions;
// the resolver validates their pick against the live page afterwards.
type strategyFunc func(snap *schemas.PageSnapshot, description string, keywords []string, category string) *schemas.ElementDescriptor

// strategies, in fixed priority order. The cascade stops at the first
// strategy whose pick validates.
var strategies = []struct {
	name string
	fn   strategyFunc
}{
	{"exact_match", findByExactMatch},
	{"accessibility", findByAccessibility},
	{"semantic_text", findBySemanticText},
	{"structure", findByStructure},
	{"visual_context", findByVisualContext},
	{"fuzzy_match", findByFuzzyMatch},
}

// findByExactMatch matches the whole description against visible text,
// case-sensitively first, then case-insensitively.
func findByExactMatch(snap *schemas.PageSnapshot, description string, _ []string, _ string) *schemas.ElementDescriptor {
	for i := range snap.Elements {
		if strings.TrimSpace(snap.Elements[i].Text) == description {
			return &snap.Elements[i]
		}
	}
	for i := range snap.Elements {
		if strings.EqualFold(strings.TrimSpace(snap.Elements[i].Text), description) {
			return &snap.Elements[i]
		}
	}
	return nil
}

// effectiveRole returns the explicit ARIA role, or the implicit role the tag
// carries.
func effectiveRole(el *schemas.ElementDescriptor) string {
	if el.Role != "" {
		return el.Role
	}
	switch strings.ToLower(el.Tag) {
	case "button":
		return "button"
	case "a":
		return "link"
	case "select":
		return "combobox"
	case "input":
		if strings.EqualFold(el.Type, "checkbox") {
			return "checkbox"
		}
		return "textbox"
	case "textarea":
		return "textbox"
	default:
		return ""
	}
}

// accessibleName approximates the element's accessible name.
func accessibleName(el *schemas.ElementDescriptor) string {
	if el.AriaLabel != "" {
		return el.AriaLabel
	}
	return el.Text
}

// findByAccessibility matches on accessibility attributes: exact accessible
// name, then name-contains-keyword, then role-scoped name search using the
// category's allowed ARIA roles.
func findByAccessibility(snap *schemas.PageSnapshot, description string, keywords []string, category string) *schemas.ElementDescriptor {
	for i := range snap.Elements {
		if strings.EqualFold(snap.Elements[i].AriaLabel, description) {
			return &snap.Elements[i]
		}
	}

	for _, kw := range keywords {
		for i := range snap.Elements {
			if strings.Contains(strings.ToLower(snap.Elements[i].AriaLabel), kw) {
				return &snap.Elements[i]
			}
		}
	}

	descLower := strings.ToLower(description)
	for _, role := range rolesForType(category) {
		for i := range snap.Elements {
			el := &snap.Elements[i]
			if effectiveRole(el) != role {
				continue
			}
			if strings.Contains(strings.ToLower(accessibleName(el)), descLower) {
				return el
			}
		}
		for _, kw := range keywords {
			for i := range snap.Elements {
				el := &snap.Elements[i]
				if effectiveRole(el) != role {
					continue
				}
				if strings.Contains(strings.ToLower(accessibleName(el)), kw) {
					return el
				}
			}
		}
	}
	return nil
}

// matchesCategory scopes an element to the selector family of a category,
// combining the tag check with the effective role.
func matchesCategory(el *schemas.ElementDescriptor, category string) bool {
	if category == "any" || category == "" {
		return true
	}
	if tagMatchesCategory(el.Tag, category) {
		return true
	}
	switch category {
	case "button", "link", "checkbox", "menu", "menuitem", "modal":
		return effectiveRole(el) == category
	case "input":
		return effectiveRole(el) == "textbox" || el.Role == "textbox"
	case "select":
		r := effectiveRole(el)
		return r == "combobox" || r == "listbox"
	}
	return false
}

// findBySemanticText matches visible text content within the category's
// element family: exact text first, then keyword-contains, then a loose
// whole-description contains over all candidates.
func findBySemanticText(snap *schemas.PageSnapshot, description string, keywords []string, category string) *schemas.ElementDescriptor {
	for i := range snap.Elements {
		el := &snap.Elements[i]
		if matchesCategory(el, category) && strings.Contains(el.Text, description) {
			return el
		}
	}

	for _, kw := range keywords {
		for i := range snap.Elements {
			el := &snap.Elements[i]
			if matchesCategory(el, category) && strings.Contains(strings.ToLower(el.Text), kw) {
				return el
			}
		}
	}

	descLower := strings.ToLower(description)
	for i := range snap.Elements {
		if strings.Contains(strings.ToLower(snap.Elements[i].Text), descLower) {
			return &snap.Elements[i]
		}
	}
	return nil
}

// structuralAttributes in precedence order.
func structuralAttributes(el *schemas.ElementDescriptor) []string {
	return []string{el.ID, el.Name, el.Placeholder, el.TestID, el.Classes, el.Title}
}

// findByStructure matches keywords against structural attributes
// (id, name, placeholder, test-id, class, title), in that precedence.
func findByStructure(snap *schemas.PageSnapshot, _ string, keywords []string, _ string) *schemas.ElementDescriptor {
	for attr := 0; attr < 6; attr++ {
		for _, kw := range keywords {
			for i := range snap.Elements {
				value := structuralAttributes(&snap.Elements[i])[attr]
				if value != "" && strings.Contains(strings.ToLower(value), kw) {
					return &snap.Elements[i]
				}
			}
		}
	}
	return nil
}

// findByVisualContext only fires when the description carries a positional
// hint. Candidates must have a keyword hit on text or accessible name and a
// bounding box in the outer 20% of the viewport on the hinted axis.
func findByVisualContext(snap *schemas.PageSnapshot, description string, keywords []string, _ string) *schemas.ElementDescriptor {
	position := positionFromDescription(description)
	if position == "" {
		return nil
	}

	for i := range snap.Elements {
		el := &snap.Elements[i]

		hit := false
		text := strings.ToLower(el.Text)
		aria := strings.ToLower(el.AriaLabel)
		for _, kw := range keywords {
			if strings.Contains(text, kw) || strings.Contains(aria, kw) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}

		var positioned bool
		switch position {
		case "top":
			positioned = el.Position.Y < snap.ViewportHeight*0.2
		case "bottom":
			positioned = el.Position.Y > snap.ViewportHeight*0.8
		case "left":
			positioned = el.Position.X < snap.ViewportWidth*0.2
		case "right":
			positioned = el.Position.X > snap.ViewportWidth*0.8
		}
		if positioned {
			return el
		}
	}
	return nil
}

// findByFuzzyMatch scores every candidate and accepts the best scorer above
// the 0.4 floor. Last resort.
func findByFuzzyMatch(snap *schemas.PageSnapshot, description string, keywords []string, category string) *schemas.ElementDescriptor {
	var best *schemas.ElementDescriptor
	bestScore := 0.0

	for i := range snap.Elements {
		score := matchScore(snap.Elements[i], description, keywords, category)
		if score > bestScore {
			bestScore = score
			best = &snap.Elements[i]
		}
	}

	if best != nil && bestScore > 0.4 {
		return best
	}
	return nil
}
