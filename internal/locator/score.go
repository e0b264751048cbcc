// File: internal/locator/score.go
package locator

import (
	"strings"

	"github.com/mzahir/trailcap/api/schemas"
)

// tagMatchesCategory reports whether an element tag fits the inferred
// category. Unknown categories match everything.
func tagMatchesCategory(tag, category string) bool {
	tag = strings.ToLower(tag)
	switch category {
	case "button":
		return tag == "button" || strings.Contains(tag, "button")
	case "link":
		return tag == "a"
	case "input":
		return tag == "input" || tag == "textarea"
	case "select":
		return tag == "select"
	case "checkbox":
		return tag == "input"
	case "menu":
		return tag == "nav" || tag == "ul" || tag == "ol" || tag == "div"
	case "modal":
		return tag == "div" || tag == "dialog"
	default:
		return true
	}
}

// matchScore computes how well an enumerated element matches the description.
//
//	0.5 * keyword overlap ratio
//	+0.3 when the whole description appears in the searchable text
//	+0.2 when the tag fits the inferred category
//	+0.1 when the text is short (<50) and at least one keyword hit
//	+0.1 when any keyword appears in the accessible name
//
// capped at 1.0.
func matchScore(el schemas.ElementDescriptor, description string, keywords []string, category string) float64 {
	text := strings.ToLower(el.Text)
	ariaLabel := strings.ToLower(el.AriaLabel)
	placeholder := strings.ToLower(el.Placeholder)
	searchable := text + " " + ariaLabel + " " + placeholder

	score := 0.0

	keywordMatches := 0
	for _, kw := range keywords {
		if strings.Contains(searchable, kw) {
			keywordMatches++
		}
	}
	if keywordMatches > 0 {
		score += 0.5 * float64(keywordMatches) / float64(len(keywords))
	}

	if strings.Contains(searchable, strings.ToLower(description)) {
		score += 0.3
	}

	if tagMatchesCategory(el.Tag, category) {
		score += 0.2
	}

	if len(el.Text) < 50 && keywordMatches > 0 {
		score += 0.1
	}

	for _, kw := range keywords {
		if strings.Contains(ariaLabel, kw) {
			score += 0.1
			break
		}
	}

	return min(score, 1.0)
}

// menuItemScore computes the match score for a transient menu item.
// An exact (normalized) text match short-circuits to 1.0.
func menuItemScore(item schemas.MenuItemDescriptor, description string, keywords []string) float64 {
	text := strings.TrimSpace(strings.ToLower(item.Text))
	ariaLabel := strings.ToLower(item.AriaLabel)
	desc := strings.ToLower(description)

	if text == desc {
		return 1.0
	}

	score := 0.0

	if strings.Contains(text, desc) {
		score += 0.7
	}

	keywordMatches := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) || strings.Contains(ariaLabel, kw) {
			keywordMatches++
		}
	}
	if keywordMatches > 0 {
		score += 0.3 * float64(keywordMatches) / float64(len(keywords))
	}

	for _, kw := range keywords {
		if strings.HasPrefix(text, kw) {
			score += 0.2
			break
		}
	}

	if len(text) < 50 && keywordMatches > 0 {
		score += 0.1
	}

	return min(score, 1.0)
}
