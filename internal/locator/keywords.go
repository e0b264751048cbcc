// File: internal/locator/keywords.go
package locator

import (
	"regexp"
	"strings"
)

// stopwords are dropped during keyword extraction. The trailing entries
// (option, button, ...) are UI filler words that carry no identity.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "up": {}, "about": {}, "into": {}, "through": {}, "during": {},
	"option": {}, "button": {}, "field": {}, "input": {}, "menu": {}, "item": {},
}

var wordPattern = regexp.MustCompile(`\w+`)

// extractKeywords tokenizes the description, lowercases it and drops
// stopwords and single-character tokens. It never returns an empty set: when
// nothing survives, the whole description lowercased is the only keyword.
func extractKeywords(description string) []string {
	words := wordPattern.FindAllString(strings.ToLower(description), -1)

	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stopwords[w]; stop || len(w) <= 1 {
			continue
		}
		keywords = append(keywords, w)
	}

	if len(keywords) == 0 {
		return []string{strings.ToLower(description)}
	}
	return keywords
}

// typePatterns maps description substrings to an element-type category.
// Order matters: the first category with a hit wins.
var typePatterns = []struct {
	category string
	patterns []string
}{
	{"button", []string{"button", "btn", "submit", "click", "press"}},
	{"link", []string{"link", "href", "anchor", "navigate"}},
	{"input", []string{"input", "field", "textbox", "enter", "type", "fill"}},
	{"select", []string{"select", "dropdown", "choose", "picker"}},
	{"checkbox", []string{"checkbox", "check", "toggle"}},
	{"menu", []string{"menu", "dropdown", "list"}},
	{"menuitem", []string{"option", "choice", "item"}},
	{"modal", []string{"modal", "dialog", "popup"}},
}

// inferElementType infers the element-type category from the description,
// defaulting to "any".
func inferElementType(description string) string {
	desc := strings.ToLower(description)
	for _, tp := range typePatterns {
		for _, pattern := range tp.patterns {
			if strings.Contains(desc, pattern) {
				return tp.category
			}
		}
	}
	return "any"
}

// menuIndicators is the fixed set of phrases that suggest the target is a
// menu item even when the caller did not flag menu context.
var menuIndicators = []string{
	"option", "choice", "item", "in menu", "in dropdown",
	"from menu", "from dropdown", "menu item",
}

// looksLikeMenuItem reports whether the description textually suggests a
// transient menu item.
func looksLikeMenuItem(description string) bool {
	desc := strings.ToLower(description)
	for _, indicator := range menuIndicators {
		if strings.Contains(desc, indicator) {
			return true
		}
	}
	return false
}

// rolesForType returns the ARIA roles to consider for an element category.
func rolesForType(category string) []string {
	switch category {
	case "button":
		return []string{"button", "menuitem"}
	case "link":
		return []string{"link", "menuitem"}
	case "input":
		return []string{"textbox", "searchbox"}
	case "select":
		return []string{"combobox", "listbox"}
	case "checkbox":
		return []string{"checkbox"}
	case "menu":
		return []string{"menu", "navigation"}
	case "menuitem":
		return []string{"menuitem", "option"}
	case "modal":
		return []string{"dialog"}
	default:
		return []string{"button", "link", "textbox", "menuitem", "combobox", "option"}
	}
}

// positionHints maps positional words in a description to a viewport edge.
// Order matters: the first hit wins.
var positionHints = []struct {
	hint     string
	position string
}{
	{"top", "top"},
	{"bottom", "bottom"},
	{"left", "left"},
	{"right", "right"},
	{"sidebar", "left"},
	{"header", "top"},
	{"footer", "bottom"},
}

// positionFromDescription extracts a viewport-edge hint from the description,
// or "" when the description carries no positional language.
func positionFromDescription(description string) string {
	desc := strings.ToLower(description)
	for _, ph := range positionHints {
		if strings.Contains(desc, ph.hint) {
			return ph.position
		}
	}
	return ""
}
