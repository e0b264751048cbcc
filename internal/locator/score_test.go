// File: internal/locator/score_test.go
package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mzahir/trailcap/api/schemas"
)

func TestMatchScore(t *testing.T) {
	t.Run("keyword overlap plus tag plus short text", func(t *testing.T) {
		el := schemas.ElementDescriptor{Tag: "button", Text: "Filter"}
		// 0.5 overlap + 0.2 tag match + 0.1 short text
		score := matchScore(el, "Filter button", []string{"filter"}, "button")
		assert.InDelta(t, 0.8, score, 1e-9)
	})

	t.Run("whole description substring bonus", func(t *testing.T) {
		el := schemas.ElementDescriptor{Tag: "a", Text: "Open the settings page"}
		// 0.5 overlap + 0.3 substring + 0.1 short text; tag "a" misses "button"
		score := matchScore(el, "settings", []string{"settings"}, "button")
		assert.InDelta(t, 0.9, score, 1e-9)
	})

	t.Run("aria keyword bonus", func(t *testing.T) {
		el := schemas.ElementDescriptor{Tag: "div", Text: "", AriaLabel: "Create task"}
		// 0.5 overlap + 0.3 substring + 0.1 short + 0.1 aria; div misses "button" tag
		score := matchScore(el, "create", []string{"create"}, "button")
		assert.InDelta(t, 1.0, score, 1e-9)
	})

	t.Run("capped at one", func(t *testing.T) {
		el := schemas.ElementDescriptor{Tag: "button", Text: "Submit", AriaLabel: "submit"}
		score := matchScore(el, "submit", []string{"submit"}, "button")
		assert.Equal(t, 1.0, score)
	})

	t.Run("no keyword hit scores tag only", func(t *testing.T) {
		el := schemas.ElementDescriptor{Tag: "button", Text: "Cancel"}
		score := matchScore(el, "save changes", []string{"save", "changes"}, "button")
		assert.InDelta(t, 0.2, score, 1e-9)
	})
}

func TestMenuItemScore(t *testing.T) {
	t.Run("exact match short-circuits to one", func(t *testing.T) {
		item := schemas.MenuItemDescriptor{Text: "  Database  "}
		assert.Equal(t, 1.0, menuItemScore(item, "database", []string{"database"}))
	})

	t.Run("partial keyword overlap", func(t *testing.T) {
		item := schemas.MenuItemDescriptor{Text: "New issue"}
		// no exact, no contains, 1/2 keywords -> 0.15, no prefix, +0.1 short
		score := menuItemScore(item, "create issue", []string{"create", "issue"})
		assert.InDelta(t, 0.25, score, 1e-9)
	})

	t.Run("contains plus prefix", func(t *testing.T) {
		item := schemas.MenuItemDescriptor{Text: "Task templates"}
		// 0.7 contains + 0.3 overlap + 0.2 prefix + 0.1 short, capped
		score := menuItemScore(item, "task", []string{"task"})
		assert.Equal(t, 1.0, score)
	})

	t.Run("aria label counts toward overlap", func(t *testing.T) {
		item := schemas.MenuItemDescriptor{Text: "···", AriaLabel: "More actions"}
		// 0.3 overlap + 0.1 short; text has no keyword so no prefix bonus
		score := menuItemScore(item, "more actions menu", []string{"more", "actions"})
		assert.InDelta(t, 0.4, score, 1e-9)
	})
}

func TestTagMatchesCategory(t *testing.T) {
	assert.True(t, tagMatchesCategory("button", "button"))
	assert.True(t, tagMatchesCategory("a", "link"))
	assert.True(t, tagMatchesCategory("textarea", "input"))
	assert.False(t, tagMatchesCategory("div", "link"))
	assert.True(t, tagMatchesCategory("div", "any"))
	assert.True(t, tagMatchesCategory("span", "unknown-category"))
}
