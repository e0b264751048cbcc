// File: internal/locator/keywords_test.go
package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	testCases := []struct {
		name        string
		description string
		expected    []string
	}{
		{
			name:        "drops stopwords and ui filler",
			description: "click the Filter button",
			expected:    []string{"click", "filter"},
		},
		{
			name:        "drops single character tokens",
			description: "a b Filter",
			expected:    []string{"filter"},
		},
		{
			name:        "keeps meaningful words lowercased",
			description: "New Issue",
			expected:    []string{"new", "issue"},
		},
		{
			name:        "falls back to whole description when only stopwords remain",
			description: "the button",
			expected:    []string{"the button"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, extractKeywords(tc.description))
		})
	}
}

func TestInferElementType(t *testing.T) {
	testCases := []struct {
		description string
		expected    string
	}{
		{"Filter button", "button"},
		{"press Save", "button"},
		{"navigate to dashboard link", "link"},
		{"enter the task name", "input"},
		{"choose assignee from dropdown", "select"},
		{"toggle notifications", "checkbox"},
		{"close the dialog", "modal"},
		{"Profile", "any"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, inferElementType(tc.description))
		})
	}
}

func TestInferElementTypeFirstCategoryWins(t *testing.T) {
	// "button" outranks "menu" in the pattern order even though both hit.
	assert.Equal(t, "button", inferElementType("button in the menu"))
}

func TestLooksLikeMenuItem(t *testing.T) {
	assert.True(t, looksLikeMenuItem("select Database from menu"))
	assert.True(t, looksLikeMenuItem("the Task option"))
	assert.True(t, looksLikeMenuItem("pick a choice"))
	assert.False(t, looksLikeMenuItem("Filter"))
	assert.False(t, looksLikeMenuItem("New issue"))
}

func TestPositionFromDescription(t *testing.T) {
	assert.Equal(t, "left", positionFromDescription("Add a page in the sidebar"))
	assert.Equal(t, "top", positionFromDescription("header search"))
	assert.Equal(t, "bottom", positionFromDescription("footer links"))
	assert.Equal(t, "right", positionFromDescription("button on the right"))
	assert.Equal(t, "", positionFromDescription("Save"))
}

func TestRolesForTypeDefault(t *testing.T) {
	roles := rolesForType("any")
	assert.Contains(t, roles, "button")
	assert.Contains(t, roles, "textbox")
	assert.Contains(t, roles, "menuitem")
}
