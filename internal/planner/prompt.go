// File: internal/planner/prompt.go
package planner

import (
	"fmt"
	"strings"

	json "github.com/json-iterator/go"

	"github.com/mzahir/trailcap/api/schemas"
)

const parsingSystemPrompt = "You are a workflow automation expert that creates clean, direct workflows without trial-and-error. Always respond with valid JSON only."

const refineSystemPrompt = "You are a workflow expert. Refine steps based on actual page elements. Respond with valid JSON only."

// appPatterns carries the per-application workflow knowledge injected into
// the parsing prompt. Unknown apps get no extra section.
var appPatterns = map[string]string{
	"notion": `NOTION-SPECIFIC PATTERNS:

SLASH COMMANDS:
- typing "/" in editor opens a block menu
- block menu contains: Database, Table, Heading, Bullet list, etc.
- ALWAYS use exact menu item names (case-sensitive)
- "Database" creates an inline database (NOT "Table - Inline")

COMMON WORKFLOWS:
- create page: click "Add a page" -> done
- add database: type "/database" -> select "Database" -> done
- filter database: click "Filter" -> stop (user configures)
- add block: type "/[blocktype]" -> select from menu -> done

ELEMENT LOCATIONS:
- editor: contenteditable with aria-label "Start typing to edit text"
- sidebar: left side, contains "Add a page" button
- database tools: top of database view (Filter, Sort, etc.)`,

	"asana": `ASANA-SPECIFIC PATTERNS:

CREATION MENU:
- "Create" button opens a dropdown menu
- menu contains: Task, Project, Portfolio, etc.
- select by exact text

COMMON WORKFLOWS:
- create task: click "Create" -> select "Task" -> done
- create project: click "Create" -> select "Project" -> done
- assign task: click assignee field -> select person -> done`,

	"linear": `LINEAR-SPECIFIC PATTERNS:

CREATION:
- "C" keyboard shortcut opens the create dialog directly (fastest)
- OR click "New issue" button in sidebar/toolbar
- creates issue in a modal, no menu selection needed

FILTERING:
- MUST be on the issues page first (navigate if needed)
- Filter button is in the issues view toolbar (top right area)
- click "Filter" button to open the filter panel
- NOT the search bar - that is different

COMMON WORKFLOWS:
- create issue: press "C" OR click "New issue" button, modal opens (done - user fills form)
- filter issues: navigate to Issues view, click "Filter" in toolbar (done - user sets criteria)

KEY ELEMENTS:
- "New issue" button (NOT "New" - be specific)
- "Issues" navigation link
- "Filter" button (in issues toolbar, NOT search)`,
}

// buildParsingPrompt assembles the full plan-generation prompt from the
// query, the detected application and an optional page context snapshot.
func buildParsingPrompt(query, appName, currentURL string, pageCtx *schemas.PageContext) string {
	var context strings.Builder
	if currentURL != "" {
		fmt.Fprintf(&context, "\nCURRENT URL: %s", currentURL)
	}
	if pageCtx != nil {
		trimmed := map[string]any{
			"buttons":   capContext(pageCtx.Buttons, 10),
			"inputs":    capContext(pageCtx.Inputs, 5),
			"menuItems": capContext(pageCtx.MenuItems, 10),
		}
		if blob, err := json.MarshalIndent(trimmed, "", "  "); err == nil {
			fmt.Fprintf(&context, "\n\nPAGE ELEMENTS:\n%s", blob)
		}
	}

	return fmt.Sprintf(`You are a workflow automation expert. Create a CLEAN, DIRECT workflow without trial-and-error.

QUERY: %s
APPLICATION: %s
%s

%s

CRITICAL RULES:

1. CLEAN WORKFLOWS ONLY:
   - generate the DIRECT path to complete the task
   - NO trial-and-error steps, NO fallback options
   - each step should succeed on first try

2. STOP AT CONFIGURATION POINTS:
   - filter/search: stop after opening the filter panel
   - settings: stop after opening settings
   - forms with unknown values: stop after opening the form

3. USE EXACT ELEMENT NAMES:
   - use the exact text from page context when available
   - for menus: use the exact menu item text (case-sensitive)
   - avoid generic descriptions

4. ACTION TYPES:
   - click: for buttons and links (not menu items)
   - select_menu: for choosing from visible menus/dropdowns
   - fill: for text input (only on actual input fields)
   - wait: after triggering UI changes (value is seconds, e.g. "0.5")
   - hover: rarely needed
   - navigate: load a URL (value is the URL)

WORKFLOW STRUCTURE:
{
  "app": "application name",
  "action": "verb (create, filter, edit, etc.)",
  "entity": "noun (task, database, page, etc.)",
  "steps": [
    {
      "action_type": "click|select_menu|fill|wait",
      "target": "specific element from page OR typical location",
      "value": "value for fill/wait",
      "description": "clear, concise step description"
    }
  ]
}

EXAMPLE - NOTION, ADD DATABASE:
{
  "app": "notion",
  "action": "create",
  "entity": "database",
  "steps": [
    {"action_type": "click", "target": "contenteditable area", "value": "", "description": "focus page editor"},
    {"action_type": "fill", "target": "contenteditable area", "value": "/database", "description": "type slash command"},
    {"action_type": "wait", "target": "", "value": "0.5", "description": "wait for menu"},
    {"action_type": "select_menu", "target": "Database", "value": "", "description": "select Database from menu"}
  ]
}

EXAMPLE - ASANA, CREATE TASK:
{
  "app": "asana",
  "action": "create",
  "entity": "task",
  "steps": [
    {"action_type": "click", "target": "Create", "value": "", "description": "open create menu"},
    {"action_type": "wait", "target": "", "value": "0.5", "description": "wait for menu"},
    {"action_type": "select_menu", "target": "Task", "value": "", "description": "select Task from menu"}
  ]
}

CRITICAL REMINDERS:
- use simple, exact target names (not verbose descriptions)
- stop workflows at user configuration points
- each step should work on first attempt
- NO steps for "try alternative" or "if that fails"

Now generate a CLEAN workflow.`, query, appName, context.String(), appPatterns[appName])
}

// buildRefinePrompt assembles the step-refinement prompt from the planned
// step and a fresh page context snapshot.
func buildRefinePrompt(step schemas.StepPlan, pageCtx *schemas.PageContext) string {
	stepBlob, _ := json.MarshalIndent(step, "", "  ")
	ctxBlob, _ := json.MarshalIndent(pageCtx, "", "  ")
	return fmt.Sprintf(`Refine this workflow step based on the actual page state.

CURRENT PAGE STATE:
%s

STEP TO REFINE:
%s

INSTRUCTIONS:
1. find the closest matching element from the page state
2. use the exact element text/aria-label from the page state
3. if the element is not found, suggest the closest alternative
4. keep the step simple and direct

Return JSON:
{
  "action_type": "click|fill|select_menu|wait",
  "target": "exact element from page state",
  "value": "value if needed",
  "description": "clear description",
  "confidence": "high|medium|low"
}`, ctxBlob, stepBlob)
}

func capContext(elems []schemas.ContextElement, max int) []schemas.ContextElement {
	if len(elems) > max {
		return elems[:max]
	}
	return elems
}
