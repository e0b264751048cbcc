// File: internal/statesig/signals.go
package statesig

import (
	"context"
)

// Evaluator provides read-only JavaScript evaluation against the live page.
// Implemented by the browser session; faked in tests.
type Evaluator interface {
	Evaluate(ctx context.Context, expression string, out any) error
}

// ActiveElement describes the element currently holding focus.
type ActiveElement struct {
	Tag  string `json:"tag"`
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
}

// BodyShape is a coarse fingerprint of the document body structure.
type BodyShape struct {
	ChildCount int    `json:"childCount"`
	Classes    string `json:"classes"`
}

// SignalVector is the fixed set of UI signals the signature is computed over.
// Field order is the stable serialization order; do not reorder.
type SignalVector struct {
	URL           string         `json:"url"`
	Title         string         `json:"title"`
	ModalCount    int            `json:"modalCount"`
	OverlayCount  int            `json:"overlayCount"`
	ActiveElement *ActiveElement `json:"activeElement"`
	VisibleForms  int            `json:"visibleForms"`
	LoadingCount  int            `json:"loadingCount"`
	MenuCount     int            `json:"menuCount"`
	Body          *BodyShape     `json:"bodyStructure"`
}

// signalScript reads the signal vector in a single round trip. Counts are
// cheap selector matches, not visibility-filtered, except forms which use
// offsetParent; this mirrors what the signature is meant to be: a fast
// fingerprint, not a DOM diff.
const signalScript = `(() => {
	return {
		url: window.location.href,
		title: document.title,

		modalCount: document.querySelectorAll(
			'[role="dialog"], .modal, [class*="Modal"], [class*="modal"]'
		).length,

		overlayCount: document.querySelectorAll(
			'[class*="overlay"], [class*="backdrop"], [class*="Overlay"]'
		).length,

		activeElement: document.activeElement ? {
			tag: document.activeElement.tagName,
			type: document.activeElement.type || "",
			id: document.activeElement.id || ""
		} : null,

		visibleForms: Array.from(document.querySelectorAll('form')).filter(
			f => f.offsetParent !== null
		).length,

		loadingCount: document.querySelectorAll(
			'[class*="loading"], [class*="spinner"], [class*="Loading"], [class*="Spinner"]'
		).length,

		menuCount: document.querySelectorAll(
			'[role="menu"], [role="listbox"]'
		).length,

		bodyStructure: document.body ? {
			childCount: document.body.children.length,
			classes: document.body.className
		} : null
	};
})()`

// ModalState reports visible modal dialogs and a summary of their contents.
type ModalState struct {
	HasModal   bool        `json:"hasModal"`
	ModalCount int         `json:"modalCount"`
	ModalInfo  []ModalInfo `json:"modalInfo"`
}

// ModalInfo summarizes one visible modal.
type ModalInfo struct {
	Title   string   `json:"title,omitempty"`
	HasForm bool     `json:"hasForm"`
	Buttons []string `json:"buttons"`
}

const modalStateScript = `(() => {
	const modals = document.querySelectorAll('[role="dialog"], .modal, [class*="Modal"]');
	const visible = Array.from(modals).filter(m => m.offsetParent !== null);
	return {
		hasModal: visible.length > 0,
		modalCount: visible.length,
		modalInfo: visible.map(m => ({
			title: (m.querySelector('[role="heading"]') || {}).textContent || "",
			hasForm: m.querySelector('form') !== null,
			buttons: Array.from(m.querySelectorAll('button')).map(b => b.textContent.trim())
		}))
	};
})()`

// MenuState reports visible menus/listboxes and their leading items.
type MenuState struct {
	HasMenu   bool       `json:"hasMenu"`
	MenuCount int        `json:"menuCount"`
	MenuInfo  []MenuInfo `json:"menuInfo"`
}

// MenuInfo summarizes one visible menu.
type MenuInfo struct {
	Items []string `json:"items"`
}

const menuStateScript = `(() => {
	const menus = document.querySelectorAll('[role="menu"], [role="listbox"]');
	const visible = Array.from(menus).filter(m => m.offsetParent !== null);
	return {
		hasMenu: visible.length > 0,
		menuCount: visible.length,
		menuInfo: visible.map(m => ({
			items: Array.from(m.querySelectorAll('[role="menuitem"]'))
				.map(i => i.textContent.trim())
				.slice(0, 10)
		}))
	};
})()`
