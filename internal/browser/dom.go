// File: internal/browser/dom.go
//
// DOM introspection programs. Everything here reads page state through one
// JavaScript evaluation per call, so the resolver always works against a
// single consistent snapshot.
package browser

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mzahir/trailcap/api/schemas"
	"github.com/mzahir/trailcap/internal/locator"
)

const visibleHelper = `
	const visible = (el) => {
		const r = el.getBoundingClientRect();
		if (r.width <= 0 || r.height <= 0) return false;
		const s = window.getComputedStyle(el);
		return s.display !== 'none' && s.visibility !== 'hidden' && s.opacity !== '0';
	};`

// InteractiveElements enumerates every visible interactive element on the
// page together with the viewport dimensions.
func (s *Session) InteractiveElements(ctx context.Context) (*schemas.PageSnapshot, error) {
	script := fmt.Sprintf(`(() => {
		%s
		const out = [];
		for (const el of document.querySelectorAll(%s)) {
			if (!visible(el)) continue;
			const r = el.getBoundingClientRect();
			out.push({
				tag: el.tagName.toLowerCase(),
				type: el.getAttribute('type') || '',
				role: el.getAttribute('role') || '',
				text: (el.textContent || '').trim().slice(0, 200),
				ariaLabel: el.getAttribute('aria-label') || '',
				id: el.id || '',
				name: el.getAttribute('name') || '',
				title: el.getAttribute('title') || '',
				classes: typeof el.className === 'string' ? el.className : '',
				placeholder: el.getAttribute('placeholder') || '',
				testid: el.getAttribute('data-testid') || '',
				visible: true,
				position: {x: r.x, y: r.y, width: r.width, height: r.height},
			});
		}
		return {
			viewportWidth: window.innerWidth,
			viewportHeight: window.innerHeight,
			elements: out,
		};
	})()`, visibleHelper, strconv.Quote(locator.InteractiveSelector))

	var snapshot schemas.PageSnapshot
	if err := s.Evaluate(ctx, script, &snapshot); err != nil {
		return nil, fmt.Errorf("element enumeration failed: %w", err)
	}
	return &snapshot, nil
}

// MenuSnapshot counts the visible transient menu containers and enumerates
// the visible items inside any of them.
func (s *Session) MenuSnapshot(ctx context.Context) (*schemas.MenuSnapshot, error) {
	script := fmt.Sprintf(`(() => {
		%s
		let containers = 0;
		for (const el of document.querySelectorAll(%s)) {
			if (visible(el)) containers++;
		}
		const items = [];
		if (containers > 0) {
			let index = 0;
			const seen = new Set();
			for (const el of document.querySelectorAll(%s)) {
				if (seen.has(el) || !visible(el)) continue;
				seen.add(el);
				items.push({
					text: (el.textContent || '').trim().slice(0, 200),
					ariaLabel: el.getAttribute('aria-label') || '',
					classes: typeof el.className === 'string' ? el.className : '',
					id: el.id || '',
					index: index++,
				});
			}
		}
		return {containerCount: containers, items: items};
	})()`, visibleHelper,
		strconv.Quote(locator.MenuContainerSelector()),
		strconv.Quote(locator.MenuItemSelector()))

	var snapshot schemas.MenuSnapshot
	if err := s.Evaluate(ctx, script, &snapshot); err != nil {
		return nil, fmt.Errorf("menu enumeration failed: %w", err)
	}
	return &snapshot, nil
}

// IsVisible reports whether jsPath currently resolves to a visible element.
func (s *Session) IsVisible(ctx context.Context, jsPath string) (bool, error) {
	script := fmt.Sprintf(`(() => {
		%s
		let el;
		try { el = %s; } catch (e) { return false; }
		if (!el) return false;
		return visible(el);
	})()`, visibleHelper, jsPath)

	var ok bool
	if err := s.Evaluate(ctx, script, &ok); err != nil {
		return false, fmt.Errorf("visibility check failed: %w", err)
	}
	return ok, nil
}

// PageContext builds the structured page snapshot used by the planner and
// the capturer's menu-context decision.
func (s *Session) PageContext(ctx context.Context) (*schemas.PageContext, error) {
	script := fmt.Sprintf(`(() => {
		%s
		const trim = (t) => (t || '').trim().slice(0, 100);
		const ctx = {
			url: window.location.href,
			title: document.title,
			buttons: [],
			links: [],
			inputs: [],
			selects: [],
			menuItems: [],
			headings: [],
			ui_state: {has_modal: false, has_menu: false, modal_count: 0, menu_count: 0},
		};

		for (const el of document.querySelectorAll('button, [role="button"]')) {
			if (!visible(el) || ctx.buttons.length >= 30) continue;
			ctx.buttons.push({
				type: 'button',
				text: trim(el.textContent),
				ariaLabel: el.getAttribute('aria-label') || '',
				classes: typeof el.className === 'string' ? el.className.slice(0, 100) : '',
				id: el.id || '',
			});
		}
		for (const el of document.querySelectorAll('a[href]')) {
			if (!visible(el) || ctx.links.length >= 30) continue;
			const text = trim(el.textContent);
			if (!text) continue;
			ctx.links.push({type: 'link', text: text, href: el.getAttribute('href') || ''});
		}
		for (const el of document.querySelectorAll('input, textarea, [contenteditable="true"]')) {
			if (!visible(el) || ctx.inputs.length >= 30) continue;
			ctx.inputs.push({
				type: 'input',
				inputType: el.getAttribute('type') || (el.isContentEditable ? 'contenteditable' : 'text'),
				placeholder: el.getAttribute('placeholder') || '',
				name: el.getAttribute('name') || '',
				id: el.id || '',
				ariaLabel: el.getAttribute('aria-label') || '',
			});
		}
		for (const el of document.querySelectorAll('select, [role="combobox"], [role="listbox"]')) {
			if (!visible(el) || ctx.selects.length >= 20) continue;
			ctx.selects.push({
				type: 'select',
				text: trim(el.textContent),
				name: el.getAttribute('name') || '',
				id: el.id || '',
				ariaLabel: el.getAttribute('aria-label') || '',
				role: el.getAttribute('role') || '',
			});
		}
		for (const el of document.querySelectorAll('h1, h2, h3')) {
			if (!visible(el) || ctx.headings.length >= 10) continue;
			const text = trim(el.textContent);
			if (text) ctx.headings.push(text);
		}

		for (const el of document.querySelectorAll('[role="dialog"], [aria-modal="true"], [class*="modal"], [class*="Modal"]')) {
			if (visible(el)) ctx.ui_state.modal_count++;
		}
		for (const el of document.querySelectorAll(%s)) {
			if (visible(el)) ctx.ui_state.menu_count++;
		}
		ctx.ui_state.has_modal = ctx.ui_state.modal_count > 0;
		ctx.ui_state.has_menu = ctx.ui_state.menu_count > 0;

		if (ctx.ui_state.has_menu) {
			for (const el of document.querySelectorAll(%s)) {
				if (!visible(el) || ctx.menuItems.length >= 30) continue;
				ctx.menuItems.push({
					type: 'menu_item',
					text: trim(el.textContent),
					ariaLabel: el.getAttribute('aria-label') || '',
					id: el.id || '',
				});
			}
		}
		return ctx;
	})()`, visibleHelper,
		strconv.Quote(locator.MenuContainerSelector()),
		strconv.Quote(locator.MenuItemSelector()))

	var pageCtx schemas.PageContext
	if err := s.Evaluate(ctx, script, &pageCtx); err != nil {
		return nil, fmt.Errorf("page context failed: %w", err)
	}
	return &pageCtx, nil
}
