// File: internal/locator/menu.go
package locator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mzahir/trailcap/api/schemas"
)

// menuScoreThreshold is the minimum score an enumerated menu item must reach
// to be accepted by the scoring path.
const menuScoreThreshold = 0.5

// resolveInMenu is the specialized finder for items inside visible dropdowns,
// menus and listboxes. It fails fast when no menu container is visible: the
// caller's general cascade handles that case. Returns nil on any miss or
// internal failure.
func (r *Resolver) resolveInMenu(ctx context.Context, description string) *Handle {
	r.logger.Info("Searching in menus", zap.String("description", description))

	snap, err := r.querier.MenuSnapshot(ctx)
	if err != nil {
		r.logger.Debug("Menu snapshot failed", zap.Error(err))
		return nil
	}
	if snap.ContainerCount == 0 {
		r.logger.Debug("No visible menu containers found")
		return nil
	}

	r.logger.Debug("Menu containers visible",
		zap.Int("containers", snap.ContainerCount),
		zap.Int("items", len(snap.Items)),
	)

	keywords := extractKeywords(description)

	// Pass 1: exact text match against the description and each keyword,
	// then a contains pass. Exact wins over contains across all candidates.
	candidates := append([]string{description}, keywords...)
	for _, candidate := range candidates {
		for i := range snap.Items {
			if strings.EqualFold(strings.TrimSpace(snap.Items[i].Text), candidate) {
				if handle := r.resolveMenuItem(ctx, &snap.Items[i]); handle != nil {
					r.logger.Info("Menu item matched exactly", zap.String("candidate", candidate))
					return handle
				}
			}
		}
	}
	for _, candidate := range candidates {
		lower := strings.ToLower(candidate)
		for i := range snap.Items {
			if strings.Contains(strings.ToLower(snap.Items[i].Text), lower) {
				if handle := r.resolveMenuItem(ctx, &snap.Items[i]); handle != nil {
					r.logger.Info("Menu item matched by contains", zap.String("candidate", candidate))
					return handle
				}
			}
		}
	}

	// Pass 2: score every enumerated item and take the best one.
	var best *schemas.MenuItemDescriptor
	bestScore := 0.0
	for i := range snap.Items {
		if score := menuItemScore(snap.Items[i], description, keywords); score > bestScore {
			bestScore = score
			best = &snap.Items[i]
		}
	}

	if best != nil && bestScore > menuScoreThreshold {
		r.logger.Info("Best menu match",
			zap.String("text", truncateText(best.Text, 50)),
			zap.Float64("score", bestScore),
		)
		if handle := r.resolveMenuItem(ctx, best); handle != nil {
			return handle
		}
	}

	r.logger.Debug("No matching menu item found")
	return nil
}

// resolveMenuItem turns an enumerated menu item into a locatable handle,
// preferring its id, then an exact-text lookup within the menu-item selector
// set. Each candidate path is validated against the live page.
func (r *Resolver) resolveMenuItem(ctx context.Context, item *schemas.MenuItemDescriptor) *Handle {
	descriptor := &schemas.ElementDescriptor{
		Text:      item.Text,
		AriaLabel: item.AriaLabel,
		ID:        item.ID,
		Classes:   item.Classes,
	}

	if item.ID != "" {
		handle := &Handle{
			JSPath:     menuItemByIDPath(item.ID),
			Strategy:   "menu",
			Descriptor: descriptor,
		}
		if r.isValid(ctx, handle) {
			return handle
		}
	}

	handle := &Handle{
		JSPath:     menuItemByTextPath(strings.TrimSpace(item.Text)),
		Strategy:   "menu",
		Descriptor: descriptor,
	}
	if r.isValid(ctx, handle) {
		return handle
	}
	return nil
}

func truncateText(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
