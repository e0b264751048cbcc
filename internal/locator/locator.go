// File: internal/locator/locator.go
//
// Package locator resolves natural-language element descriptions to concrete
// on-page elements. Resolution runs an ordered cascade of strategies over a
// fresh enumeration of the page's interactive elements, with a specialized
// resolver for items inside transient menus. An exhausted cascade is a
// NotFound outcome, not a fault.
package locator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mzahir/trailcap/api/schemas"
)

// ErrNotFound reports that the resolution cascade was exhausted without a
// validated match.
var ErrNotFound = errors.New("element not found")

// PageQuerier is the read-only DOM introspection capability the resolver
// needs. Implemented by the browser session; faked in tests.
type PageQuerier interface {
	// InteractiveElements enumerates the visible interactive elements plus
	// the viewport dimensions.
	InteractiveElements(ctx context.Context) (*schemas.PageSnapshot, error)
	// MenuSnapshot counts visible transient menu containers and enumerates
	// their visible items.
	MenuSnapshot(ctx context.Context) (*schemas.MenuSnapshot, error)
	// IsVisible reports whether jsPath resolves to at least one node whose
	// first node is currently visible.
	IsVisible(ctx context.Context, jsPath string) (bool, error)
	// PageContext builds the structured read-only page snapshot.
	PageContext(ctx context.Context) (*schemas.PageContext, error)
}

// Options tune a single resolution call.
type Options struct {
	// TypeHint overrides element-type inference when non-empty.
	TypeHint string
	// InMenu scopes resolution to items inside a currently visible menu.
	InMenu bool
}

// Resolver turns natural-language descriptions into element handles.
type Resolver struct {
	querier PageQuerier
	logger  *zap.Logger
}

// NewResolver creates a resolver bound to one page.
func NewResolver(querier PageQuerier, logger *zap.Logger) *Resolver {
	return &Resolver{
		querier: querier,
		logger:  logger.Named("locator"),
	}
}

// Resolve finds a single element matching the description. The strategy
// cascade runs in fixed priority order and stops at the first validated
// match; any strategy's internal failure is swallowed and the cascade
// proceeds. Returns ErrNotFound when every strategy misses.
func (r *Resolver) Resolve(ctx context.Context, description string, opts Options) (*Handle, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("description must not be empty")
	}

	r.logger.Info("Resolving element",
		zap.String("description", description),
		zap.Bool("in_menu", opts.InMenu),
	)

	if opts.InMenu || looksLikeMenuItem(description) {
		if handle := r.resolveInMenu(ctx, description); handle != nil {
			return handle, nil
		}
	}

	keywords := extractKeywords(description)
	category := opts.TypeHint
	if category == "" {
		category = inferElementType(description)
	}

	snap, err := r.querier.InteractiveElements(ctx)
	if err != nil {
		// Enumeration failure starves the strategies but is not fatal to the
		// caller: the contract is NotFound, not an error.
		r.logger.Debug("Interactive element enumeration failed", zap.Error(err))
		snap = &schemas.PageSnapshot{}
	}

	for _, strategy := range strategies {
		candidate := strategy.fn(snap, description, keywords, category)
		if candidate == nil {
			continue
		}

		handle := &Handle{
			JSPath:     buildJSPath(candidate),
			Strategy:   strategy.name,
			Descriptor: candidate,
		}
		if r.isValid(ctx, handle) {
			r.logger.Info("Element resolved", zap.String("strategy", strategy.name))
			return handle, nil
		}
	}

	r.logger.Warn("Could not resolve element", zap.String("description", description))
	return nil, ErrNotFound
}

// FindElements finds up to maxResults elements matching the description,
// best scores first.
func (r *Resolver) FindElements(ctx context.Context, description string, maxResults int) ([]*Handle, error) {
	keywords := extractKeywords(description)
	category := inferElementType(description)

	snap, err := r.querier.InteractiveElements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate interactive elements: %w", err)
	}

	type scored struct {
		score float64
		el    *schemas.ElementDescriptor
	}
	candidates := make([]scored, 0, len(snap.Elements))
	for i := range snap.Elements {
		if score := matchScore(snap.Elements[i], description, keywords, category); score > 0.3 {
			candidates = append(candidates, scored{score, &snap.Elements[i]})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	results := make([]*Handle, 0, maxResults)
	for _, c := range candidates {
		if len(results) == maxResults {
			break
		}
		handle := &Handle{JSPath: buildJSPath(c.el), Strategy: "fuzzy_match", Descriptor: c.el}
		if r.isValid(ctx, handle) {
			results = append(results, handle)
		}
	}

	r.logger.Info("Found matching elements", zap.Int("count", len(results)))
	return results, nil
}

// PageContext returns the structured snapshot of the current page state.
func (r *Resolver) PageContext(ctx context.Context) (*schemas.PageContext, error) {
	return r.querier.PageContext(ctx)
}

// isValid checks a handle against the live page: it must resolve to a node
// and that node must be visible. Query errors count as invalid.
func (r *Resolver) isValid(ctx context.Context, handle *Handle) bool {
	visible, err := r.querier.IsVisible(ctx, handle.JSPath)
	if err != nil {
		r.logger.Debug("Handle validation failed", zap.Error(err))
		return false
	}
	return visible
}
