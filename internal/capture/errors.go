// File: internal/capture/errors.go
package capture

import "errors"

// Sentinel errors recorded on step results. They never abort a run by
// themselves; the consecutive-error breaker decides that.
var (
	ErrElementNotFound  = errors.New("element not found")
	ErrActionFailed     = errors.New("action failed")
	ErrNavigationFailed = errors.New("navigation failed")
)
