// File: internal/statesig/service.go
package statesig

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// Service detects UI state changes by hashing a fixed signal vector read from
// the live page. A Service instance is bound 1:1 to one page; the baseline
// signature is owned exclusively by that instance and is never shared.
//
// The signature is a fingerprint, not a full-DOM diff: two different DOMs can
// alias to the same signature. That false-negative risk is the price of a
// single cheap round trip per poll.
type Service struct {
	eval     Evaluator
	logger   *zap.Logger
	baseline string
	hasBase  bool
}

// NewService creates a state signature service bound to one page.
func NewService(eval Evaluator, logger *zap.Logger) *Service {
	return &Service{
		eval:   eval,
		logger: logger.Named("statesig"),
	}
}

// Signature reads the signal vector and hashes it into an opaque,
// fixed-length signature string. Identical signal vectors always yield
// identical signatures.
func (s *Service) Signature(ctx context.Context) (string, error) {
	var signals SignalVector
	if err := s.eval.Evaluate(ctx, signalScript, &signals); err != nil {
		return "", fmt.Errorf("failed to read state signals: %w", err)
	}

	// Struct marshaling gives stable key ordering for free.
	payload, err := json.Marshal(signals)
	if err != nil {
		return "", fmt.Errorf("failed to serialize state signals: %w", err)
	}

	sum := sha256.Sum256(payload)
	signature := hex.EncodeToString(sum[:])

	s.logger.Debug("State signature computed",
		zap.String("signature", signature[:8]),
		zap.Int("modals", signals.ModalCount),
		zap.Int("menus", signals.MenuCount),
	)
	return signature, nil
}

// HasChanged reports whether the UI state differs from the last known
// baseline. The first call always reports a change and establishes the
// baseline. The baseline is only ever updated on a detected change.
func (s *Service) HasChanged(ctx context.Context) (bool, error) {
	current, err := s.Signature(ctx)
	if err != nil {
		return false, err
	}

	if !s.hasBase {
		s.baseline = current
		s.hasBase = true
		return true, nil
	}

	if current == s.baseline {
		return false, nil
	}

	s.logger.Info("UI state has changed")
	s.baseline = current
	return true, nil
}

// WaitForChange polls the page signature at pollInterval until it differs
// from the signature captured on entry, or timeout elapses. On a detected
// change the baseline is updated to the new signature and true is returned;
// on timeout the baseline is left untouched and false is returned. A timeout
// is an outcome, not an error.
func (s *Service) WaitForChange(ctx context.Context, timeout, pollInterval time.Duration) (bool, error) {
	initial, err := s.Signature(ctx)
	if err != nil {
		return false, err
	}

	s.logger.Debug("Waiting for UI state change", zap.Duration("timeout", timeout))

	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			s.logger.Debug("Timeout waiting for UI state change")
			return false, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(pollInterval):
		}

		current, err := s.Signature(ctx)
		if err != nil {
			return false, err
		}
		if current != initial {
			s.logger.Info("UI state change detected")
			s.baseline = current
			s.hasBase = true
			return true, nil
		}
	}
}

// DetectModalState probes the page for visible modal dialogs.
func (s *Service) DetectModalState(ctx context.Context) (*ModalState, error) {
	var state ModalState
	if err := s.eval.Evaluate(ctx, modalStateScript, &state); err != nil {
		return nil, fmt.Errorf("failed to detect modal state: %w", err)
	}
	return &state, nil
}

// DetectMenuState probes the page for open menus and dropdowns.
func (s *Service) DetectMenuState(ctx context.Context) (*MenuState, error) {
	var state MenuState
	if err := s.eval.Evaluate(ctx, menuStateScript, &state); err != nil {
		return nil, fmt.Errorf("failed to detect menu state: %w", err)
	}
	return &state, nil
}
